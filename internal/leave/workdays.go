package leave

import "time"

// CalculateDaysCount counts the working days in [start, end] inclusive,
// excluding Saturdays and Sundays. Both boundary dates count when they are
// weekdays. Pure calendar arithmetic; no timezone shifting is applied.
func CalculateDaysCount(start, end time.Time) int {
	days := 0
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		switch current.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
