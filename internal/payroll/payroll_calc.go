package payroll

import "math"

const (
	// taxRate is a flat 5% of base salary. Progressive brackets are out
	// of scope.
	taxRate = 0.05

	// workingDaysPerMonth fixes the daily rate divisor.
	workingDaysPerMonth = 22
)

// CalculateTax returns the flat tax on a base salary, rounded half away
// from zero.
func CalculateTax(baseSalary int64) int64 {
	return int64(math.Round(float64(baseSalary) * taxRate))
}

// CalculateLeaveDeduction charges the days used beyond the yearly quota
// at a rounded daily rate. Usage within the quota deducts nothing.
//
// The excess is the year's cumulative total, so a standing excess is
// charged again on every period generated in that year. This matches the
// historical billing behavior and is kept deliberately; see DESIGN.md.
func CalculateLeaveDeduction(totalDays, usedDays int, baseSalary int64) int64 {
	if usedDays <= totalDays {
		return 0
	}

	excessDays := usedDays - totalDays
	dailyRate := int64(math.Round(float64(baseSalary) / workingDaysPerMonth))

	return int64(excessDays) * dailyRate
}

// CalculateNetSalary applies deductions and allowances, floored at zero.
func CalculateNetSalary(baseSalary, taxDeduction, leaveDeduction, allowances int64) int64 {
	net := baseSalary - taxDeduction - leaveDeduction + allowances
	if net < 0 {
		return 0
	}
	return net
}
