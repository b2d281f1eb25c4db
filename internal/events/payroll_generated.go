package events

import "time"

const (
	PayrollLifecycleTopic     = "hr.payroll.lifecycle.v1"
	PayrollGeneratedEventType = "payroll.period.generated"
)

type PayrollGeneratedEvent struct {
	EventType      string    `json:"event_type"`
	PeriodID       string    `json:"period_id"`
	CompanyID      string    `json:"company_id"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	GeneratedCount int       `json:"generated_count"`
	OccurredAt     time.Time `json:"occurred_at"`
}
