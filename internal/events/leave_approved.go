package events

import "time"

const (
	LeaveLifecycleTopic    = "hr.leave.lifecycle.v1"
	LeaveApprovedEventType = "leave.approved"
)

type LeaveApprovedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	DaysCount  int       `json:"days_count"`
	OccurredAt time.Time `json:"occurred_at"`
}
