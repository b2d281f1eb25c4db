package events

import "time"

const (
	EmployeeLifecycleTopic   = "hr.employee.lifecycle.v1"
	EmployeeCreatedEventType = "employee.created"
)

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
