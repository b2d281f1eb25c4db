package leave

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTotalDays is the yearly allotment given to a quota created on
// first access.
const DefaultTotalDays = 12

// LeaveQuota is the per-employee, per-year balance ledger. UsedDays only
// grows through approvals and is allowed to exceed TotalDays; the excess
// is settled by payroll as a deduction, not blocked here.
type LeaveQuota struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_quota_employee_year"`
	Year       int       `gorm:"type:int;not null;uniqueIndex:uq_leave_quota_employee_year"`

	TotalDays int `gorm:"type:int;not null;default:12"`
	UsedDays  int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingDays never reports a negative balance, even once UsedDays has
// gone past TotalDays.
func (q *LeaveQuota) RemainingDays() int {
	remaining := q.TotalDays - q.UsedDays
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (q *LeaveQuota) HasEnoughDays(days int) bool {
	return q.RemainingDays() >= days
}

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	DaysCount int       `gorm:"type:int;not null"`
	Reason    string    `gorm:"type:text"`

	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_company_status"`
	Notes       *string    `gorm:"type:text"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *LeaveRequest) IsPending() bool {
	return r.Status == StatusPending
}
