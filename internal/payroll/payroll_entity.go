package payroll

import (
	"time"

	"github.com/google/uuid"
)

// PayrollPeriod is one calendar month's processing cycle. A period is
// generated at most once: IsProcessed is terminal.
type PayrollPeriod struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_period_month_year"`
	Month     int       `gorm:"type:int;not null;uniqueIndex:uq_payroll_period_month_year"`
	Year      int       `gorm:"type:int;not null;uniqueIndex:uq_payroll_period_month_year"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`

	IsProcessed bool       `gorm:"not null;default:false"`
	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label renders the period for display, e.g. "January 2026".
func (p *PayrollPeriod) Label() string {
	return p.StartDate.Format("January 2006")
}

// Payroll is one employee's pay for one period. BaseSalary is a snapshot
// taken at generation time so later salary edits never rewrite history.
type Payroll struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_employee_period"`
	PayrollPeriodID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_employee_period"`

	// Amounts in the smallest currency unit.
	BaseSalary     int64 `gorm:"type:bigint;not null;default:0"`
	TaxDeduction   int64 `gorm:"type:bigint;not null;default:0"`
	LeaveDeduction int64 `gorm:"type:bigint;not null;default:0"`
	Allowances     int64 `gorm:"type:bigint;not null;default:0"`
	NetSalary      int64 `gorm:"type:bigint;not null;default:0"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayrollEmployee is the projection of the employees table the generator
// needs: identity, pay and status.
type PayrollEmployee struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName   string    `gorm:"column:full_name"`
	BaseSalary int64     `gorm:"column:base_salary"`
	Status     string    `gorm:"column:status"`
}

func (PayrollEmployee) TableName() string {
	return "employees"
}

// QuotaSnapshot is the slice of the leave_quotas table the deduction
// calculation reads.
type QuotaSnapshot struct {
	TotalDays int `gorm:"column:total_days"`
	UsedDays  int `gorm:"column:used_days"`
}

// PeriodBounds returns the first and last day of a calendar month.
func PeriodBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}
