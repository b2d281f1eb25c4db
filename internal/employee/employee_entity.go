package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusOnLeave  = "ON_LEAVE"
)

// Employee rows are soft-deleted; payroll generation and leave checks
// only ever see rows where deleted_at is null.
type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_employee_company_email"`
	DepartmentID *uuid.UUID `gorm:"type:uuid"`

	FullName string `gorm:"not null"`
	// Email is unique within a company only; two tenants may employ the
	// same address.
	Email    string `gorm:"uniqueIndex:uq_employee_company_email;not null"`
	Phone    string
	Position string

	// BaseSalary in the smallest currency unit.
	BaseSalary int64     `gorm:"type:bigint;not null;default:0"`
	Status     string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	StartDate  time.Time `gorm:"type:date;not null"`

	Department *Department `gorm:"foreignKey:DepartmentID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Department lives in its own package; this is the association target
// gorm preloads through.
type Department struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func (Department) TableName() string {
	return "departments"
}

func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave:
		return true
	}
	return false
}
