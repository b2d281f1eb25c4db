package tenant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Tenant is a company account. The table keeps the name "companies"
// because every tenant-owned row points at it through company_id.
type Tenant struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"type:varchar(120);not null"`
	Slug string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	Plan string    `gorm:"type:varchar(20);not null;default:'free'"`

	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Tenant) TableName() string {
	return "companies"
}
