package tenant

import "gorm.io/gorm"

// Scope restricts a query to one tenant's partition. Every repository
// query on tenant-owned tables goes through this.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
