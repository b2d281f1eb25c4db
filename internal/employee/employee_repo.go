package employee

import (
	"context"
	"database/sql"

	"go-hrpay/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error)
	CountByCompany(ctx context.Context, companyID string) (int64, error)
	GetCompanyPlan(ctx context.Context, companyID string) (string, error)
	LockCompanyPlan(ctx context.Context, companyID string) (string, error)
	DepartmentExists(ctx context.Context, companyID, departmentID string) (bool, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, companyID string, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the gorm session to an open transaction.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Department").
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

// FindOptionsByCompany skips the association preload; option lists only
// need id and name.
func (r *repository) FindOptionsByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Select("id", "company_id", "full_name", "email", "status", "base_salary", "start_date").
		Order("full_name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Department").
		First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Count(&count).Error
	return count, err
}

func (r *repository) GetCompanyPlan(ctx context.Context, companyID string) (string, error) {
	var plan string
	err := r.db.WithContext(ctx).
		Table("companies").
		Select("plan").
		Where("id = ?", companyID).
		Take(&plan).Error
	if err != nil {
		return "", err
	}
	if plan == "" {
		plan = tenant.PlanFree
	}
	return plan, nil
}

// LockCompanyPlan reads the company's plan FOR UPDATE. Taking this lock
// before counting serializes concurrent creates for the same company, so
// the headcount gate cannot be raced past.
func (r *repository) LockCompanyPlan(ctx context.Context, companyID string) (string, error) {
	var plan string
	err := r.db.WithContext(ctx).
		Table("companies").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("plan").
		Where("id = ?", companyID).
		Take(&plan).Error
	if err != nil {
		return "", err
	}
	if plan == "" {
		plan = tenant.PlanFree
	}
	return plan, nil
}

func (r *repository) DepartmentExists(ctx context.Context, companyID, departmentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("departments").
		Where("id = ?", departmentID).
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Save(empl).Error
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&Employee{}, "id = ?", id).Error
}
