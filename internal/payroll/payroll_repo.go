package payroll

import (
	"context"
	"database/sql"
	"time"

	"go-hrpay/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeriodStats aggregates one period's generated payrolls.
type PeriodStats struct {
	TotalEmployees      int64 `gorm:"column:total_employees"`
	TotalBaseSalary     int64 `gorm:"column:total_base_salary"`
	TotalTaxDeduction   int64 `gorm:"column:total_tax_deduction"`
	TotalLeaveDeduction int64 `gorm:"column:total_leave_deduction"`
	TotalAllowances     int64 `gorm:"column:total_allowances"`
	TotalNetSalary      int64 `gorm:"column:total_net_salary"`
}

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	GetOrCreatePeriod(ctx context.Context, companyID string, month, year int, startDate, endDate time.Time) (*PayrollPeriod, error)
	FindPeriod(ctx context.Context, companyID string, month, year int) (*PayrollPeriod, error)
	FindPeriodByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollPeriod, error)
	FindAllPeriodsByCompany(ctx context.Context, companyID string) ([]PayrollPeriod, error)
	LockPeriod(ctx context.Context, companyID, id string) (*PayrollPeriod, error)
	MarkPeriodProcessed(ctx context.Context, companyID, id string, processedAt time.Time) (bool, error)

	CreatePayroll(ctx context.Context, payroll *Payroll) error
	FindPayroll(ctx context.Context, companyID, employeeID, periodID string) (*Payroll, error)
	FindAllByPeriod(ctx context.Context, companyID, periodID string) ([]Payroll, error)

	ListActiveEmployees(ctx context.Context, companyID string) ([]PayrollEmployee, error)
	FindQuotaSnapshot(ctx context.Context, companyID, employeeID string, year int) (*QuotaSnapshot, error)
	StatsByPeriod(ctx context.Context, companyID, periodID string) (PeriodStats, error)
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

// GetOrCreatePeriod leans on the (company_id, month, year) uniqueness
// constraint: a concurrent creator loses the insert silently and both
// callers read the same row back.
func (r *repository) GetOrCreatePeriod(ctx context.Context, companyID string, month, year int, startDate, endDate time.Time) (*PayrollPeriod, error) {
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO payroll_periods (id, company_id, month, year, start_date, end_date, is_processed, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, ?, ?, false, now(), now())
		ON CONFLICT (company_id, month, year) DO NOTHING
	`, companyID, month, year, startDate, endDate).Error
	if err != nil {
		return nil, err
	}

	return r.FindPeriod(ctx, companyID, month, year)
}

func (r *repository) FindPeriod(ctx context.Context, companyID string, month, year int) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("month = ?", month).
		Where("year = ?", year).
		First(&period).Error
	return &period, err
}

func (r *repository) FindPeriodByIDAndCompany(ctx context.Context, companyID, id string) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&period, "id = ?", id).Error
	return &period, err
}

func (r *repository) FindAllPeriodsByCompany(ctx context.Context, companyID string) ([]PayrollPeriod, error) {
	var periods []PayrollPeriod
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("year DESC, month DESC").
		Find(&periods).Error
	return periods, err
}

// LockPeriod reads the period row FOR UPDATE so one generation run per
// period proceeds at a time.
func (r *repository) LockPeriod(ctx context.Context, companyID, id string) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&period, "id = ?", id).Error
	return &period, err
}

// MarkPeriodProcessed flips is_processed with a compare-and-set; a false
// return means a concurrent run already closed the period.
func (r *repository) MarkPeriodProcessed(ctx context.Context, companyID, id string, processedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&PayrollPeriod{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Where("is_processed = false").
		Updates(map[string]any{
			"is_processed": true,
			"processed_at": processedAt,
			"updated_at":   processedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreatePayroll(ctx context.Context, payroll *Payroll) error {
	return r.db.WithContext(ctx).Create(payroll).Error
}

func (r *repository) FindPayroll(ctx context.Context, companyID, employeeID, periodID string) (*Payroll, error) {
	var payroll Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("payroll_period_id = ?", periodID).
		First(&payroll).Error
	return &payroll, err
}

func (r *repository) FindAllByPeriod(ctx context.Context, companyID, periodID string) ([]Payroll, error) {
	var payrolls []Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("payroll_period_id = ?", periodID).
		Order("created_at ASC").
		Find(&payrolls).Error
	return payrolls, err
}

func (r *repository) ListActiveEmployees(ctx context.Context, companyID string) ([]PayrollEmployee, error) {
	var employees []PayrollEmployee
	err := r.db.WithContext(ctx).
		Table("employees").
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", "ACTIVE").
		Where("deleted_at IS NULL").
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindQuotaSnapshot(ctx context.Context, companyID, employeeID string, year int) (*QuotaSnapshot, error) {
	var snapshot QuotaSnapshot
	err := r.db.WithContext(ctx).
		Table("leave_quotas").
		Select("total_days", "used_days").
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Take(&snapshot).Error
	return &snapshot, err
}

func (r *repository) StatsByPeriod(ctx context.Context, companyID, periodID string) (PeriodStats, error) {
	var stats PeriodStats
	err := r.db.WithContext(ctx).
		Model(&Payroll{}).
		Select(`
			COUNT(*) AS total_employees,
			COALESCE(SUM(base_salary), 0) AS total_base_salary,
			COALESCE(SUM(tax_deduction), 0) AS total_tax_deduction,
			COALESCE(SUM(leave_deduction), 0) AS total_leave_deduction,
			COALESCE(SUM(allowances), 0) AS total_allowances,
			COALESCE(SUM(net_salary), 0) AS total_net_salary
		`).
		Scopes(tenant.Scope(companyID)).
		Where("payroll_period_id = ?", periodID).
		Take(&stats).Error
	return stats, err
}
