package leave

import (
	"context"
	"database/sql"

	"go-hrpay/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	GetOrCreateQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error)
	FindQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error)
	LockQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error)
	UpdateQuota(ctx context.Context, quota *LeaveQuota) error

	CreateRequest(ctx context.Context, req *LeaveRequest) error
	FindAllByCompany(ctx context.Context, companyID string) ([]LeaveRequest, error)
	FindRequestByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	UpdateRequest(ctx context.Context, req *LeaveRequest) error

	EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error)
	CountPendingRequests(ctx context.Context, companyID, employeeID string) (int64, error)
	CountApprovedRequestsInYear(ctx context.Context, companyID, employeeID string, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the gorm session to an open transaction so every
// statement issued through the returned repository joins it.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

// GetOrCreateQuota relies on the (employee_id, year) uniqueness constraint:
// the insert is a no-op when the row exists, and the loser of a concurrent
// first-access race simply reads the winner's row back.
func (r *repository) GetOrCreateQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error) {
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO leave_quotas (id, company_id, employee_id, year, total_days, used_days, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, ?, 0, now(), now())
		ON CONFLICT (employee_id, year) DO NOTHING
	`, companyID, employeeID, year, DefaultTotalDays).Error
	if err != nil {
		return nil, err
	}

	return r.FindQuota(ctx, companyID, employeeID, year)
}

func (r *repository) FindQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error) {
	var quota LeaveQuota
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		First(&quota).Error
	return &quota, err
}

// LockQuota reads the quota row FOR UPDATE. Only meaningful inside a
// transaction; the lock serializes concurrent approvals on one balance.
func (r *repository) LockQuota(ctx context.Context, companyID, employeeID string, year int) (*LeaveQuota, error) {
	var quota LeaveQuota
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		First(&quota).Error
	return &quota, err
}

func (r *repository) UpdateQuota(ctx context.Context, quota *LeaveQuota) error {
	return r.db.WithContext(ctx).Save(quota).Error
}

func (r *repository) CreateRequest(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("start_date DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) FindRequestByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) UpdateRequest(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Scopes(tenant.Scope(companyID)).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CountPendingRequests(ctx context.Context, companyID, employeeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusPending).
		Count(&count).Error
	return count, err
}

func (r *repository) CountApprovedRequestsInYear(ctx context.Context, companyID, employeeID string, year int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusApproved).
		Where("EXTRACT(YEAR FROM start_date) = ?", year).
		Count(&count).Error
	return count, err
}
