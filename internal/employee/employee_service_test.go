package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-hrpay/internal/employee"
	employeeerrors "go-hrpay/internal/employee/errors"
	"go-hrpay/internal/messaging/kafka"
	"go-hrpay/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeEmployeeRepository struct {
	withTxFn               func(tx *sql.Tx) employee.Repository
	createFn               func(ctx context.Context, empl *employee.Employee) error
	findAllByCompanyFn     func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findOptionsByCompanyFn func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findByIDAndCompanyFn   func(ctx context.Context, companyID, id string) (*employee.Employee, error)
	countByCompanyFn       func(ctx context.Context, companyID string) (int64, error)
	getCompanyPlanFn       func(ctx context.Context, companyID string) (string, error)
	lockCompanyPlanFn      func(ctx context.Context, companyID string) (string, error)
	departmentExistsFn     func(ctx context.Context, companyID, departmentID string) (bool, error)
	updateFn               func(ctx context.Context, empl *employee.Employee) error
	deleteFn               func(ctx context.Context, companyID, id string) error
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeEmployeeRepository) Create(ctx context.Context, empl *employee.Employee) error {
	if f.createFn != nil {
		return f.createFn(ctx, empl)
	}
	return nil
}

func (f *fakeEmployeeRepository) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindOptionsByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findOptionsByCompanyFn != nil {
		return f.findOptionsByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	if f.countByCompanyFn != nil {
		return f.countByCompanyFn(ctx, companyID)
	}
	return 0, nil
}

func (f *fakeEmployeeRepository) GetCompanyPlan(ctx context.Context, companyID string) (string, error) {
	if f.getCompanyPlanFn != nil {
		return f.getCompanyPlanFn(ctx, companyID)
	}
	return tenant.PlanFree, nil
}

func (f *fakeEmployeeRepository) LockCompanyPlan(ctx context.Context, companyID string) (string, error) {
	if f.lockCompanyPlanFn != nil {
		return f.lockCompanyPlanFn(ctx, companyID)
	}
	return tenant.PlanFree, nil
}

func (f *fakeEmployeeRepository) DepartmentExists(ctx context.Context, companyID, departmentID string) (bool, error) {
	if f.departmentExistsFn != nil {
		return f.departmentExistsFn(ctx, companyID, departmentID)
	}
	return true, nil
}

func (f *fakeEmployeeRepository) Update(ctx context.Context, empl *employee.Employee) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, empl)
	}
	return nil
}

func (f *fakeEmployeeRepository) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, companyID, id)
	}
	return nil
}

type fakeOutboxRepository struct {
	withTxFn func(tx *sql.Tx) kafka.OutboxRepository
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type employeeServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	redisMock redismock.ClientMock
	service   employee.Service
	repo      *fakeEmployeeRepository
	outbox    *fakeOutboxRepository
}

func setupEmployeeServiceTest(t *testing.T) *employeeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	rdb, redisMock := redismock.NewClientMock()

	repo := &fakeEmployeeRepository{}
	outbox := &fakeOutboxRepository{}
	svc := employee.NewServiceWithOutbox(db, repo, outbox, rdb)

	return &employeeServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		redisMock: redisMock,
		service:   svc,
		repo:      repo,
		outbox:    outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	req := employee.CreateEmployeeRequest{
		FullName:   "Dewi Lestari",
		Email:      "dewi@example.com",
		Phone:      "0812",
		Position:   "Payroll Analyst",
		BaseSalary: 10_000_000,
		StartDate:  "2026-02-01",
	}

	t.Run("success under the plan cap", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.lockCompanyPlanFn = func(ctx context.Context, cid string) (string, error) {
			return tenant.PlanFree, nil
		}
		deps.repo.countByCompanyFn = func(ctx context.Context, cid string) (int64, error) {
			return 4, nil
		}
		var created *employee.Employee
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			created = empl
			return nil
		}
		var outboxEvent *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			outboxEvent = &event
			return nil
		}
		deps.redisMock.ExpectDel(employee.GetEmployeeOptionsKey(companyID)).SetVal(1)

		resp, err := deps.service.Create(ctx, companyID, req)

		assert.NoError(t, err)
		assert.Equal(t, req.Email, resp.Email)
		assert.Equal(t, req.Position, resp.Position)
		assert.Equal(t, employee.StatusActive, resp.Status)
		assert.NotNil(t, created)
		assert.Equal(t, companyID, created.CompanyID.String())
		assert.Equal(t, req.Position, created.Position)
		assert.NotNil(t, outboxEvent)
		assert.Equal(t, "employee.created", outboxEvent.EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("free plan at the cap is refused", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.lockCompanyPlanFn = func(ctx context.Context, cid string) (string, error) {
			return tenant.PlanFree, nil
		}
		deps.repo.countByCompanyFn = func(ctx context.Context, cid string) (int64, error) {
			return 5, nil
		}
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			t.Fatal("employee must not be created over the cap")
			return nil
		}

		_, err := deps.service.Create(ctx, companyID, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeLimitReached)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("pro plan has no cap", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.lockCompanyPlanFn = func(ctx context.Context, cid string) (string, error) {
			return tenant.PlanPro, nil
		}
		deps.repo.countByCompanyFn = func(ctx context.Context, cid string) (int64, error) {
			return 5000, nil
		}
		deps.redisMock.ExpectDel(employee.GetEmployeeOptionsKey(companyID)).SetVal(1)

		_, err := deps.service.Create(ctx, companyID, req)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate email within the company maps to conflict", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_company_email"}
		}

		_, err := deps.service.Create(ctx, companyID, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unrelated unique violation is not a conflict", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "employees_pkey"}
		}

		_, err := deps.service.Create(ctx, companyID, req)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown department in the company is named in the error", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.departmentExistsFn = func(ctx context.Context, cid, did string) (bool, error) {
			return false, nil
		}
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			t.Fatal("employee must not be created under a missing department")
			return nil
		}

		withDept := req
		withDept.DepartmentID = uuid.New().String()

		_, err := deps.service.Create(ctx, companyID, withDept)

		assert.ErrorIs(t, err, employeeerrors.ErrDepartmentNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("bad start date fails before any transaction", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		bad := req
		bad.StartDate = "01-02-2026"

		_, err := deps.service.Create(ctx, companyID, bad)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidStartDate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetOptions(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("cache hit skips the repository", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		cached := []employee.EmployeeResponse{{ID: uuid.New().String(), FullName: "Dewi Lestari"}}
		payload, err := json.Marshal(cached)
		assert.NoError(t, err)

		deps.redisMock.ExpectGet(employee.GetEmployeeOptionsKey(companyID)).SetVal(string(payload))
		deps.repo.findOptionsByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			t.Fatal("repository must not be hit on a warm cache")
			return nil, nil
		}

		resp, err := deps.service.GetOptions(ctx, companyID)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "Dewi Lestari", resp[0].FullName)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss reads and fills", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		key := employee.GetEmployeeOptionsKey(companyID)
		deps.redisMock.ExpectGet(key).RedisNil()
		deps.redisMock.Regexp().ExpectSet(key, `.*`, time.Hour).SetVal("OK")
		deps.repo.findOptionsByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{{ID: uuid.New(), CompanyID: uuid.MustParse(companyID), FullName: "Budi"}}, nil
		}

		resp, err := deps.service.GetOptions(ctx, companyID)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "Budi", resp[0].FullName)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_PlanLimit(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("free plan reports the remaining slots", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.getCompanyPlanFn = func(ctx context.Context, cid string) (string, error) {
			return tenant.PlanFree, nil
		}
		deps.repo.countByCompanyFn = func(ctx context.Context, cid string) (int64, error) {
			return 3, nil
		}

		resp, err := deps.service.PlanLimit(ctx, companyID)

		assert.NoError(t, err)
		assert.Equal(t, tenant.PlanFree, resp.Plan)
		assert.False(t, resp.Unlimited)
		assert.Equal(t, 3, resp.CurrentCount)
		assert.NotNil(t, resp.MaxEmployees)
		assert.Equal(t, 5, *resp.MaxEmployees)
		assert.NotNil(t, resp.RemainingSlots)
		assert.Equal(t, 2, *resp.RemainingSlots)
	})

	t.Run("enterprise plan is unlimited", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.getCompanyPlanFn = func(ctx context.Context, cid string) (string, error) {
			return tenant.PlanEnterprise, nil
		}
		deps.repo.countByCompanyFn = func(ctx context.Context, cid string) (int64, error) {
			return 120, nil
		}

		resp, err := deps.service.PlanLimit(ctx, companyID)

		assert.NoError(t, err)
		assert.True(t, resp.Unlimited)
		assert.Nil(t, resp.MaxEmployees)
		assert.Nil(t, resp.RemainingSlots)
	})
}
