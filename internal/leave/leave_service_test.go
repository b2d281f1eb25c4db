package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-hrpay/internal/leave"
	leaveerrors "go-hrpay/internal/leave/errors"
	"go-hrpay/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn                    func(tx *sql.Tx) leave.Repository
	getOrCreateQuotaFn          func(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error)
	findQuotaFn                 func(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error)
	lockQuotaFn                 func(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error)
	updateQuotaFn               func(ctx context.Context, quota *leave.LeaveQuota) error
	createRequestFn             func(ctx context.Context, req *leave.LeaveRequest) error
	findAllByCompanyFn          func(ctx context.Context, companyID string) ([]leave.LeaveRequest, error)
	findRequestByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error)
	updateRequestFn             func(ctx context.Context, req *leave.LeaveRequest) error
	employeeBelongsToCompanyFn  func(ctx context.Context, companyID, employeeID string) (bool, error)
	countPendingFn              func(ctx context.Context, companyID, employeeID string) (int64, error)
	countApprovedInYearFn       func(ctx context.Context, companyID, employeeID string, year int) (int64, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) GetOrCreateQuota(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error) {
	if f.getOrCreateQuotaFn != nil {
		return f.getOrCreateQuotaFn(ctx, companyID, employeeID, year)
	}
	return &leave.LeaveQuota{TotalDays: leave.DefaultTotalDays}, nil
}

func (f *fakeLeaveRepository) FindQuota(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error) {
	if f.findQuotaFn != nil {
		return f.findQuotaFn(ctx, companyID, employeeID, year)
	}
	return &leave.LeaveQuota{TotalDays: leave.DefaultTotalDays}, nil
}

func (f *fakeLeaveRepository) LockQuota(ctx context.Context, companyID, employeeID string, year int) (*leave.LeaveQuota, error) {
	if f.lockQuotaFn != nil {
		return f.lockQuotaFn(ctx, companyID, employeeID, year)
	}
	return &leave.LeaveQuota{TotalDays: leave.DefaultTotalDays}, nil
}

func (f *fakeLeaveRepository) UpdateQuota(ctx context.Context, quota *leave.LeaveQuota) error {
	if f.updateQuotaFn != nil {
		return f.updateQuotaFn(ctx, quota)
	}
	return nil
}

func (f *fakeLeaveRepository) CreateRequest(ctx context.Context, req *leave.LeaveRequest) error {
	if f.createRequestFn != nil {
		return f.createRequestFn(ctx, req)
	}
	return nil
}

func (f *fakeLeaveRepository) FindAllByCompany(ctx context.Context, companyID string) ([]leave.LeaveRequest, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindRequestByIDAndCompany(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error) {
	if f.findRequestByIDAndCompanyFn != nil {
		return f.findRequestByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) UpdateRequest(ctx context.Context, req *leave.LeaveRequest) error {
	if f.updateRequestFn != nil {
		return f.updateRequestFn(ctx, req)
	}
	return nil
}

func (f *fakeLeaveRepository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	if f.employeeBelongsToCompanyFn != nil {
		return f.employeeBelongsToCompanyFn(ctx, companyID, employeeID)
	}
	return true, nil
}

func (f *fakeLeaveRepository) CountPendingRequests(ctx context.Context, companyID, employeeID string) (int64, error) {
	if f.countPendingFn != nil {
		return f.countPendingFn(ctx, companyID, employeeID)
	}
	return 0, nil
}

func (f *fakeLeaveRepository) CountApprovedRequestsInYear(ctx context.Context, companyID, employeeID string, year int) (int64, error) {
	if f.countApprovedInYearFn != nil {
		return f.countApprovedInYearFn(ctx, companyID, employeeID, year)
	}
	return 0, nil
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

type leaveServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leave.Service
	repo    *fakeLeaveRepository
	outbox  *fakeOutboxRepository
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	outbox := &fakeOutboxRepository{}
	svc := leave.NewServiceWithOutbox(db, repo, outbox)

	return &leaveServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo, outbox: outbox}
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

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success creates pending request with weekday count", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.getOrCreateQuotaFn = func(ctx context.Context, cid, eid string, year int) (*leave.LeaveQuota, error) {
			assert.Equal(t, 2026, year)
			return &leave.LeaveQuota{TotalDays: 12, UsedDays: 4}, nil
		}
		var created *leave.LeaveRequest
		deps.repo.createRequestFn = func(ctx context.Context, req *leave.LeaveRequest) error {
			created = req
			return nil
		}

		resp, err := deps.service.Submit(ctx, companyID, actorID, leave.SubmitLeaveRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-02-16",
			EndDate:    "2026-02-22",
			Reason:     "family matters",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, 5, resp.DaysCount)
		assert.NotNil(t, created)
		assert.Equal(t, actorID, created.CreatedBy.String())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.getOrCreateQuotaFn = func(ctx context.Context, cid, eid string, year int) (*leave.LeaveQuota, error) {
			return &leave.LeaveQuota{TotalDays: 12, UsedDays: 10}, nil
		}
		deps.repo.createRequestFn = func(ctx context.Context, req *leave.LeaveRequest) error {
			t.Fatal("request must not be persisted")
			return nil
		}

		_, err := deps.service.Submit(ctx, companyID, actorID, leave.SubmitLeaveRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-02-16",
			EndDate:    "2026-02-20",
			Reason:     "vacation",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("employee outside company is rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.employeeBelongsToCompanyFn = func(ctx context.Context, cid, eid string) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Submit(ctx, companyID, actorID, leave.SubmitLeaveRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-02-16",
			EndDate:    "2026-02-20",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotInCompany)
	})

	t.Run("start after end is rejected before any query", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, companyID, actorID, leave.SubmitLeaveRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-02-20",
			EndDate:    "2026-02-16",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()
	employeeID := uuid.New()

	pendingRequest := func() *leave.LeaveRequest {
		return &leave.LeaveRequest{
			ID:         uuid.MustParse(requestID),
			CompanyID:  uuid.MustParse(companyID),
			EmployeeID: employeeID,
			StartDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
			DaysCount:  5,
			Status:     leave.StatusPending,
		}
	}

	t.Run("success deducts quota and flips status atomically", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findRequestByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return pendingRequest(), nil
		}
		deps.repo.lockQuotaFn = func(ctx context.Context, cid, eid string, year int) (*leave.LeaveQuota, error) {
			assert.Equal(t, 2026, year)
			return &leave.LeaveQuota{TotalDays: 12, UsedDays: 3}, nil
		}
		var savedQuota *leave.LeaveQuota
		deps.repo.updateQuotaFn = func(ctx context.Context, quota *leave.LeaveQuota) error {
			savedQuota = quota
			return nil
		}
		var outboxEvent *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			outboxEvent = &event
			return nil
		}

		resp, err := deps.service.Approve(ctx, companyID, actorID, requestID)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NotNil(t, resp.ProcessedAt)
		assert.NotNil(t, savedQuota)
		assert.Equal(t, 8, savedQuota.UsedDays)
		assert.NotNil(t, outboxEvent)
		assert.Equal(t, "leave.approved", outboxEvent.EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("non-pending request is refused untouched", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findRequestByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			req := pendingRequest()
			req.Status = leave.StatusApproved
			return req, nil
		}
		deps.repo.updateQuotaFn = func(ctx context.Context, quota *leave.LeaveQuota) error {
			t.Fatal("quota must not change")
			return nil
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)

		assert.ErrorIs(t, err, leaveerrors.ErrRequestNotPending)
	})

	t.Run("balance re-checked at approval time", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findRequestByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return pendingRequest(), nil
		}
		deps.repo.lockQuotaFn = func(ctx context.Context, cid, eid string, year int) (*leave.LeaveQuota, error) {
			// Another approval consumed the balance since submission.
			return &leave.LeaveQuota{TotalDays: 12, UsedDays: 10}, nil
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	})

	t.Run("missing request maps to not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findRequestByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)

		assert.ErrorIs(t, err, leaveerrors.ErrRequestNotFound)
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()

	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)
	deps.repo.findRequestByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
		return &leave.LeaveRequest{
			ID:        uuid.MustParse(requestID),
			CompanyID: uuid.MustParse(companyID),
			StartDate: time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
			DaysCount: 5,
			Status:    leave.StatusPending,
		}, nil
	}
	deps.repo.updateQuotaFn = func(ctx context.Context, quota *leave.LeaveQuota) error {
		t.Fatal("reject must not touch the quota")
		return nil
	}

	notes := "headcount too low that week"
	resp, err := deps.service.Reject(ctx, companyID, actorID, requestID, &notes)

	assert.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, resp.Status)
	assert.NotNil(t, resp.Notes)
	assert.Equal(t, notes, *resp.Notes)
	assert.NotNil(t, resp.ProcessedAt)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestLeaveService_Stats(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	deps.repo.getOrCreateQuotaFn = func(ctx context.Context, cid, eid string, year int) (*leave.LeaveQuota, error) {
		assert.Equal(t, 2026, year)
		return &leave.LeaveQuota{TotalDays: 12, UsedDays: 7}, nil
	}
	deps.repo.countPendingFn = func(ctx context.Context, cid, eid string) (int64, error) {
		return 2, nil
	}
	deps.repo.countApprovedInYearFn = func(ctx context.Context, cid, eid string, year int) (int64, error) {
		return 3, nil
	}

	resp, err := deps.service.Stats(ctx, companyID, employeeID, 2026)

	assert.NoError(t, err)
	assert.Equal(t, 12, resp.TotalDays)
	assert.Equal(t, 7, resp.UsedDays)
	assert.Equal(t, 5, resp.RemainingDays)
	assert.Equal(t, int64(2), resp.PendingRequests)
	assert.Equal(t, int64(3), resp.ApprovedRequests)
}
