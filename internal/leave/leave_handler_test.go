package leave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-hrpay/internal/leave"
	leaveerrors "go-hrpay/internal/leave/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeLeaveService struct {
	SubmitFn  func(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error)
	GetAllFn  func(ctx context.Context, companyID string) ([]leave.LeaveRequestResponse, error)
	GetByIDFn func(ctx context.Context, companyID, id string) (leave.LeaveRequestResponse, error)
	ApproveFn func(ctx context.Context, companyID, actorID, id string) (leave.LeaveRequestResponse, error)
	RejectFn  func(ctx context.Context, companyID, actorID, id string, notes *string) (leave.LeaveRequestResponse, error)
	StatsFn   func(ctx context.Context, companyID, employeeID string, year int) (leave.LeaveStatsResponse, error)
}

func (f *fakeLeaveService) Submit(ctx context.Context, cid, aid string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	return f.SubmitFn(ctx, cid, aid, req)
}

func (f *fakeLeaveService) GetAll(ctx context.Context, cid string) ([]leave.LeaveRequestResponse, error) {
	return f.GetAllFn(ctx, cid)
}

func (f *fakeLeaveService) GetByID(ctx context.Context, cid, id string) (leave.LeaveRequestResponse, error) {
	return f.GetByIDFn(ctx, cid, id)
}

func (f *fakeLeaveService) Approve(ctx context.Context, cid, aid, id string) (leave.LeaveRequestResponse, error) {
	return f.ApproveFn(ctx, cid, aid, id)
}

func (f *fakeLeaveService) Reject(ctx context.Context, cid, aid, id string, notes *string) (leave.LeaveRequestResponse, error) {
	return f.RejectFn(ctx, cid, aid, id, notes)
}

func (f *fakeLeaveService) Stats(ctx context.Context, cid, eid string, year int) (leave.LeaveStatsResponse, error) {
	return f.StatsFn(ctx, cid, eid, year)
}

func setupHandler(svc leave.Service) *leave.Handler {
	return leave.NewHandler(svc, zap.NewNop())
}

func TestLeaveHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		companyID := uuid.New().String()
		actorID := uuid.New().String()

		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, cid, aid string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, actorID, aid)
				return leave.LeaveRequestResponse{
					ID:        uuid.New().String(),
					Status:    leave.StatusPending,
					DaysCount: 5,
				}, nil
			},
		}

		h := setupHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"employee_id":"` + uuid.New().String() + `","start_date":"2026-02-16","end_date":"2026-02-20","reason":"vacation"}`
		req := httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", companyID)
		c.Set("employee_id", actorID)

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), leave.StatusPending)
	})

	t.Run("missing employee_id fails validation", func(t *testing.T) {
		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, cid, aid string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
				t.Fatal("service must not be called on a bad body")
				return leave.LeaveRequestResponse{}, nil
			},
		}

		h := setupHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"start_date":"2026-02-16","end_date":"2026-02-20"}`
		req := httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("insufficient balance surfaces the error code", func(t *testing.T) {
		svc := &fakeLeaveService{
			SubmitFn: func(ctx context.Context, cid, aid string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
				return leave.LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
			},
		}

		h := setupHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"employee_id":"` + uuid.New().String() + `","start_date":"2026-02-16","end_date":"2026-02-20"}`
		req := httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Set("company_id", uuid.New().String())
		c.Set("employee_id", uuid.New().String())

		h.Submit(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_LEAVE_BALANCE")
	})
}

func TestLeaveHandler_Approve(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("falls back to user id when actor has no employee link", func(t *testing.T) {
		companyID := uuid.New().String()
		userID := uuid.New().String()
		requestID := uuid.New().String()

		svc := &fakeLeaveService{
			ApproveFn: func(ctx context.Context, cid, aid, id string) (leave.LeaveRequestResponse, error) {
				assert.Equal(t, userID, aid)
				assert.Equal(t, requestID, id)
				return leave.LeaveRequestResponse{ID: id, Status: leave.StatusApproved}, nil
			},
		}

		h := setupHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/leave-requests/"+requestID+"/approve", nil)
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: requestID}}
		c.Set("company_id", companyID)
		c.Set("user_id_validated", userID)

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), leave.StatusApproved)
	})

	t.Run("not pending maps to conflict", func(t *testing.T) {
		svc := &fakeLeaveService{
			ApproveFn: func(ctx context.Context, cid, aid, id string) (leave.LeaveRequestResponse, error) {
				return leave.LeaveRequestResponse{}, leaveerrors.ErrRequestNotPending
			},
		}

		h := setupHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		requestID := uuid.New().String()
		req := httptest.NewRequest(http.MethodPost, "/leave-requests/"+requestID+"/approve", nil)
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: requestID}}
		c.Set("company_id", uuid.New().String())
		c.Set("employee_id", uuid.New().String())

		h.Approve(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestLeaveHandler_Stats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	svc := &fakeLeaveService{
		StatsFn: func(ctx context.Context, cid, eid string, year int) (leave.LeaveStatsResponse, error) {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, 2026, year)
			return leave.LeaveStatsResponse{
				EmployeeID:    eid,
				Year:          year,
				TotalDays:     12,
				UsedDays:      7,
				RemainingDays: 5,
			}, nil
		},
	}

	h := setupHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, "/employees/"+employeeID+"/leave-stats?year=2026", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: employeeID}}
	c.Set("company_id", companyID)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "remaining_days")
}
