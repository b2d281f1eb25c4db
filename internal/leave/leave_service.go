package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-hrpay/internal/events"
	leaveerrors "go-hrpay/internal/leave/errors"
	"go-hrpay/internal/messaging/kafka"
	"go-hrpay/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	GetAll(ctx context.Context, companyID string) ([]LeaveRequestResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, companyID, actorID, id string, notes *string) (LeaveRequestResponse, error)
	Stats(ctx context.Context, companyID, employeeID string, year int) (LeaveStatsResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, logger...)
}

func NewServiceWithOutbox(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, logger: l}
}

// Submit derives the working-day count, verifies the year's balance and
// persists a pending request. An insufficient balance rejects the
// submission outright: no row is written.
func (s *service) Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, employeeUUID, createdByUUID, startDate, endDate, err := validateSubmitRequest(companyID, actorID, req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	belongs, err := qtx.EmployeeBelongsToCompany(ctx, companyID, req.EmployeeID)
	if err != nil {
		s.logger.Error("submit leave employee company check failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !belongs {
		return LeaveRequestResponse{}, leaveerrors.ErrEmployeeNotInCompany
	}

	daysCount := CalculateDaysCount(startDate, endDate)

	quota, err := qtx.GetOrCreateQuota(ctx, companyID, req.EmployeeID, startDate.Year())
	if err != nil {
		s.logger.Error("submit leave quota lookup failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !quota.HasEnoughDays(daysCount) {
		s.logger.Warn("submit leave insufficient balance",
			zap.String("employee_id", req.EmployeeID),
			zap.Int("requested_days", daysCount),
			zap.Int("remaining_days", quota.RemainingDays()),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	request := &LeaveRequest{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		StartDate:  startDate,
		EndDate:    endDate,
		DaysCount:  daysCount,
		Reason:     req.Reason,
		Status:     StatusPending,
		CreatedBy:  createdByUUID,
	}

	if err := qtx.CreateRequest(ctx, request); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("submit leave success",
		zap.String("request_id", request.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("days_count", daysCount),
	)

	return mapToResponse(*request), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]LeaveRequestResponse, error) {
	requests, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error) {
	request, err := s.repo.FindRequestByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*request), nil
}

// Approve re-validates the balance at approval time under a row lock and
// commits the quota increment and the status flip as one transaction.
// A non-pending request fails without touching either row.
func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (LeaveRequestResponse, error) {
	s.logger.Debug("approve leave requested",
		zap.String("request_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindRequestByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if !request.IsPending() {
		s.logger.Warn("approve leave request not pending",
			zap.String("request_id", id),
			zap.String("status", request.Status),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrRequestNotPending
	}

	year := request.StartDate.Year()
	employeeID := request.EmployeeID.String()

	// Ensure the row exists, then take the lock. Approvals racing on the
	// same balance serialize here.
	if _, err := qtx.GetOrCreateQuota(ctx, companyID, employeeID, year); err != nil {
		s.logger.Error("approve leave quota get-or-create failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	quota, err := qtx.LockQuota(ctx, companyID, employeeID, year)
	if err != nil {
		s.logger.Error("approve leave quota lock failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if !quota.HasEnoughDays(request.DaysCount) {
		s.logger.Warn("approve leave insufficient balance at approval time",
			zap.String("request_id", id),
			zap.Int("days_count", request.DaysCount),
			zap.Int("remaining_days", quota.RemainingDays()),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInsufficientBalance
	}

	quota.UsedDays += request.DaysCount
	if err := qtx.UpdateQuota(ctx, quota); err != nil {
		s.logger.Error("approve leave quota update failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()
	request.Status = StatusApproved
	request.ProcessedAt = &now
	if err := qtx.UpdateRequest(ctx, request); err != nil {
		s.logger.Error("approve leave request update failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if s.outbox != nil {
		if err := s.enqueueApprovedEvent(ctx, tx, request); err != nil {
			s.logger.Error("approve leave outbox enqueue failed", zap.Error(err))
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("approve leave success",
		zap.String("request_id", id),
		zap.Int("days_count", request.DaysCount),
		zap.Int("used_days", quota.UsedDays),
	)

	return mapToResponse(*request), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id string, notes *string) (LeaveRequestResponse, error) {
	s.logger.Debug("reject leave requested",
		zap.String("request_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindRequestByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if !request.IsPending() {
		return LeaveRequestResponse{}, leaveerrors.ErrRequestNotPending
	}

	now := time.Now().UTC()
	request.Status = StatusRejected
	request.Notes = notes
	request.ProcessedAt = &now

	if err := qtx.UpdateRequest(ctx, request); err != nil {
		s.logger.Error("reject leave request update failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("reject leave success", zap.String("request_id", id))

	return mapToResponse(*request), nil
}

func (s *service) Stats(ctx context.Context, companyID, employeeID string, year int) (LeaveStatsResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return LeaveStatsResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	quota, err := s.repo.GetOrCreateQuota(ctx, companyID, employeeID, year)
	if err != nil {
		return LeaveStatsResponse{}, err
	}

	pending, err := s.repo.CountPendingRequests(ctx, companyID, employeeID)
	if err != nil {
		return LeaveStatsResponse{}, err
	}
	approved, err := s.repo.CountApprovedRequestsInYear(ctx, companyID, employeeID, year)
	if err != nil {
		return LeaveStatsResponse{}, err
	}

	return LeaveStatsResponse{
		EmployeeID:       employeeID,
		Year:             year,
		TotalDays:        quota.TotalDays,
		UsedDays:         quota.UsedDays,
		RemainingDays:    quota.RemainingDays(),
		PendingRequests:  pending,
		ApprovedRequests: approved,
	}, nil
}

func (s *service) enqueueApprovedEvent(ctx context.Context, tx *sql.Tx, request *LeaveRequest) error {
	event := events.LeaveApprovedEvent{
		EventType:  events.LeaveApprovedEventType,
		RequestID:  request.ID.String(),
		EmployeeID: request.EmployeeID.String(),
		CompanyID:  request.CompanyID.String(),
		DaysCount:  request.DaysCount,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   request.ID.String(),
		EventType:     events.LeaveApprovedEventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func validateSubmitRequest(companyID, actorID string, req SubmitLeaveRequest) (uuid.UUID, uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidEmployeeID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return companyUUID, employeeUUID, createdByUUID, startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:         r.ID.String(),
		CompanyID:  r.CompanyID.String(),
		EmployeeID: r.EmployeeID.String(),
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		DaysCount:  r.DaysCount,
		Reason:     r.Reason,
		Status:     r.Status,
		Notes:      r.Notes,
		CreatedBy:  r.CreatedBy.String(),
	}
	if r.ProcessedAt != nil {
		v := r.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &v
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapToResponse(r)
	}
	return resp
}
