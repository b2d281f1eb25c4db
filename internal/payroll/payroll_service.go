package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-hrpay/internal/events"
	"go-hrpay/internal/messaging/kafka"
	payrollerrors "go-hrpay/internal/payroll/errors"
	"go-hrpay/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock
type Service interface {
	Generate(ctx context.Context, companyID, actorID string, req GeneratePayrollRequest) (GeneratePayrollResponse, error)
	GetAllPeriods(ctx context.Context, companyID string) ([]PayrollPeriodResponse, error)
	GetPayrollsByPeriod(ctx context.Context, companyID, periodID string) ([]PayrollResponse, error)
	PeriodStats(ctx context.Context, companyID, periodID string) (PeriodStatsResponse, error)
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
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{db: db, repo: repo, outbox: outboxRepo, logger: l}
}

// Generate produces one payroll row per active employee for the given
// month and closes the period. The period row is locked for the whole
// run, so only one generation per period can make progress; an already
// processed period is refused.
func (s *service) Generate(ctx context.Context, companyID, actorID string, req GeneratePayrollRequest) (GeneratePayrollResponse, error) {
	s.logger.Debug("generate payroll requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return GeneratePayrollResponse{}, payrollerrors.ErrInvalidCompanyID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return GeneratePayrollResponse{}, payrollerrors.ErrInvalidActorID
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2100 {
		return GeneratePayrollResponse{}, payrollerrors.ErrInvalidPeriod
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("generate payroll begin tx failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	startDate, endDate := PeriodBounds(req.Month, req.Year)
	period, err := qtx.GetOrCreatePeriod(ctx, companyID, req.Month, req.Year, startDate, endDate)
	if err != nil {
		s.logger.Error("generate payroll period get-or-create failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}

	// Take the per-period lock before looking at is_processed; racing
	// generations queue up here and see the winner's flag.
	period, err = qtx.LockPeriod(ctx, companyID, period.ID.String())
	if err != nil {
		s.logger.Error("generate payroll period lock failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}
	if period.IsProcessed {
		s.logger.Warn("generate payroll period already processed",
			zap.String("period_id", period.ID.String()),
			zap.Int("month", req.Month),
			zap.Int("year", req.Year),
		)
		return GeneratePayrollResponse{}, payrollerrors.ErrPeriodAlreadyProcessed
	}

	employees, err := qtx.ListActiveEmployees(ctx, companyID)
	if err != nil {
		s.logger.Error("generate payroll list employees failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}

	count := 0
	for i := range employees {
		if _, err := s.generateOne(ctx, qtx, companyUUID, createdByUUID, &employees[i], period); err != nil {
			s.logger.Error("generate payroll employee failed",
				zap.String("employee_id", employees[i].ID.String()),
				zap.Error(err),
			)
			return GeneratePayrollResponse{}, err
		}
		count++
	}

	now := time.Now().UTC()
	marked, err := qtx.MarkPeriodProcessed(ctx, companyID, period.ID.String(), now)
	if err != nil {
		s.logger.Error("generate payroll mark processed failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}
	if !marked {
		return GeneratePayrollResponse{}, payrollerrors.ErrPeriodAlreadyProcessed
	}
	period.IsProcessed = true
	period.ProcessedAt = &now

	if s.outbox != nil {
		if err := s.enqueueGeneratedEvent(ctx, tx, period, count); err != nil {
			s.logger.Error("generate payroll outbox enqueue failed", zap.Error(err))
			return GeneratePayrollResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("generate payroll commit failed", zap.Error(err))
		return GeneratePayrollResponse{}, err
	}
	s.logger.Info("generate payroll success",
		zap.String("period_id", period.ID.String()),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("generated_count", count),
	)

	return GeneratePayrollResponse{
		Period:         mapPeriodToResponse(*period),
		GeneratedCount: count,
	}, nil
}

// generateOne is idempotent on the (employee, period) pair: an existing
// row is returned untouched, and losing a concurrent insert race falls
// back to reading the winner's row.
func (s *service) generateOne(
	ctx context.Context,
	qtx Repository,
	companyUUID, createdByUUID uuid.UUID,
	emp *PayrollEmployee,
	period *PayrollPeriod,
) (*Payroll, error) {
	companyID := companyUUID.String()
	employeeID := emp.ID.String()
	periodID := period.ID.String()

	existing, err := qtx.FindPayroll(ctx, companyID, employeeID, periodID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	taxDeduction := CalculateTax(emp.BaseSalary)
	leaveDeduction, err := s.calculateLeaveDeduction(ctx, qtx, companyID, employeeID, emp.BaseSalary, period.Year, period.Month)
	if err != nil {
		return nil, err
	}
	var allowances int64 // fixed at zero; meal/transport extensions live here
	netSalary := CalculateNetSalary(emp.BaseSalary, taxDeduction, leaveDeduction, allowances)

	payroll := &Payroll{
		ID:              uuid.New(),
		CompanyID:       companyUUID,
		EmployeeID:      emp.ID,
		PayrollPeriodID: period.ID,
		BaseSalary:      emp.BaseSalary,
		TaxDeduction:    taxDeduction,
		LeaveDeduction:  leaveDeduction,
		Allowances:      allowances,
		NetSalary:       netSalary,
		CreatedBy:       createdByUUID,
	}

	if err := qtx.CreatePayroll(ctx, payroll); err != nil {
		if isUniqueViolation(err) {
			return qtx.FindPayroll(ctx, companyID, employeeID, periodID)
		}
		return nil, err
	}

	return payroll, nil
}

// calculateLeaveDeduction looks up the year's quota and charges the
// cumulative excess. The month argument is accepted for parity with the
// period being generated but does not narrow the calculation.
func (s *service) calculateLeaveDeduction(
	ctx context.Context,
	qtx Repository,
	companyID, employeeID string,
	baseSalary int64,
	year, _ int,
) (int64, error) {
	snapshot, err := qtx.FindQuotaSnapshot(ctx, companyID, employeeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return CalculateLeaveDeduction(snapshot.TotalDays, snapshot.UsedDays, baseSalary), nil
}

func (s *service) GetAllPeriods(ctx context.Context, companyID string) ([]PayrollPeriodResponse, error) {
	periods, err := s.repo.FindAllPeriodsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]PayrollPeriodResponse, len(periods))
	for i, p := range periods {
		resp[i] = mapPeriodToResponse(p)
	}
	return resp, nil
}

func (s *service) GetPayrollsByPeriod(ctx context.Context, companyID, periodID string) ([]PayrollResponse, error) {
	if _, err := s.repo.FindPeriodByIDAndCompany(ctx, companyID, periodID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollerrors.ErrPeriodNotFound
		}
		return nil, err
	}

	payrolls, err := s.repo.FindAllByPeriod(ctx, companyID, periodID)
	if err != nil {
		return nil, err
	}

	resp := make([]PayrollResponse, len(payrolls))
	for i, p := range payrolls {
		resp[i] = mapPayrollToResponse(p)
	}
	return resp, nil
}

func (s *service) PeriodStats(ctx context.Context, companyID, periodID string) (PeriodStatsResponse, error) {
	if _, err := s.repo.FindPeriodByIDAndCompany(ctx, companyID, periodID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PeriodStatsResponse{}, payrollerrors.ErrPeriodNotFound
		}
		return PeriodStatsResponse{}, err
	}

	stats, err := s.repo.StatsByPeriod(ctx, companyID, periodID)
	if err != nil {
		return PeriodStatsResponse{}, err
	}

	return PeriodStatsResponse{
		PeriodID:            periodID,
		TotalEmployees:      stats.TotalEmployees,
		TotalBaseSalary:     stats.TotalBaseSalary,
		TotalTaxDeduction:   stats.TotalTaxDeduction,
		TotalLeaveDeduction: stats.TotalLeaveDeduction,
		TotalAllowances:     stats.TotalAllowances,
		TotalNetSalary:      stats.TotalNetSalary,
	}, nil
}

func (s *service) enqueueGeneratedEvent(ctx context.Context, tx *sql.Tx, period *PayrollPeriod, count int) error {
	event := events.PayrollGeneratedEvent{
		EventType:      events.PayrollGeneratedEventType,
		PeriodID:       period.ID.String(),
		CompanyID:      period.CompanyID.String(),
		Month:          period.Month,
		Year:           period.Year,
		GeneratedCount: count,
		OccurredAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_period",
		AggregateID:   period.ID.String(),
		EventType:     events.PayrollGeneratedEventType,
		Topic:         events.PayrollLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}

func mapPeriodToResponse(p PayrollPeriod) PayrollPeriodResponse {
	resp := PayrollPeriodResponse{
		ID:          p.ID.String(),
		CompanyID:   p.CompanyID.String(),
		Month:       p.Month,
		Year:        p.Year,
		Label:       p.Label(),
		StartDate:   p.StartDate.Format("2006-01-02"),
		EndDate:     p.EndDate.Format("2006-01-02"),
		IsProcessed: p.IsProcessed,
	}
	if p.ProcessedAt != nil {
		v := p.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &v
	}
	return resp
}

func mapPayrollToResponse(p Payroll) PayrollResponse {
	return PayrollResponse{
		ID:              p.ID.String(),
		CompanyID:       p.CompanyID.String(),
		EmployeeID:      p.EmployeeID.String(),
		PayrollPeriodID: p.PayrollPeriodID.String(),
		BaseSalary:      p.BaseSalary,
		TaxDeduction:    p.TaxDeduction,
		LeaveDeduction:  p.LeaveDeduction,
		Allowances:      p.Allowances,
		NetSalary:       p.NetSalary,
		CreatedBy:       p.CreatedBy.String(),
	}
}
