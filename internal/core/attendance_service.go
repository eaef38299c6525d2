package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("attendance-service")

type AttendanceService struct {
	classifier *Classifier
	roster     *Roster
	producer   messaging.Publisher
}

// NewAttendanceService wires the classifier straight to the repositories for
// single-day lookups and a roster for month views, which preload instead.
func NewAttendanceService(repos repository.Repositories, p messaging.Publisher, gridConcurrency int) *AttendanceService {
	return &AttendanceService{
		classifier: NewClassifier(repos.Schedules, repos.Holidays, repos.Leaves, repos.Punches),
		roster:     NewRoster(repos, gridConcurrency),
		producer:   p,
	}
}

// ClassifyDay is the status of one employee on one date.
func (s *AttendanceService) ClassifyDay(ctx context.Context, employeeID string, date time.Time) (model.AttendanceStatus, error) {
	ctx, span := tracer.Start(ctx, "classify_day", trace.WithAttributes(
		attribute.String("app.employeeId", employeeID),
		attribute.String("app.date", model.DateKey(date)),
	))
	defer span.End()

	status, err := s.classifier.Classify(ctx, employeeID, date)
	if err != nil {
		span.RecordError(err)
		return model.AttendanceStatus{}, err
	}
	span.SetAttributes(attribute.String("app.status", status.Label()))
	return status, nil
}

// MonthGrid classifies every day of the month for each employee.
func (s *AttendanceService) MonthGrid(ctx context.Context, employeeIDs []string, year int, month time.Month) (*Grid, error) {
	if len(employeeIDs) == 0 {
		return nil, ErrInvalidEmployeeID
	}
	ctx, span := tracer.Start(ctx, "month_grid", trace.WithAttributes(
		attribute.Int("app.employees", len(employeeIDs)),
		attribute.Int("app.year", year),
		attribute.Int("app.month", int(month)),
	))
	defer span.End()

	grid, err := s.roster.ClassifyMonth(ctx, employeeIDs, year, month)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("app.cell_errors", len(grid.Errors)))
	return grid, nil
}

// MonthlySummary rolls up one employee's month.
func (s *AttendanceService) MonthlySummary(ctx context.Context, employeeID string, year int, month time.Month) (MonthlySummary, error) {
	if employeeID == "" {
		return MonthlySummary{}, ErrInvalidEmployeeID
	}
	grid, err := s.MonthGrid(ctx, []string{employeeID}, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	return Summarize(grid, employeeID), nil
}

// RequestPayrollSync queues one sync job per employee for the payroll worker.
func (s *AttendanceService) RequestPayrollSync(ctx context.Context, employeeIDs []string, year int, month time.Month) (int, error) {
	if len(employeeIDs) == 0 {
		return 0, ErrInvalidEmployeeID
	}
	if _, _, err := MonthRange(year, month); err != nil {
		return 0, err
	}

	queued := 0
	for _, emp := range employeeIDs {
		event := messaging.PayrollSyncEvent{
			EmployeeID:  emp,
			Year:        year,
			Month:       int(month),
			RequestedAt: time.Now().UTC(),
		}
		if err := s.producer.PublishPayroll(ctx, event); err != nil {
			return queued, fmt.Errorf("failed to publish payroll sync for %s: %w", emp, err)
		}
		queued++
	}

	log.Ctx(ctx).Info().Int("employees", queued).Int("year", year).Int("month", int(month)).Msg("Payroll sync queued")
	return queued, nil
}
