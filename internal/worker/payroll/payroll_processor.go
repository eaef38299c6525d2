package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/legacyapi"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrIncompleteMonth means some days of the month could not be classified,
// so the summary would understate attendance.
var ErrIncompleteMonth = errors.New("month has unclassified days")

// SummaryBuilder produces the monthly roll-up for one employee.
type SummaryBuilder interface {
	MonthlySummary(ctx context.Context, employeeID string, year int, month time.Month) (core.MonthlySummary, error)
}

// PayrollProcessor handles jobs from the payroll queue: it summarizes the
// requested month and pushes it to the payroll API behind a circuit breaker.
type PayrollProcessor struct {
	summaries SummaryBuilder
	client    legacyapi.PayrollClient
	cb        *gobreaker.CircuitBreaker
}

func NewProcessor(summaries SummaryBuilder, client legacyapi.PayrollClient) *PayrollProcessor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is at least 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// A rejected payload says nothing about the API's health.
			var statusErr *legacyapi.StatusError
			if errors.As(err, &statusErr) {
				return !statusErr.Retryable()
			}
			return err == nil
		},
	}

	return &PayrollProcessor{
		summaries: summaries,
		client:    client,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *PayrollProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty payroll sync message")
	}

	var event messaging.PayrollSyncEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal payroll sync event")
		return false, 0, err // Do not retry on malformed message
	}

	l := log.Ctx(ctx).With().Str("employee_id", event.EmployeeID).Int("year", event.Year).Int("month", event.Month).Logger()
	delay := worker.Backoff(worker.ReceiveCount(msg))

	summary, err := p.summaries.MonthlySummary(ctx, event.EmployeeID, event.Year, time.Month(event.Month))
	if err != nil {
		if errors.Is(err, core.ErrInvalidEmployeeID) || errors.Is(err, core.ErrInvalidPeriod) {
			return false, 0, err
		}
		return true, delay, fmt.Errorf("failed to build monthly summary: %w", err)
	}
	if summary.UnclassifiedDays > 0 {
		l.Error().Int("unclassified_days", summary.UnclassifiedDays).Msg("Refusing to sync an incomplete month")
		return false, 0, fmt.Errorf("%w: %d days", ErrIncompleteMonth, summary.UnclassifiedDays)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.client.RecordMonthlySummary(ctx, summary)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			l.Warn().Msg("Circuit breaker is open; skipping payroll API call")
			return true, delay, err
		}
		var statusErr *legacyapi.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return false, 0, err
		}
		return true, delay, err
	}

	l.Info().Int("present_days", summary.PresentDays).Str("worked_hours", summary.WorkedHours.String()).Msg("Payroll sync completed")
	return false, 0, nil
}
