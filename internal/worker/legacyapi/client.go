package legacyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PayrollClient pushes monthly attendance summaries to the payroll system.
type PayrollClient interface {
	RecordMonthlySummary(ctx context.Context, summary core.MonthlySummary) error
}

// StatusError is a non-2xx answer from the payroll API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payroll api returned non-successful status code: %d", e.StatusCode)
}

// Retryable reports whether the payroll API might accept the same request later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SummaryPayload is the body the payroll API expects.
type SummaryPayload struct {
	EmployeeID          string          `json:"employeeId"`
	Period              string          `json:"period"`
	PresentDays         int             `json:"presentDays"`
	AbsentDays          int             `json:"absentDays"`
	HolidayDays         int             `json:"holidayDays"`
	LeaveDaysWithPay    int             `json:"leaveDaysWithPay"`
	LeaveDaysWithoutPay int             `json:"leaveDaysWithoutPay"`
	WorkedHours         decimal.Decimal `json:"workedHours"`
	Labels              map[string]int  `json:"labels"`
}

// HTTPClient API client using HTTP
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

// IdempotencyKey identifies one employee-month so a replayed sync overwrites
// instead of duplicating.
func IdempotencyKey(s core.MonthlySummary) string {
	return fmt.Sprintf("%s-%04d-%02d", s.EmployeeID, s.Year, int(s.Month))
}

func NewSummaryPayload(s core.MonthlySummary) SummaryPayload {
	return SummaryPayload{
		EmployeeID:          s.EmployeeID,
		Period:              fmt.Sprintf("%04d-%02d", s.Year, int(s.Month)),
		PresentDays:         s.PresentDays,
		AbsentDays:          s.AbsentDays,
		HolidayDays:         s.HolidayDays,
		LeaveDaysWithPay:    s.LeaveDaysWithPay,
		LeaveDaysWithoutPay: s.LeaveDaysWithoutPay,
		WorkedHours:         s.WorkedHours,
		Labels:              s.Labels,
	}
}

func (c *HTTPClient) RecordMonthlySummary(ctx context.Context, summary core.MonthlySummary) error {
	payload, err := json.Marshal(NewSummaryPayload(summary))
	if err != nil {
		return fmt.Errorf("failed to marshal payroll api payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create payroll api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", IdempotencyKey(summary))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	log.Ctx(ctx).Info().Str("employee_id", summary.EmployeeID).Str("idempotency_key", IdempotencyKey(summary)).Msg("Monthly summary recorded in payroll system")
	return nil
}
