package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/biometric"
	"attendance.service/internal/core/model"
	"github.com/rs/zerolog/log"
)

// AttendanceService is what the attendance endpoints need from the core.
type AttendanceService interface {
	ClassifyDay(ctx context.Context, employeeID string, date time.Time) (model.AttendanceStatus, error)
	MonthGrid(ctx context.Context, employeeIDs []string, year int, month time.Month) (*core.Grid, error)
	MonthlySummary(ctx context.Context, employeeID string, year int, month time.Month) (core.MonthlySummary, error)
	RequestPayrollSync(ctx context.Context, employeeIDs []string, year int, month time.Month) (int, error)
}

// ImportService is what the import endpoints need from the core.
type ImportService interface {
	Preview(ctx context.Context, r io.Reader, filename string, opts biometric.Options) (core.ImportPreview, error)
	Confirm(ctx context.Context, batchID string, records []model.PunchRecord) (core.ImportReceipt, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized is
// logged and reported as a 500 without its details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrScheduleIntegrity):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidEmployeeID),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrNothingToImport),
		errors.Is(err, biometric.ErrMissingImportHeader),
		errors.Is(err, biometric.ErrInvalidTarget),
		errors.Is(err, biometric.ErrUnsupportedFormat),
		errors.Is(err, biometric.ErrUnreadableExport):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
