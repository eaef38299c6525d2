package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/gorilla/mux"
)

type AttendanceHandler struct {
	Service AttendanceService
}

type dayStatusResponse struct {
	model.AttendanceStatus
	Label string `json:"label"`
}

type gridResponse struct {
	Year   int                            `json:"year"`
	Month  time.Month                     `json:"month"`
	Days   int                            `json:"days"`
	Labels map[string][]string            `json:"labels"`
	Rows   map[string][]dayStatusResponse `json:"rows"`
	Errors []core.CellError               `json:"errors,omitempty"`
}

type PayrollSyncRequest struct {
	EmployeeIDs []string `json:"employeeIds"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
}

// GetDayStatus handles GET /employees/{employeeId}/attendance/{date}.
func (h *AttendanceHandler) GetDayStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		badRequest(w, "date must be formatted as YYYY-MM-DD")
		return
	}

	status, err := h.Service.ClassifyDay(r.Context(), vars["employeeId"], date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dayStatusResponse{AttendanceStatus: status, Label: status.Label()})
}

// GetMonthGrid handles GET /attendance/grid?year=&month=&employeeId=.
// employeeId may repeat or hold a comma-separated list.
func (h *AttendanceHandler) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	ids := employeeIDsFromQuery(r)
	if len(ids) == 0 {
		badRequest(w, "at least one employeeId is required")
		return
	}

	grid, err := h.Service.MonthGrid(r.Context(), ids, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := gridResponse{
		Year:   grid.Year,
		Month:  grid.Month,
		Days:   grid.Days,
		Labels: make(map[string][]string, len(grid.Rows)),
		Rows:   make(map[string][]dayStatusResponse, len(grid.Rows)),
		Errors: grid.Errors,
	}
	for emp, row := range grid.Rows {
		labels := make([]string, len(row))
		statuses := make([]dayStatusResponse, len(row))
		for i, status := range row {
			labels[i] = status.Label()
			statuses[i] = dayStatusResponse{AttendanceStatus: status, Label: labels[i]}
		}
		resp.Labels[emp] = labels
		resp.Rows[emp] = statuses
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMonthlySummary handles GET /employees/{employeeId}/attendance-summary.
func (h *AttendanceHandler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.MonthlySummary(r.Context(), mux.Vars(r)["employeeId"], year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RequestPayrollSync handles POST /payroll/sync.
func (h *AttendanceHandler) RequestPayrollSync(w http.ResponseWriter, r *http.Request) {
	var req PayrollSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	queued, err := h.Service.RequestPayrollSync(r.Context(), req.EmployeeIDs, req.Year, time.Month(req.Month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "Payroll sync queued for asynchronous processing.",
		"queued":  queued,
	})
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		badRequest(w, "year must be a number")
		return 0, 0, false
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		badRequest(w, "month must be a number between 1 and 12")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func employeeIDsFromQuery(r *http.Request) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, raw := range r.URL.Query()["employeeId"] {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
