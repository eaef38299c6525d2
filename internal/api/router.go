package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(attendance handler.AttendanceService, imports handler.ImportService) *mux.Router {
	attendanceHandler := handler.AttendanceHandler{Service: attendance}
	importHandler := handler.ImportHandler{Service: imports}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/employees/{employeeId}/attendance/{date}", attendanceHandler.GetDayStatus).Methods(http.MethodGet)
	api.HandleFunc("/employees/{employeeId}/attendance-summary", attendanceHandler.GetMonthlySummary).Methods(http.MethodGet)
	api.HandleFunc("/attendance/grid", attendanceHandler.GetMonthGrid).Methods(http.MethodGet)
	api.HandleFunc("/imports/biometric/preview", importHandler.PreviewImport).Methods(http.MethodPost)
	api.HandleFunc("/imports/biometric/confirm", importHandler.ConfirmImport).Methods(http.MethodPost)
	api.HandleFunc("/payroll/sync", attendanceHandler.RequestPayrollSync).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
