package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"attendance.service/internal/core/biometric"
	"attendance.service/internal/core/model"
)

// MaxUploadBytes bounds a biometric export upload.
const MaxUploadBytes = 20 << 20

type ImportHandler struct {
	Service ImportService
}

type ConfirmImportRequest struct {
	BatchID string              `json:"batchId"`
	Records []model.PunchRecord `json:"records"`
}

// PreviewImport handles POST /imports/biometric/preview. The multipart form
// carries the export as "file" plus "month", "year" and an optional "site".
func (h *ImportHandler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "upload is too large"})
			return
		}
		badRequest(w, "expected a multipart form")
		return
	}

	month, err := strconv.Atoi(r.FormValue("month"))
	if err != nil {
		badRequest(w, "month must be a number")
		return
	}
	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		badRequest(w, "year must be a number")
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	preview, err := h.Service.Preview(r.Context(), file, fh.Filename, biometric.Options{
		Month:        time.Month(month),
		Year:         year,
		SiteOverride: r.FormValue("site"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ConfirmImport handles POST /imports/biometric/confirm with the records the
// user accepted from a preview.
func (h *ImportHandler) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	var req ConfirmImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	receipt, err := h.Service.Confirm(r.Context(), req.BatchID, req.Records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}
