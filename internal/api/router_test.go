package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/biometric"
	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttendance struct {
	status  model.AttendanceStatus
	grid    *core.Grid
	summary core.MonthlySummary
	err     error

	gotIDs   []string
	gotDate  time.Time
	gotMonth time.Month
}

func (f *fakeAttendance) ClassifyDay(_ context.Context, employeeID string, date time.Time) (model.AttendanceStatus, error) {
	f.gotIDs, f.gotDate = []string{employeeID}, date
	return f.status, f.err
}

func (f *fakeAttendance) MonthGrid(_ context.Context, employeeIDs []string, _ int, month time.Month) (*core.Grid, error) {
	f.gotIDs, f.gotMonth = employeeIDs, month
	return f.grid, f.err
}

func (f *fakeAttendance) MonthlySummary(_ context.Context, employeeID string, year int, month time.Month) (core.MonthlySummary, error) {
	f.gotIDs, f.gotMonth = []string{employeeID}, month
	s := f.summary
	s.EmployeeID, s.Year, s.Month = employeeID, year, month
	return s, f.err
}

func (f *fakeAttendance) RequestPayrollSync(_ context.Context, employeeIDs []string, _ int, month time.Month) (int, error) {
	f.gotIDs, f.gotMonth = employeeIDs, month
	if f.err != nil {
		return 0, f.err
	}
	return len(employeeIDs), nil
}

type fakeImports struct {
	err error
	// read makes Preview parse the upload the way the real service does.
	read     bool
	filename string
	content  string
	opts     biometric.Options
	records  []model.PunchRecord
}

func (f *fakeImports) Preview(_ context.Context, r io.Reader, filename string, opts biometric.Options) (core.ImportPreview, error) {
	data, _ := io.ReadAll(r)
	f.filename, f.content, f.opts = filename, string(data), opts
	if f.err != nil {
		return core.ImportPreview{}, f.err
	}
	if f.read {
		if _, err := biometric.ReadExport(bytes.NewReader(data), filename); err != nil {
			return core.ImportPreview{}, err
		}
	}
	return core.ImportPreview{BatchID: "batch-1", Year: opts.Year, Month: opts.Month}, nil
}

func (f *fakeImports) Confirm(_ context.Context, batchID string, records []model.PunchRecord) (core.ImportReceipt, error) {
	f.records = records
	if f.err != nil {
		return core.ImportReceipt{}, f.err
	}
	return core.ImportReceipt{BatchID: batchID, Records: len(records), Chunks: 1}, nil
}

func serve(t *testing.T, att *fakeAttendance, imp *fakeImports, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(att, imp).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetDayStatus(t *testing.T) {
	att := &fakeAttendance{status: model.AttendanceStatus{EmployeeID: "e1", Date: "2025-12-25", Tag: model.TagAbsent, Holiday: true}}
	rec := serve(t, att, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/employees/e1/attendance/2025-12-25", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Holiday-Absent", body["label"])
	assert.Equal(t, "Absent", body["tag"])
	assert.Equal(t, "e1", att.gotIDs[0])
	assert.Equal(t, time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC), att.gotDate)
}

func TestGetDayStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{name: "bad date", path: "/api/v1/employees/e1/attendance/25-12-2025", want: http.StatusBadRequest},
		{name: "overlapping schedules", path: "/api/v1/employees/e1/attendance/2025-06-16", err: fmt.Errorf("classify: %w", core.ErrScheduleIntegrity), want: http.StatusConflict},
		{name: "invalid employee", path: "/api/v1/employees/e1/attendance/2025-06-16", err: core.ErrInvalidEmployeeID, want: http.StatusBadRequest},
		{name: "store failure", path: "/api/v1/employees/e1/attendance/2025-06-16", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeAttendance{err: tt.err}, &fakeImports{}, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}

func TestGetMonthGrid(t *testing.T) {
	grid := &core.Grid{
		Year: 2025, Month: time.February, Days: 2,
		Rows: map[string][]model.AttendanceStatus{
			"e1": {{Tag: model.TagFull}, {Tag: model.TagNone, Holiday: true}},
			"e2": {{Tag: model.TagOnLeave, IsWithPay: true}, {}},
		},
		Errors: []core.CellError{{EmployeeID: "e2", Date: "2025-02-02", Message: "overlap"}},
	}
	att := &fakeAttendance{grid: grid}

	rec := serve(t, att, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/grid?year=2025&month=2&employeeId=e1,e2&employeeId=e1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e1", "e2"}, att.gotIDs)
	assert.Equal(t, time.February, att.gotMonth)

	var body struct {
		Labels map[string][]string `json:"labels"`
		Errors []core.CellError    `json:"errors"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"Full", "Holiday-None"}, body.Labels["e1"])
	assert.Equal(t, []string{"OnLeave", ""}, body.Labels["e2"])
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "2025-02-02", body.Errors[0].Date)
}

func TestGetMonthGrid_BadQuery(t *testing.T) {
	for _, q := range []string{
		"year=2025&month=13&employeeId=e1",
		"year=abc&month=1&employeeId=e1",
		"year=2025&month=1",
		"year=2025&month=1&employeeId=,",
	} {
		rec := serve(t, &fakeAttendance{}, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/grid?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetMonthlySummary(t *testing.T) {
	att := &fakeAttendance{summary: core.MonthlySummary{PresentDays: 18}}
	rec := serve(t, att, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/employees/e7/attendance-summary?year=2025&month=6", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body core.MonthlySummary
	decode(t, rec, &body)
	assert.Equal(t, "e7", body.EmployeeID)
	assert.Equal(t, 18, body.PresentDays)
	assert.Equal(t, time.June, body.Month)
}

func TestRequestPayrollSync(t *testing.T) {
	att := &fakeAttendance{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/sync", bytes.NewBufferString(`{"employeeIds":["e1","e2"],"year":2025,"month":6}`))

	rec := serve(t, att, &fakeImports{}, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.EqualValues(t, 2, body["queued"])
	assert.Equal(t, time.June, att.gotMonth)

	rec = serve(t, att, &fakeImports{}, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/sync", bytes.NewBufferString("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	att.err = core.ErrInvalidPeriod
	rec = serve(t, att, &fakeImports{}, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/sync", bytes.NewBufferString(`{"employeeIds":["e1"],"year":2025,"month":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/biometric/preview", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPreviewImport(t *testing.T) {
	imp := &fakeImports{}
	req := multipartUpload(t, map[string]string{"month": "6", "year": "2025", "site": "HQ"}, "june.csv", "Name,1,2\n")

	rec := serve(t, &fakeAttendance{}, imp, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "june.csv", imp.filename)
	assert.Equal(t, "Name,1,2\n", imp.content)
	assert.Equal(t, biometric.Options{Month: time.June, Year: 2025, SiteOverride: "HQ"}, imp.opts)

	var body core.ImportPreview
	decode(t, rec, &body)
	assert.Equal(t, "batch-1", body.BatchID)
}

func TestPreviewImport_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
		err  error
	}{
		{name: "missing file", req: multipartUpload(t, map[string]string{"month": "6", "year": "2025"}, "", "")},
		{name: "missing month", req: multipartUpload(t, map[string]string{"year": "2025"}, "june.csv", "x")},
		{name: "not multipart", req: httptest.NewRequest(http.MethodPost, "/api/v1/imports/biometric/preview", bytes.NewBufferString("{}"))},
		{name: "unsupported format", req: multipartUpload(t, map[string]string{"month": "6", "year": "2025"}, "june.pdf", "x"), err: biometric.ErrUnsupportedFormat},
		{name: "no header row", req: multipartUpload(t, map[string]string{"month": "6", "year": "2025"}, "june.csv", ""), err: biometric.ErrMissingImportHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeAttendance{}, &fakeImports{err: tt.err}, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPreviewImport_UnreadableUploadIsClientError(t *testing.T) {
	for _, name := range []string{"june.xlsx", "june.xls"} {
		req := multipartUpload(t, map[string]string{"month": "6", "year": "2025"}, name, "this is not a workbook")

		rec := serve(t, &fakeAttendance{}, &fakeImports{read: true}, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "could not be read", name)
	}
}

func TestConfirmImport(t *testing.T) {
	imp := &fakeImports{}
	body := `{"batchId":"b1","records":[{"employeeId":"e1","date":"2025-06-16T00:00:00Z"}]}`

	rec := serve(t, &fakeAttendance{}, imp, httptest.NewRequest(http.MethodPost, "/api/v1/imports/biometric/confirm", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, imp.records, 1)
	assert.Equal(t, "e1", imp.records[0].EmployeeID)

	var receipt core.ImportReceipt
	decode(t, rec, &receipt)
	assert.Equal(t, core.ImportReceipt{BatchID: "b1", Records: 1, Chunks: 1}, receipt)

	imp.err = core.ErrNothingToImport
	rec = serve(t, &fakeAttendance{}, imp, httptest.NewRequest(http.MethodPost, "/api/v1/imports/biometric/confirm", bytes.NewBufferString(`{"records":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMethodRouting(t *testing.T) {
	rec := serve(t, &fakeAttendance{}, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, &fakeAttendance{}, &fakeImports{}, httptest.NewRequest(http.MethodGet, "/api/v1/payroll/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
