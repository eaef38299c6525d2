// Package biometric turns a vendor time-clock export into punch records.
//
// The export is a table with one header row of day-of-month numbers and one
// row per employee: employee ID, first name, department, then one cell per
// day holding "HH:MM-HH:MM" or nothing.
package biometric

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"attendance.service/internal/core/model"
)

var (
	// ErrMissingImportHeader aborts a parse: without day columns there is
	// nothing to anchor the cells to.
	ErrMissingImportHeader = errors.New("import header row is missing or has no day columns")

	ErrInvalidTarget = errors.New("target month and year are required")
)

// Fixed leading columns of every data row.
const (
	colEmployeeID = iota
	colFirstName
	colDepartment
	firstDayColumn
)

// MalformedImportRow describes one skipped cell (or a whole row when Column
// is -1). It never aborts the import.
type MalformedImportRow struct {
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	EmployeeID string `json:"employeeId,omitempty"`
	Value      string `json:"value,omitempty"`
	Reason     string `json:"reason"`
}

func (e MalformedImportRow) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d column %d (%q): %s", e.Row, e.Column, e.Value, e.Reason)
}

// Options selects the month the day columns belong to and an optional site
// that replaces each row's department. HeaderRow is the sheet row the header
// sits on and anchors the row numbers in Skipped; zero means row 1.
type Options struct {
	Month        time.Month
	Year         int
	SiteOverride string
	HeaderRow    int
}

// Result is the de-duplicated output of one normalization pass.
type Result struct {
	Records []model.PunchRecord  `json:"records"`
	Skipped []MalformedImportRow `json:"skipped,omitempty"`
}

// NormalizeBiometricExport returns one punch record per (employee, date)
// found in the export. It is a pure function of its inputs.
func NormalizeBiometricExport(header []string, rows [][]string, month time.Month, year int, siteOverride string) ([]model.PunchRecord, error) {
	res, err := Normalize(header, rows, Options{Month: month, Year: year, SiteOverride: siteOverride})
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Normalize parses every well-formed day cell and reports the rest in
// Result.Skipped. When the same employee and day appear in several rows the
// row further down wins.
func Normalize(header []string, rows [][]string, opts Options) (Result, error) {
	if opts.Year <= 0 || opts.Month < time.January || opts.Month > time.December {
		return Result{}, ErrInvalidTarget
	}

	days := dayColumns(header, opts)
	if len(days) == 0 {
		return Result{}, ErrMissingImportHeader
	}

	var (
		res   Result
		flat  []model.PunchRecord
		cols  = sortedColumns(days)
		siteO = strings.TrimSpace(opts.SiteOverride)
		first = max(opts.HeaderRow, 1) + 1
	)

	for i, row := range rows {
		rowNum := first + i
		if isBlankRow(row) {
			continue
		}

		employeeID := cell(row, colEmployeeID)
		if employeeID == "" {
			res.Skipped = append(res.Skipped, MalformedImportRow{Row: rowNum, Column: -1, Reason: "missing employee ID"})
			continue
		}

		site := siteO
		if site == "" {
			site = cell(row, colDepartment)
		}

		for _, col := range cols {
			value := cell(row, col)
			if value == "" {
				continue
			}

			in, out, err := parsePunchCell(value)
			if err != nil {
				res.Skipped = append(res.Skipped, MalformedImportRow{
					Row: rowNum, Column: col, EmployeeID: employeeID, Value: value, Reason: err.Error(),
				})
				continue
			}

			date := days[col]
			punchIn := in.On(date)
			punchOut := out.On(date)
			rec := model.PunchRecord{
				EmployeeID: employeeID,
				Date:       date,
				PunchIn:    &punchIn,
				PunchOut:   &punchOut,
			}
			if site != "" {
				s := site
				rec.SiteID = &s
			}
			flat = append(flat, rec)
		}
	}

	res.Records = dedupe(flat)
	return res, nil
}

// dayColumns maps column index to the calendar date its header names.
// Headers that are not a valid day of the target month are ignored.
func dayColumns(header []string, opts Options) map[int]time.Time {
	days := make(map[int]time.Time)
	for col := firstDayColumn; col < len(header); col++ {
		day, err := strconv.Atoi(strings.TrimSpace(header[col]))
		if err != nil || day < 1 {
			continue
		}
		date := time.Date(opts.Year, opts.Month, day, 0, 0, 0, 0, time.UTC)
		if date.Month() != opts.Month {
			continue
		}
		days[col] = date
	}
	return days
}

func sortedColumns(days map[int]time.Time) []int {
	cols := make([]int, 0, len(days))
	for c := range days {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

// parsePunchCell reads "H[:MM]-H[:MM]".
func parsePunchCell(value string) (model.TimeOfDay, model.TimeOfDay, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected an in-out pair")
	}
	in, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	out, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return in, out, nil
}

// parseClock pads a clock reading to HH:MM; missing minutes mean :00.
func parseClock(s string) (model.TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty time")
	}
	hour, minute, found := strings.Cut(s, ":")
	if !found || strings.TrimSpace(minute) == "" {
		minute = "00"
	}
	return model.ParseTimeOfDay(pad2(hour) + ":" + pad2(minute))
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// dedupe keeps the last record per (employee, date) and orders the output by
// employee then date so repeated runs compare equal.
func dedupe(records []model.PunchRecord) []model.PunchRecord {
	type key struct {
		employeeID string
		date       string
	}
	latest := make(map[key]model.PunchRecord, len(records))
	for _, r := range records {
		latest[key{r.EmployeeID, model.DateKey(r.Date)}] = r
	}

	out := make([]model.PunchRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
