package core

import (
	"sort"
	"time"

	"attendance.service/internal/core/model"
	"github.com/shopspring/decimal"
)

// MonthlySummary is the per-employee roll-up payroll consumes. Every day is
// counted under exactly one label, so a leave day never also counts as
// attendance.
type MonthlySummary struct {
	EmployeeID          string          `json:"employeeId"`
	Year                int             `json:"year"`
	Month               time.Month      `json:"month"`
	Labels              map[string]int  `json:"labels"`
	PresentDays         int             `json:"presentDays"`
	AbsentDays          int             `json:"absentDays"`
	HolidayDays         int             `json:"holidayDays"`
	LeaveDaysWithPay    int             `json:"leaveDaysWithPay"`
	LeaveDaysWithoutPay int             `json:"leaveDaysWithoutPay"`
	WorkedHours         decimal.Decimal `json:"workedHours"`
	UnclassifiedDays    int             `json:"unclassifiedDays"`
}

// Summarize rolls up one employee's row of a grid. Worked hours come from
// present days only, less any recorded break.
func Summarize(grid *Grid, employeeID string) MonthlySummary {
	s := MonthlySummary{
		EmployeeID:  employeeID,
		Year:        grid.Year,
		Month:       grid.Month,
		Labels:      make(map[string]int),
		WorkedHours: decimal.Zero,
	}

	failed := make(map[string]bool)
	for _, e := range grid.Errors {
		if e.EmployeeID == employeeID {
			failed[e.Date] = true
		}
	}
	s.UnclassifiedDays = len(failed)

	for _, status := range grid.Rows[employeeID] {
		if status.Tag == "" {
			continue
		}
		s.Labels[status.Label()]++
		if status.Holiday {
			s.HolidayDays++
		}

		switch {
		case status.Tag == model.TagOnLeave && status.IsWithPay:
			s.LeaveDaysWithPay++
		case status.Tag == model.TagOnLeave:
			s.LeaveDaysWithoutPay++
		case status.Tag == model.TagAbsent:
			s.AbsentDays++
		case status.Present():
			s.PresentDays++
			s.WorkedHours = s.WorkedHours.Add(paidHours(status.Punch))
		}
	}

	s.WorkedHours = s.WorkedHours.Round(2)
	return s
}

// SummarizeAll rolls up every row of the grid, ordered by employee ID.
func SummarizeAll(grid *Grid) []MonthlySummary {
	ids := make([]string, 0, len(grid.Rows))
	for id := range grid.Rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]MonthlySummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, Summarize(grid, id))
	}
	return out
}

func paidHours(p *model.PunchRecord) decimal.Decimal {
	if !p.Complete() {
		return decimal.Zero
	}
	worked := decimal.NewFromFloat(p.WorkedHours())
	if p.BreakHours.Valid {
		worked = worked.Sub(p.BreakHours.Decimal)
	}
	if worked.IsNegative() {
		return decimal.Zero
	}
	return worked
}
