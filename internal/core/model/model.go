package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleType tells how a schedule defines its working windows.
type ScheduleType string

const (
	ScheduleFixed    ScheduleType = "FIXED"
	ScheduleFlexible ScheduleType = "FLEXIBLE"
)

// TimeOfDay is an offset from midnight.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from clock parts.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = n
	}
	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// On anchors the time of day to the calendar date of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location()).Add(time.Duration(t))
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Window is a start/end pair within one day.
type Window struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Schedule is an employee's working-time rule for an effective date range.
// Fixed schedules share Start/End across WorkingDays; flexible schedules
// carry one optional window per weekday.
type Schedule struct {
	ID             string                   `json:"id"`
	EmployeeID     string                   `json:"employeeId"`
	Type           ScheduleType             `json:"type"`
	WorkingDays    map[time.Weekday]bool    `json:"workingDays,omitempty"`
	Start          TimeOfDay                `json:"start,omitempty"`
	End            TimeOfDay                `json:"end,omitempty"`
	Windows        map[time.Weekday]*Window `json:"windows,omitempty"`
	EffectiveFrom  time.Time                `json:"effectiveFrom"`
	EffectiveUntil *time.Time               `json:"effectiveUntil,omitempty"`
}

// EffectiveOn reports whether date falls within the schedule's effective range.
func (s Schedule) EffectiveOn(date time.Time) bool {
	day := DateOf(date)
	if day.Before(DateOf(s.EffectiveFrom)) {
		return false
	}
	return s.EffectiveUntil == nil || !day.After(DateOf(*s.EffectiveUntil))
}

// ResolvedWindow is the work window that applies to one employee on one date.
type ResolvedWindow struct {
	ScheduleID    string    `json:"scheduleId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"durationHours"`
}

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

type LeaveRecord struct {
	ID         string      `json:"id"`
	EmployeeID string      `json:"employeeId"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Status     LeaveStatus `json:"status"`
	LeaveType  string      `json:"leaveType"`
	IsWithPay  bool        `json:"isWithPay"`
}

// Covers reports whether date lies in the inclusive leave range.
func (l LeaveRecord) Covers(date time.Time) bool {
	day := DateOf(date)
	return !day.Before(DateOf(l.StartDate)) && !day.After(DateOf(l.EndDate))
}

// PunchRecord is the clock-in/clock-out pair for one employee on one date.
type PunchRecord struct {
	EmployeeID string              `json:"employeeId"`
	Date       time.Time           `json:"date"`
	PunchIn    *time.Time          `json:"punchIn,omitempty"`
	PunchOut   *time.Time          `json:"punchOut,omitempty"`
	SiteID     *string             `json:"siteId,omitempty"`
	BreakHours decimal.NullDecimal `json:"breakHours"`
}

// Complete is true only when both timestamps are present.
func (p *PunchRecord) Complete() bool {
	return p != nil && p.PunchIn != nil && p.PunchOut != nil
}

// WorkedHours is the raw in-to-out span; zero for incomplete records or
// when out precedes in.
func (p *PunchRecord) WorkedHours() float64 {
	if !p.Complete() {
		return 0
	}
	h := p.PunchOut.Sub(*p.PunchIn).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar date the way index maps key it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
