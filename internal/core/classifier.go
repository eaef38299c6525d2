package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

const (
	// GraceWindow is how late after scheduled start an arrival still counts
	// as on time for the Morning rule.
	GraceWindow = 30 * time.Minute

	// MorningSplitRatio is the share of the scheduled hours below which an
	// on-time arrival is a Morning half day.
	MorningSplitRatio = 0.5
)

// DayFacts is everything the decision for one employee-day depends on.
// A nil pointer means the source had no data for that day.
type DayFacts struct {
	EmployeeID string
	Date       time.Time
	Holiday    *model.Holiday
	Leave      *model.LeaveRecord
	Window     *model.ResolvedWindow
	Punch      *model.PunchRecord
}

// dayRule decides the status when it applies to the facts.
type dayRule struct {
	name   string
	decide func(f DayFacts) (model.Tag, bool)
}

// dayRules is evaluated in order; the first rule that applies wins.
// Approved leave outranks every other source.
var dayRules = []dayRule{
	{"approved-leave", func(f DayFacts) (model.Tag, bool) {
		return model.TagOnLeave, f.Leave != nil
	}},
	{"no-schedule", func(f DayFacts) (model.Tag, bool) {
		if f.Window != nil {
			return "", false
		}
		if f.Punch.Complete() {
			return model.TagPartial, true
		}
		return model.TagNone, true
	}},
	{"no-punch", func(f DayFacts) (model.Tag, bool) {
		return model.TagAbsent, !f.Punch.Complete()
	}},
	{"worked-hours", func(f DayFacts) (model.Tag, bool) {
		return classifyWorked(newWorkMetrics(f.Window, f.Punch)), true
	}},
}

// workMetrics is the time-window arithmetic for a complete punch against a
// resolved window.
type workMetrics struct {
	punchIn   time.Time
	worked    float64
	scheduled float64
	grace     time.Time
	midpoint  time.Time
}

func newWorkMetrics(w *model.ResolvedWindow, p *model.PunchRecord) workMetrics {
	return workMetrics{
		punchIn:   *p.PunchIn,
		worked:    p.WorkedHours(),
		scheduled: w.DurationHours,
		grace:     w.Start.Add(GraceWindow),
		midpoint:  w.Start.Add(w.End.Sub(w.Start) / 2),
	}
}

type workRule struct {
	tag     model.Tag
	matches func(m workMetrics) bool
}

// workRules splits a present day into Full, Morning, Afternoon or Partial.
// Morning is checked before Afternoon, so a very short schedule where the
// grace window extends past the midpoint resolves to Morning.
var workRules = []workRule{
	{model.TagFull, func(m workMetrics) bool {
		return m.worked >= m.scheduled
	}},
	{model.TagMorning, func(m workMetrics) bool {
		return !m.punchIn.After(m.grace) && m.worked < m.scheduled*MorningSplitRatio
	}},
	{model.TagAfternoon, func(m workMetrics) bool {
		return m.punchIn.After(m.midpoint) && m.worked < m.scheduled
	}},
}

func classifyWorked(m workMetrics) model.Tag {
	for _, r := range workRules {
		if r.matches(m) {
			return r.tag
		}
	}
	return model.TagPartial
}

// Decide applies the ordered day rules to facts. Holidays never change which
// rule fires; they only prefix the resulting tag.
func Decide(f DayFacts) model.AttendanceStatus {
	status := model.AttendanceStatus{
		EmployeeID: f.EmployeeID,
		Date:       model.DateKey(f.Date),
		Tag:        model.TagNone,
	}

	for _, r := range dayRules {
		tag, ok := r.decide(f)
		if !ok {
			continue
		}
		status.Tag = tag
		break
	}

	switch status.Tag {
	case model.TagOnLeave:
		status.Leave = f.Leave
		status.IsWithPay = f.Leave.IsWithPay
		return status
	case model.TagNone:
		return status
	}

	status.Window = f.Window
	if f.Punch.Complete() {
		status.Punch = f.Punch
		status.WorkedHours = f.Punch.WorkedHours()
	}
	if f.Window != nil && f.Holiday != nil {
		status.Holiday = true
		status.HolidayName = f.Holiday.Name
	}
	return status
}

// Classifier combines the four lookups into one AttendanceStatus per
// employee-day. It keeps no state between calls.
type Classifier struct {
	holidays repository.HolidaySource
	leaves   repository.LeaveSource
	punches  repository.PunchSource
	resolver *ScheduleResolver
}

func NewClassifier(
	schedules repository.ScheduleSource,
	holidays repository.HolidaySource,
	leaves repository.LeaveSource,
	punches repository.PunchSource,
) *Classifier {
	return &Classifier{
		holidays: holidays,
		leaves:   leaves,
		punches:  punches,
		resolver: NewScheduleResolver(schedules),
	}
}

// Classify returns the status of employeeID on date. The only error that is
// not a lookup failure is *ScheduleIntegrityError.
func (c *Classifier) Classify(ctx context.Context, employeeID string, date time.Time) (model.AttendanceStatus, error) {
	if employeeID == "" {
		return model.AttendanceStatus{}, ErrInvalidEmployeeID
	}

	facts := DayFacts{EmployeeID: employeeID, Date: model.DateOf(date)}

	holiday, err := c.holidays.HolidayOn(ctx, facts.Date)
	if err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("failed to look up holiday: %w", err)
	}
	facts.Holiday = holiday

	leave, err := c.leaves.ApprovedLeaveOn(ctx, employeeID, facts.Date)
	if err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("failed to look up leave: %w", err)
	}
	if leave != nil && leave.Status == model.LeaveApproved {
		facts.Leave = leave
		return Decide(facts), nil
	}

	facts.Window, err = c.resolver.Resolve(ctx, employeeID, facts.Date)
	if err != nil {
		return model.AttendanceStatus{}, err
	}

	facts.Punch, err = c.punches.PunchOn(ctx, employeeID, facts.Date)
	if err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("failed to look up punch: %w", err)
	}

	return Decide(facts), nil
}
