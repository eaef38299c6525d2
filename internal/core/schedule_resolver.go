package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

// ScheduleResolver turns an employee's schedules into the work window for a date.
type ScheduleResolver struct {
	schedules repository.ScheduleSource
}

func NewScheduleResolver(schedules repository.ScheduleSource) *ScheduleResolver {
	return &ScheduleResolver{schedules: schedules}
}

// Resolve returns the window that applies on date, or nil when the employee
// has no schedule that day. Overlapping effective schedules are reported as
// a *ScheduleIntegrityError instead of picking one of them.
func (r *ScheduleResolver) Resolve(ctx context.Context, employeeID string, date time.Time) (*model.ResolvedWindow, error) {
	schedules, err := r.schedules.SchedulesFor(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules for %s: %w", employeeID, err)
	}
	return ResolveWindow(employeeID, schedules, date)
}

// ResolveWindow is the pure part of Resolve.
func ResolveWindow(employeeID string, schedules []model.Schedule, date time.Time) (*model.ResolvedWindow, error) {
	day := model.DateOf(date)

	var effective []model.Schedule
	for _, s := range schedules {
		if s.EffectiveOn(day) {
			effective = append(effective, s)
		}
	}

	switch len(effective) {
	case 0:
		return nil, nil
	case 1:
	default:
		ids := make([]string, 0, len(effective))
		for _, s := range effective {
			ids = append(ids, s.ID)
		}
		return nil, &ScheduleIntegrityError{EmployeeID: employeeID, Date: day, ScheduleIDs: ids}
	}

	s := effective[0]
	weekday := day.Weekday()

	var start, end model.TimeOfDay
	switch s.Type {
	case model.ScheduleFixed:
		if !s.WorkingDays[weekday] {
			return nil, nil
		}
		start, end = s.Start, s.End
	case model.ScheduleFlexible:
		w := s.Windows[weekday]
		if w == nil || (w.Start == 0 && w.End == 0) {
			return nil, nil
		}
		start, end = w.Start, w.End
	default:
		return nil, fmt.Errorf("schedule %s has unknown type %q", s.ID, s.Type)
	}

	window := &model.ResolvedWindow{
		ScheduleID: s.ID,
		Start:      start.On(day),
		End:        end.On(day),
	}
	// end <= start yields a zero-length window rather than a negative one
	if d := window.End.Sub(window.Start).Hours(); d > 0 {
		window.DurationHours = d
	}
	return window, nil
}
