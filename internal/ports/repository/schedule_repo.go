package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WorkScheduleRepository reads schedules from PostgreSQL. Fixed schedules
// keep their working days as a bitmask (bit n = time.Weekday n); flexible
// schedules keep one row per weekday in work_schedule_windows.
type WorkScheduleRepository struct {
	DB *sql.DB
}

func NewWorkScheduleRepository(db *sql.DB) ScheduleRepository {
	return &WorkScheduleRepository{DB: db}
}

// SchedulesFor returns every schedule of the employee regardless of its
// effective range; the resolver picks the one that applies.
func (r *WorkScheduleRepository) SchedulesFor(ctx context.Context, employeeID string) ([]model.Schedule, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))
	return r.ListByEmployees(ctx, []string{employeeID})
}

func (r *WorkScheduleRepository) ListByEmployees(ctx context.Context, employeeIDs []string) ([]model.Schedule, error) {
	query := `SELECT id, employee_id, schedule_type, working_days_mask,
                     to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
                     effective_from, effective_until
              FROM work_schedules
              WHERE employee_id = ANY($1)
              ORDER BY employee_id, effective_from`

	rows, err := r.DB.QueryContext(ctx, query, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		schedules []model.Schedule
		flexible  []string
	)
	for rows.Next() {
		var (
			s          model.Schedule
			mask       int
			start, end sql.NullString
			until      sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.Type, &mask, &start, &end, &s.EffectiveFrom, &until); err != nil {
			return nil, err
		}
		s.EffectiveFrom = model.DateOf(s.EffectiveFrom)
		if until.Valid {
			u := model.DateOf(until.Time)
			s.EffectiveUntil = &u
		}

		switch s.Type {
		case model.ScheduleFixed:
			s.WorkingDays = weekdaysFromMask(mask)
			if s.Start, err = parseNullTimeOfDay(start); err != nil {
				return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
			}
			if s.End, err = parseNullTimeOfDay(end); err != nil {
				return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
			}
		case model.ScheduleFlexible:
			s.Windows = make(map[time.Weekday]*model.Window)
			flexible = append(flexible, s.ID)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(flexible) == 0 {
		return schedules, nil
	}

	windows, err := r.windowsFor(ctx, flexible)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		if byDay, ok := windows[schedules[i].ID]; ok {
			schedules[i].Windows = byDay
		}
	}
	return schedules, nil
}

func (r *WorkScheduleRepository) windowsFor(ctx context.Context, scheduleIDs []string) (map[string]map[time.Weekday]*model.Window, error) {
	query := `SELECT schedule_id, weekday, to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS')
              FROM work_schedule_windows
              WHERE schedule_id = ANY($1)`

	rows, err := r.DB.QueryContext(ctx, query, scheduleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make(map[string]map[time.Weekday]*model.Window)
	for rows.Next() {
		var (
			scheduleID string
			weekday    int
			start, end sql.NullString
		)
		if err := rows.Scan(&scheduleID, &weekday, &start, &end); err != nil {
			return nil, err
		}
		if windows[scheduleID] == nil {
			windows[scheduleID] = make(map[time.Weekday]*model.Window)
		}
		// a weekday row without times is an explicit day off
		if !start.Valid || !end.Valid {
			windows[scheduleID][time.Weekday(weekday)] = nil
			continue
		}
		w := &model.Window{}
		if w.Start, err = model.ParseTimeOfDay(start.String); err != nil {
			return nil, fmt.Errorf("schedule %s window: %w", scheduleID, err)
		}
		if w.End, err = model.ParseTimeOfDay(end.String); err != nil {
			return nil, fmt.Errorf("schedule %s window: %w", scheduleID, err)
		}
		windows[scheduleID][time.Weekday(weekday)] = w
	}
	return windows, rows.Err()
}

func weekdaysFromMask(mask int) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if mask&(1<<uint(d)) != 0 {
			days[d] = true
		}
	}
	return days
}

func parseNullTimeOfDay(s sql.NullString) (model.TimeOfDay, error) {
	if !s.Valid {
		return 0, nil
	}
	return model.ParseTimeOfDay(s.String)
}
