package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"attendance.service/internal/core/model"
	"golang.org/x/sync/errgroup"
)

// ErrOutsideIndex is returned for a lookup outside the preloaded range.
var ErrOutsideIndex = errors.New("date is outside the preloaded range")

// MonthIndex holds every schedule, holiday, approved leave and punch for a
// set of employees over a date range, so a whole grid can be classified
// without a query per cell. It is read-only once built and safe for
// concurrent use.
type MonthIndex struct {
	from, to  time.Time
	schedules map[string][]model.Schedule
	holidays  map[string]*model.Holiday
	leaves    map[string][]model.LeaveRecord
	punches   map[string]map[string]*model.PunchRecord
}

// NewMonthIndex indexes already-loaded records for [from, to].
func NewMonthIndex(from, to time.Time, schedules []model.Schedule, holidays []model.Holiday, leaves []model.LeaveRecord, punches []model.PunchRecord) *MonthIndex {
	idx := &MonthIndex{
		from:      model.DateOf(from),
		to:        model.DateOf(to),
		schedules: make(map[string][]model.Schedule),
		holidays:  make(map[string]*model.Holiday, len(holidays)),
		leaves:    make(map[string][]model.LeaveRecord),
		punches:   make(map[string]map[string]*model.PunchRecord),
	}

	for _, s := range schedules {
		idx.schedules[s.EmployeeID] = append(idx.schedules[s.EmployeeID], s)
	}
	for i := range holidays {
		h := holidays[i]
		idx.holidays[model.DateKey(h.Date)] = &h
	}
	for _, l := range leaves {
		if l.Status != model.LeaveApproved {
			continue
		}
		idx.leaves[l.EmployeeID] = append(idx.leaves[l.EmployeeID], l)
	}
	for emp := range idx.leaves {
		sort.SliceStable(idx.leaves[emp], func(i, j int) bool {
			return idx.leaves[emp][i].StartDate.Before(idx.leaves[emp][j].StartDate)
		})
	}
	for i := range punches {
		p := punches[i]
		byDate, ok := idx.punches[p.EmployeeID]
		if !ok {
			byDate = make(map[string]*model.PunchRecord)
			idx.punches[p.EmployeeID] = byDate
		}
		byDate[model.DateKey(p.Date)] = &p
	}
	return idx
}

// LoadMonthIndex runs one bulk query per repository for [from, to]. The four
// queries are independent and run concurrently.
func LoadMonthIndex(ctx context.Context, repos Repositories, employeeIDs []string, from, to time.Time) (*MonthIndex, error) {
	var (
		schedules []model.Schedule
		holidays  []model.Holiday
		leaves    []model.LeaveRecord
		punches   []model.PunchRecord
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if schedules, err = repos.Schedules.ListByEmployees(gCtx, employeeIDs); err != nil {
			return fmt.Errorf("failed to load schedules: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if holidays, err = repos.Holidays.ListBetween(gCtx, from, to); err != nil {
			return fmt.Errorf("failed to load holidays: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if leaves, err = repos.Leaves.ListApprovedBetween(gCtx, employeeIDs, from, to); err != nil {
			return fmt.Errorf("failed to load leaves: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if punches, err = repos.Punches.ListBetween(gCtx, employeeIDs, from, to); err != nil {
			return fmt.Errorf("failed to load punches: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewMonthIndex(from, to, schedules, holidays, leaves, punches), nil
}

func (m *MonthIndex) inRange(date time.Time) error {
	d := model.DateOf(date)
	if d.Before(m.from) || d.After(m.to) {
		return fmt.Errorf("%w: %s", ErrOutsideIndex, model.DateKey(d))
	}
	return nil
}

func (m *MonthIndex) SchedulesFor(_ context.Context, employeeID string) ([]model.Schedule, error) {
	return m.schedules[employeeID], nil
}

func (m *MonthIndex) HolidayOn(_ context.Context, date time.Time) (*model.Holiday, error) {
	if err := m.inRange(date); err != nil {
		return nil, err
	}
	return m.holidays[model.DateKey(date)], nil
}

func (m *MonthIndex) ApprovedLeaveOn(_ context.Context, employeeID string, date time.Time) (*model.LeaveRecord, error) {
	if err := m.inRange(date); err != nil {
		return nil, err
	}
	for i := range m.leaves[employeeID] {
		if l := m.leaves[employeeID][i]; l.Covers(date) {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *MonthIndex) PunchOn(_ context.Context, employeeID string, date time.Time) (*model.PunchRecord, error) {
	if err := m.inRange(date); err != nil {
		return nil, err
	}
	return m.punches[employeeID][model.DateKey(date)], nil
}
