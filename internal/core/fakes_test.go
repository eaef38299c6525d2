package core

import (
	"context"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
)

// In-memory stores backing the classifier, roster and service tests.

type fakeSchedules struct {
	items []model.Schedule
	err   error
}

func (f *fakeSchedules) SchedulesFor(_ context.Context, employeeID string) ([]model.Schedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Schedule
	for _, s := range f.items {
		if s.EmployeeID == employeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSchedules) ListByEmployees(ctx context.Context, employeeIDs []string) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, id := range employeeIDs {
		s, err := f.SchedulesFor(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

type fakeHolidays struct {
	items []model.Holiday
	err   error
}

func (f *fakeHolidays) HolidayOn(_ context.Context, date time.Time) (*model.Holiday, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.items {
		if model.DateKey(f.items[i].Date) == model.DateKey(date) {
			h := f.items[i]
			return &h, nil
		}
	}
	return nil, nil
}

func (f *fakeHolidays) ListBetween(_ context.Context, from, to time.Time) ([]model.Holiday, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Holiday
	for _, h := range f.items {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeLeaves struct {
	items []model.LeaveRecord
	err   error
}

func (f *fakeLeaves) ApprovedLeaveOn(_ context.Context, employeeID string, date time.Time) (*model.LeaveRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.items {
		l := f.items[i]
		if l.EmployeeID == employeeID && l.Status == model.LeaveApproved && l.Covers(date) {
			return &l, nil
		}
	}
	return nil, nil
}

func (f *fakeLeaves) ListApprovedBetween(_ context.Context, employeeIDs []string, from, to time.Time) ([]model.LeaveRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	var out []model.LeaveRecord
	for _, l := range f.items {
		if wanted[l.EmployeeID] && l.Status == model.LeaveApproved && !l.StartDate.After(to) && !l.EndDate.Before(from) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePunches struct {
	mu       sync.Mutex
	items    []model.PunchRecord
	err      error
	upserted [][]model.PunchRecord
}

func (f *fakePunches) PunchOn(_ context.Context, employeeID string, date time.Time) (*model.PunchRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.items {
		p := f.items[i]
		if p.EmployeeID == employeeID && model.DateKey(p.Date) == model.DateKey(date) {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePunches) ListBetween(_ context.Context, employeeIDs []string, from, to time.Time) ([]model.PunchRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}
	var out []model.PunchRecord
	for _, p := range f.items {
		if wanted[p.EmployeeID] && !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePunches) Upsert(_ context.Context, records []model.PunchRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.upserted = append(f.upserted, records)
	return len(records), nil
}

type fixture struct {
	schedules *fakeSchedules
	holidays  *fakeHolidays
	leaves    *fakeLeaves
	punches   *fakePunches
}

func newFixture() *fixture {
	return &fixture{
		schedules: &fakeSchedules{},
		holidays:  &fakeHolidays{},
		leaves:    &fakeLeaves{},
		punches:   &fakePunches{},
	}
}

func (f *fixture) repos() repository.Repositories {
	return repository.Repositories{
		Schedules: f.schedules,
		Holidays:  f.holidays,
		Leaves:    f.leaves,
		Punches:   f.punches,
	}
}

func (f *fixture) classifier() *Classifier {
	return NewClassifier(f.schedules, f.holidays, f.leaves, f.punches)
}

type fakePublisher struct {
	mu       sync.Mutex
	imports  []messaging.PunchImportEvent
	payrolls []messaging.PayrollSyncEvent
	err      error
}

func (p *fakePublisher) PublishImport(_ context.Context, event messaging.PunchImportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.imports = append(p.imports, event)
	return nil
}

func (p *fakePublisher) PublishPayroll(_ context.Context, event messaging.PayrollSyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payrolls = append(p.payrolls, event)
	return nil
}

// Builders.

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(date time.Time, hour, minute, second int) *time.Time {
	t := model.NewTimeOfDay(hour, minute, second).On(date)
	return &t
}

// officeSchedule is Mon-Fri 09:00-18:30, effective from 2025-01-01.
func officeSchedule(employeeID string) model.Schedule {
	return model.Schedule{
		ID:         "sched-" + employeeID,
		EmployeeID: employeeID,
		Type:       model.ScheduleFixed,
		WorkingDays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true, time.Thursday: true, time.Friday: true,
		},
		Start:         model.NewTimeOfDay(9, 0, 0),
		End:           model.NewTimeOfDay(18, 30, 0),
		EffectiveFrom: day(2025, time.January, 1),
	}
}

func punch(employeeID string, date time.Time, inH, inM, outH, outM int) model.PunchRecord {
	return model.PunchRecord{
		EmployeeID: employeeID,
		Date:       date,
		PunchIn:    at(date, inH, inM, 0),
		PunchOut:   at(date, outH, outM, 0),
	}
}
