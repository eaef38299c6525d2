package repository

import (
	"context"
	"database/sql"
	"time"

	"attendance.service/internal/core/model"
)

// The *Source interfaces are the per-day lookups the classifier consumes.
// Every lookup returns (nil, nil) when there is no data for the day; an
// error always means the lookup itself failed.

type ScheduleSource interface {
	SchedulesFor(ctx context.Context, employeeID string) ([]model.Schedule, error)
}

type HolidaySource interface {
	HolidayOn(ctx context.Context, date time.Time) (*model.Holiday, error)
}

// LeaveSource only ever yields approved leave.
type LeaveSource interface {
	ApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (*model.LeaveRecord, error)
}

type PunchSource interface {
	PunchOn(ctx context.Context, employeeID string, date time.Time) (*model.PunchRecord, error)
}

// The *Repository interfaces add the bulk reads used to preload a month and
// the write used by the import confirm step.

type ScheduleRepository interface {
	ScheduleSource
	ListByEmployees(ctx context.Context, employeeIDs []string) ([]model.Schedule, error)
}

type HolidayRepository interface {
	HolidaySource
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Holiday, error)
}

type LeaveRepository interface {
	LeaveSource
	ListApprovedBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.LeaveRecord, error)
}

type PunchRepository interface {
	PunchSource
	ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.PunchRecord, error)
	// Upsert writes records keyed by (employee, date); re-importing the same
	// records leaves the store unchanged.
	Upsert(ctx context.Context, records []model.PunchRecord) (int, error)
}

// Repositories groups the four stores the service reads from.
type Repositories struct {
	Schedules ScheduleRepository
	Holidays  HolidayRepository
	Leaves    LeaveRepository
	Punches   PunchRepository
}

// NewPostgresRepositories backs every store with the same connection pool.
func NewPostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Schedules: NewWorkScheduleRepository(db),
		Holidays:  NewHolidayCalendarRepository(db),
		Leaves:    NewLeaveRequestRepository(db),
		Punches:   NewPunchRecordRepository(db),
	}
}
