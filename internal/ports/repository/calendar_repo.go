package repository

import (
	"context"
	"database/sql"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HolidayCalendarRepository reads the holiday calendar.
type HolidayCalendarRepository struct {
	DB *sql.DB
}

func NewHolidayCalendarRepository(db *sql.DB) HolidayRepository {
	return &HolidayCalendarRepository{DB: db}
}

func (r *HolidayCalendarRepository) HolidayOn(ctx context.Context, date time.Time) (*model.Holiday, error) {
	h := &model.Holiday{}
	query := `SELECT holiday_date, name FROM holidays WHERE holiday_date = $1`

	err := r.DB.QueryRowContext(ctx, query, model.DateOf(date)).Scan(&h.Date, &h.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h.Date = model.DateOf(h.Date)
	return h, nil
}

func (r *HolidayCalendarRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Holiday, error) {
	query := `SELECT holiday_date, name FROM holidays
              WHERE holiday_date BETWEEN $1 AND $2
              ORDER BY holiday_date`

	rows, err := r.DB.QueryContext(ctx, query, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []model.Holiday
	for rows.Next() {
		var h model.Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, err
		}
		h.Date = model.DateOf(h.Date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// LeaveRequestRepository reads leave requests. Only approved rows are ever
// returned.
type LeaveRequestRepository struct {
	DB *sql.DB
}

func NewLeaveRequestRepository(db *sql.DB) LeaveRepository {
	return &LeaveRequestRepository{DB: db}
}

const leaveColumns = `id, employee_id, start_date, end_date, status, leave_type, is_with_pay`

func scanLeave(row interface{ Scan(...any) error }) (*model.LeaveRecord, error) {
	var l model.LeaveRecord
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.LeaveType, &l.IsWithPay); err != nil {
		return nil, err
	}
	l.StartDate = model.DateOf(l.StartDate)
	l.EndDate = model.DateOf(l.EndDate)
	return &l, nil
}

// ApprovedLeaveOn returns the earliest-starting approved leave covering date.
func (r *LeaveRequestRepository) ApprovedLeaveOn(ctx context.Context, employeeID string, date time.Time) (*model.LeaveRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `SELECT ` + leaveColumns + `
              FROM leave_requests
              WHERE employee_id = $1 AND status = $2 AND $3 BETWEEN start_date AND end_date
              ORDER BY start_date
              LIMIT 1`

	l, err := scanLeave(r.DB.QueryRowContext(ctx, query, employeeID, string(model.LeaveApproved), model.DateOf(date)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListApprovedBetween returns approved leaves overlapping [from, to].
func (r *LeaveRequestRepository) ListApprovedBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.LeaveRecord, error) {
	query := `SELECT ` + leaveColumns + `
              FROM leave_requests
              WHERE employee_id = ANY($1) AND status = $2
                AND start_date <= $4 AND end_date >= $3
              ORDER BY employee_id, start_date`

	rows, err := r.DB.QueryContext(ctx, query, employeeIDs, string(model.LeaveApproved), model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []model.LeaveRecord
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *l)
	}
	return leaves, rows.Err()
}
