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

// PunchRecordRepository is the PostgreSQL implementation of PunchRepository.
// Punch timestamps are wall-clock times stored as UTC.
type PunchRecordRepository struct {
	DB *sql.DB
}

// NewPunchRecordRepository create new instance
func NewPunchRecordRepository(db *sql.DB) PunchRepository {
	return &PunchRecordRepository{DB: db}
}

const punchColumns = `employee_id, work_date, punch_in, punch_out, site_id, break_hours`

func scanPunch(row interface{ Scan(...any) error }) (*model.PunchRecord, error) {
	var (
		p        model.PunchRecord
		punchIn  sql.NullTime
		punchOut sql.NullTime
		siteID   sql.NullString
	)
	if err := row.Scan(&p.EmployeeID, &p.Date, &punchIn, &punchOut, &siteID, &p.BreakHours); err != nil {
		return nil, err
	}

	p.Date = model.DateOf(p.Date)
	if punchIn.Valid {
		t := punchIn.Time.UTC()
		p.PunchIn = &t
	}
	if punchOut.Valid {
		t := punchOut.Time.UTC()
		p.PunchOut = &t
	}
	if siteID.Valid {
		p.SiteID = &siteID.String
	}
	return &p, nil
}

// PunchOn get the punch record of an employee for a date
func (r *PunchRecordRepository) PunchOn(ctx context.Context, employeeID string, date time.Time) (*model.PunchRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `SELECT ` + punchColumns + `
              FROM punch_records
              WHERE employee_id = $1 AND work_date = $2`

	p, err := scanPunch(r.DB.QueryRowContext(ctx, query, employeeID, model.DateOf(date)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListBetween returns every punch of the given employees in [from, to].
func (r *PunchRecordRepository) ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.PunchRecord, error) {
	query := `SELECT ` + punchColumns + `
              FROM punch_records
              WHERE employee_id = ANY($1) AND work_date BETWEEN $2 AND $3
              ORDER BY employee_id, work_date`

	rows, err := r.DB.QueryContext(ctx, query, employeeIDs, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PunchRecord
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

// Upsert writes all records in one transaction. The unique
// (employee_id, work_date) constraint makes a re-import overwrite instead of
// duplicate.
func (r *PunchRecordRepository) Upsert(ctx context.Context, records []model.PunchRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO punch_records (`+punchColumns+`, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, NOW())
              ON CONFLICT (employee_id, work_date) DO UPDATE
              SET punch_in = EXCLUDED.punch_in,
                  punch_out = EXCLUDED.punch_out,
                  site_id = EXCLUDED.site_id,
                  break_hours = EXCLUDED.break_hours,
                  updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range records {
		_, err := stmt.ExecContext(ctx, p.EmployeeID, model.DateOf(p.Date), nullTime(p.PunchIn), nullTime(p.PunchOut), nullString(p.SiteID), p.BreakHours)
		if err != nil {
			return 0, fmt.Errorf("upsert punch %s/%s: %w", p.EmployeeID, model.DateKey(p.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(records), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
