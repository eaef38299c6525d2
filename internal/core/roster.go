package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultGridConcurrency bounds how many cells are classified at once.
const DefaultGridConcurrency = 8

// CellError is a classification failure for one employee-day. It is
// reported next to the grid instead of aborting it.
type CellError struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Err        error  `json:"-"`
	Message    string `json:"message"`
}

func (e CellError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.EmployeeID, e.Date, e.Err)
}

func (e CellError) Unwrap() error { return e.Err }

// Grid holds one status per employee per day of a month. Rows[emp][d] is
// day d+1; a failed cell keeps a zero status and is listed in Errors.
type Grid struct {
	Year   int                                 `json:"year"`
	Month  time.Month                          `json:"month"`
	Days   int                                 `json:"days"`
	Rows   map[string][]model.AttendanceStatus `json:"rows"`
	Errors []CellError                         `json:"errors,omitempty"`
}

// Roster classifies whole months for a set of employees.
type Roster struct {
	repos       repository.Repositories
	concurrency int
}

func NewRoster(repos repository.Repositories, concurrency int) *Roster {
	if concurrency <= 0 {
		concurrency = DefaultGridConcurrency
	}
	return &Roster{repos: repos, concurrency: concurrency}
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(year int, month time.Month) (time.Time, time.Time, error) {
	if year <= 0 || month < time.January || month > time.December {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1), nil
}

// ClassifyMonth preloads the month once and classifies every cell.
func (r *Roster) ClassifyMonth(ctx context.Context, employeeIDs []string, year int, month time.Month) (*Grid, error) {
	from, to, err := MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	idx, err := repository.LoadMonthIndex(ctx, r.repos, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}

	return ClassifyRange(ctx, NewClassifier(idx, idx, idx, idx), employeeIDs, from, to, r.concurrency)
}

// ClassifyRange classifies every (employee, day) in [from, to] with c. Cells
// are independent, so they run in parallel; a failing cell is recorded and
// the rest continue.
func ClassifyRange(ctx context.Context, c *Classifier, employeeIDs []string, from, to time.Time, concurrency int) (*Grid, error) {
	from, to = model.DateOf(from), model.DateOf(to)
	days := int(to.Sub(from).Hours()/24) + 1
	if days <= 0 {
		return nil, ErrInvalidPeriod
	}

	grid := &Grid{
		Year:  from.Year(),
		Month: from.Month(),
		Days:  days,
		Rows:  make(map[string][]model.AttendanceStatus, len(employeeIDs)),
	}
	for _, emp := range employeeIDs {
		grid.Rows[emp] = make([]model.AttendanceStatus, days)
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, emp := range employeeIDs {
		for d := 0; d < days; d++ {
			emp, d := emp, d
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				date := from.AddDate(0, 0, d)
				status, err := c.Classify(gCtx, emp, date)
				if err != nil {
					log.Ctx(ctx).Warn().Err(err).Str("employee_id", emp).Str("date", model.DateKey(date)).Msg("Failed to classify day")
					mu.Lock()
					grid.Errors = append(grid.Errors, CellError{EmployeeID: emp, Date: model.DateKey(date), Err: err, Message: err.Error()})
					mu.Unlock()
					return nil
				}
				// each goroutine owns a distinct slot
				grid.Rows[emp][d] = status
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortCellErrors(grid.Errors)
	return grid, nil
}

func sortCellErrors(errs []CellError) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].EmployeeID != errs[j].EmployeeID {
			return errs[i].EmployeeID < errs[j].EmployeeID
		}
		return errs[i].Date < errs[j].Date
	})
}
