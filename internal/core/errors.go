package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrScheduleIntegrity marks overlapping effective schedules for one
	// employee. It signals bad upstream data and must not be retried.
	ErrScheduleIntegrity = errors.New("more than one schedule effective on the same date")

	ErrInvalidEmployeeID = errors.New("employee ID is required")
	ErrInvalidPeriod     = errors.New("invalid year or month")
	ErrNothingToImport   = errors.New("no punch records to import")
)

// ScheduleIntegrityError names the employee, date and conflicting schedules.
type ScheduleIntegrityError struct {
	EmployeeID  string
	Date        time.Time
	ScheduleIDs []string
}

func (e *ScheduleIntegrityError) Error() string {
	return fmt.Sprintf("employee %s has %d schedules effective on %s: [%s]",
		e.EmployeeID, len(e.ScheduleIDs), e.Date.Format("2006-01-02"), strings.Join(e.ScheduleIDs, ", "))
}

func (e *ScheduleIntegrityError) Unwrap() error {
	return ErrScheduleIntegrity
}
