package messaging

import (
	"time"

	"attendance.service/internal/core/model"
)

// Event types carried in the EventType message attribute.
const (
	EventPunchImport = "PUNCH_IMPORT"
	EventPayrollSync = "PAYROLL_SYNC"
)

// PunchImportEvent is one chunk of a confirmed biometric import, sent via
// SQS to the import queue.
type PunchImportEvent struct {
	BatchID    string              `json:"batchId"`
	Chunk      int                 `json:"chunk"`
	ChunkCount int                 `json:"chunkCount"`
	Records    []model.PunchRecord `json:"records"`
}

// PayrollSyncEvent asks the payroll worker to push one employee's monthly
// summary to the payroll system.
type PayrollSyncEvent struct {
	EmployeeID  string    `json:"employeeId"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	RequestedAt time.Time `json:"requestedAt"`
}
