package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"attendance.service/internal/core/biometric"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultImportChunkSize keeps each queued chunk well under the SQS message
// size limit.
const DefaultImportChunkSize = 500

// ImportPreview is what the user reviews before confirming an import.
type ImportPreview struct {
	BatchID string                         `json:"batchId"`
	Year    int                            `json:"year"`
	Month   time.Month                     `json:"month"`
	Records []model.PunchRecord            `json:"records"`
	Skipped []biometric.MalformedImportRow `json:"skipped,omitempty"`
}

// ImportReceipt acknowledges a confirmed import.
type ImportReceipt struct {
	BatchID string `json:"batchId"`
	Records int    `json:"records"`
	Chunks  int    `json:"chunks"`
}

// ImportService runs the two import phases: a pure preview and a confirm
// that hands the records to the import worker for upserting.
type ImportService struct {
	producer  messaging.Publisher
	chunkSize int
}

func NewImportService(p messaging.Publisher, chunkSize int) *ImportService {
	if chunkSize <= 0 {
		chunkSize = DefaultImportChunkSize
	}
	return &ImportService{producer: p, chunkSize: chunkSize}
}

// Preview reads and normalizes an export without persisting anything. It can
// be called again with different options on the same file.
func (s *ImportService) Preview(ctx context.Context, r io.Reader, filename string, opts biometric.Options) (ImportPreview, error) {
	ctx, span := tracer.Start(ctx, "import_preview", trace.WithAttributes(
		attribute.String("app.filename", filename),
	))
	defer span.End()

	export, err := biometric.ReadExport(r, filename)
	if err != nil {
		span.RecordError(err)
		return ImportPreview{}, err
	}

	opts.HeaderRow = export.HeaderRow
	res, err := biometric.Normalize(export.Header, export.Rows, opts)
	if err != nil {
		span.RecordError(err)
		return ImportPreview{}, err
	}
	if len(export.Skipped) > 0 {
		res.Skipped = append(export.Skipped, res.Skipped...)
	}

	for _, skipped := range res.Skipped {
		log.Ctx(ctx).Debug().Int("row", skipped.Row).Int("column", skipped.Column).Str("value", skipped.Value).Msg(skipped.Reason)
	}
	log.Ctx(ctx).Info().
		Str("filename", filename).
		Int("records", len(res.Records)).
		Int("skipped", len(res.Skipped)).
		Msg("Biometric export normalized")

	span.SetAttributes(attribute.Int("app.records", len(res.Records)), attribute.Int("app.skipped", len(res.Skipped)))
	return ImportPreview{
		BatchID: uuid.NewString(),
		Year:    opts.Year,
		Month:   opts.Month,
		Records: res.Records,
		Skipped: res.Skipped,
	}, nil
}

// Confirm queues the records in chunks. Upserts are keyed by
// (employee, date), so confirming the same batch twice is harmless.
func (s *ImportService) Confirm(ctx context.Context, batchID string, records []model.PunchRecord) (ImportReceipt, error) {
	if len(records) == 0 {
		return ImportReceipt{}, ErrNothingToImport
	}
	for _, r := range records {
		if r.EmployeeID == "" {
			return ImportReceipt{}, ErrInvalidEmployeeID
		}
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	chunks := chunkRecords(records, s.chunkSize)
	for i, chunk := range chunks {
		event := messaging.PunchImportEvent{
			BatchID:    batchID,
			Chunk:      i + 1,
			ChunkCount: len(chunks),
			Records:    chunk,
		}
		if err := s.producer.PublishImport(ctx, event); err != nil {
			return ImportReceipt{}, fmt.Errorf("failed to publish import chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	log.Ctx(ctx).Info().Str("batch_id", batchID).Int("records", len(records)).Int("chunks", len(chunks)).Msg("Import confirmed")
	return ImportReceipt{BatchID: batchID, Records: len(records), Chunks: len(chunks)}, nil
}

func chunkRecords(records []model.PunchRecord, size int) [][]model.PunchRecord {
	var chunks [][]model.PunchRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
