package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrEmptyChunk = errors.New("import chunk has no records")

// ImportProcessor persists confirmed punch import chunks. Upserts are keyed
// by (employee, date), so a redelivered chunk rewrites the same rows.
type ImportProcessor struct {
	punches repository.PunchRepository
}

func NewProcessor(punches repository.PunchRepository) *ImportProcessor {
	return &ImportProcessor{punches: punches}
}

func (p *ImportProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, ErrEmptyChunk
	}

	var event messaging.PunchImportEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal punch import event")
		return false, 0, err // Do not retry on malformed message
	}
	if len(event.Records) == 0 {
		return false, 0, ErrEmptyChunk
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.batchId", event.BatchID),
		attribute.Int("app.chunk", event.Chunk),
		attribute.Int("app.records", len(event.Records)),
	)

	n, err := p.punches.Upsert(ctx, event.Records)
	if err != nil {
		delay := worker.Backoff(worker.ReceiveCount(msg))
		return true, delay, fmt.Errorf("failed to upsert chunk %d of batch %s: %w", event.Chunk, event.BatchID, err)
	}

	log.Ctx(ctx).Info().
		Str("batch_id", event.BatchID).
		Int("chunk", event.Chunk).
		Int("chunk_count", event.ChunkCount).
		Int("upserted", n).
		Msg("Punch import chunk stored")
	return false, 0, nil
}
