package worker

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// DefaultConcurrency is how many messages a worker handles at once unless
// configured otherwise.
const DefaultConcurrency = 10

// receiveErrorPause is how long the poller waits after a failed receive.
var receiveErrorPause = 2 * time.Second

type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Processor handles one message. A non-nil error with shouldRetry makes the
// message visible again after retryDelay seconds; a non-nil error without it
// leaves the message for the queue's redrive policy.
type Processor interface {
	Process(ctx context.Context, msg types.Message) (shouldRetry bool, retryDelay int32, err error)
}

// Worker polls a queue and fans messages out to a pool of processors.
type Worker struct {
	client      SQSClient
	queueURL    string
	processor   Processor
	concurrency int
}

func NewWorker(client SQSClient, url string, proc Processor, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Worker{
		client:      client,
		queueURL:    url,
		processor:   proc,
		concurrency: concurrency,
	}
}

// Start polls until ctx is canceled, then waits for in-flight messages.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Str("queue_url", w.queueURL).Int("concurrency", w.concurrency).Msg("SQS worker started, polling for messages")

	messagesCh := make(chan types.Message, w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processMessages(ctx, messagesCh)
		}()
	}

	w.pollMessages(ctx, messagesCh)
	wg.Wait()
	log.Info().Msg("SQS worker stopped")
}

func (w *Worker) pollMessages(ctx context.Context, messagesCh chan<- types.Message) {
	defer close(messagesCh)

	// SQS caps a single receive at 10 messages.
	batch := int32(w.concurrency)
	if batch > 10 {
		batch = 10
	}

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Poller shutting down")
			return
		}

		output, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              &w.queueURL,
			MaxNumberOfMessages:   batch,
			WaitTimeSeconds:       20,
			MessageAttributeNames: []string{"All"},
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{
				types.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("Error receiving messages")
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrorPause):
			}
			continue
		}

		if len(output.Messages) > 0 {
			log.Debug().Int("count", len(output.Messages)).Msg("Received messages")
		}
		for _, msg := range output.Messages {
			messagesCh <- msg
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messagesCh <-chan types.Message) {
	for msg := range messagesCh {
		w.handleSingleMessage(ctx, msg)
	}
}

// handleSingleMessage runs the processor and settles the message: delete on
// success, delay on a retryable failure, leave it alone otherwise.
func (w *Worker) handleSingleMessage(ctx context.Context, msg types.Message) {
	// Settling must still happen while the worker is shutting down.
	ctx = context.WithoutCancel(ctx)

	ctx, span := telemetry.StartSpanFromSQSMessage(ctx, msg)
	defer span.End()

	ctx = logger.EnrichContextWithLogger(ctx)
	if emp := telemetry.GetEmployeeIDFromContext(ctx); emp != "" {
		ctx = log.Ctx(ctx).With().Str("employee_id", emp).Logger().WithContext(ctx)
	}

	shouldRetry, retryDelay, err := w.processor.Process(ctx, msg)

	if err != nil && shouldRetry {
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Int32("retry_delay", retryDelay).Msg("Processing failed, will retry")

		if _, vErr := w.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          &w.queueURL,
			ReceiptHandle:     msg.ReceiptHandle,
			VisibilityTimeout: retryDelay,
		}); vErr != nil {
			log.Ctx(ctx).Error().Err(vErr).Msg("Failed to change message visibility")
		}
		return
	}

	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Msg("Unrecoverable error processing message, will not retry")
		return
	}

	if _, dErr := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &w.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	}); dErr != nil {
		log.Ctx(ctx).Error().Err(dErr).Msg("Failed to delete processed message")
	}
}

// Backoff is the retry delay in seconds after the given number of attempts:
// 10s doubling each time, capped at an hour.
func Backoff(attempts int) int32 {
	backoff := math.Pow(2, float64(attempts)) * 10
	if backoff > 3600 {
		return 3600
	}
	return int32(backoff)
}

// ReceiveCount is how many times SQS has delivered msg, 1 if unknown.
func ReceiveCount(msg types.Message) int {
	n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
