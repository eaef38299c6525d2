package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender          MessageSender
	importQueueURL  string
	payrollQueueURL string
}

func NewProducer(sender MessageSender, importQueueURL, payrollQueueURL string) *Producer {
	return &Producer{
		sender:          sender,
		importQueueURL:  importQueueURL,
		payrollQueueURL: payrollQueueURL,
	}
}

func NewSQSProducer(client SQSClient, importQueueURL, payrollQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, importQueueURL, payrollQueueURL)
}

func (p *Producer) PublishImport(ctx context.Context, event PunchImportEvent) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.batchId", event.BatchID),
			attribute.Int("app.chunk", event.Chunk),
		)
	}
	return p.publish(ctx, p.importQueueURL, EventPunchImport, event)
}

func (p *Producer) PublishPayroll(ctx context.Context, event PayrollSyncEvent) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("app.employeeId", event.EmployeeID))
	}
	return p.publish(ctx, p.payrollQueueURL, EventPayrollSync, event)
}

func (p *Producer) publish(ctx context.Context, destination, eventType string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, eventType, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
