package telemetry

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceContextSurvivesSQSAttributes(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	otel.SetTracerProvider(tp)

	ctx, producer := tp.Tracer("test").Start(context.Background(), "publish")
	attrs := InjectTraceContext(ctx)
	producer.End()
	require.Contains(t, attrs, "traceparent")

	attrs["EventType"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String("PAYROLL_SYNC")}
	msg := types.Message{
		MessageId:         aws.String("m1"),
		Body:              aws.String(`{"employeeId":"e42","year":2025,"month":6}`),
		MessageAttributes: attrs,
	}

	cctx, consumer := StartSpanFromSQSMessage(context.Background(), msg)
	defer consumer.End()

	assert.Equal(t, producer.SpanContext().TraceID(), consumer.SpanContext().TraceID())
	assert.NotEqual(t, producer.SpanContext().SpanID(), consumer.SpanContext().SpanID())
	assert.Equal(t, "e42", GetEmployeeIDFromContext(cctx))
}

func TestStartSpanFromSQSMessage_ImportChunkHasNoEmployee(t *testing.T) {
	ctx, span := StartSpanFromSQSMessage(context.Background(), types.Message{Body: aws.String(`{"batchId":"b1","records":[]}`)})
	defer span.End()
	assert.Empty(t, GetEmployeeIDFromContext(ctx))
}
