package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitialize_DisabledStillPropagates(t *testing.T) {
	p, err := Initialize(context.Background(), &Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	carrier := MapCarrier{}
	InjectTraceContext(ctx, carrier)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier["traceparent"])
	assert.Contains(t, carrier.Keys(), "traceparent")

	extracted := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), carrier))
	assert.Equal(t, traceID, extracted.TraceID())
	assert.True(t, extracted.IsRemote())
}

func TestRecordResult(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	RecordResult(ok, nil)
	ok.End()
	_, failed := tracer.Start(context.Background(), "failed")
	RecordResult(failed, errors.New("broker down"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "broker down", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
}
