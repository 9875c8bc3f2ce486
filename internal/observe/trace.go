package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// scopeName is the instrumentation scope for all kiosk telemetry.
const scopeName = "github.com/aitofresh/hana"

// Span names for the stages of a kiosk exchange. One exchange produces a
// chat.exchange span; voice input adds a voice.transcribe span and a spoken
// reply adds a speech.synthesize span.
const (
	SpanExchange   = "chat.exchange"
	SpanTranscribe = "voice.transcribe"
	SpanSynthesize = "speech.synthesize"
)

// Tracer returns the kiosk tracer from the globally registered provider.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartSpan starts a span on the kiosk tracer. The caller must end it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartStageSpan starts a client span for one pipeline stage (see the Span*
// constants). The stage's provider call runs under the returned context so
// its latency and failure are attributed to this span.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, stage,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("pipeline.stage", stage)),
	)
}

// CorrelationID returns the active trace ID, which doubles as the correlation
// identifier shown in the X-Correlation-ID response header and in log lines.
// Empty when ctx carries no span with a valid trace ID.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger returns an [slog.Logger] carrying trace_id and span_id from ctx, so
// every log line written during an exchange can be matched to its trace.
// Without an active span it returns the default logger unchanged.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
