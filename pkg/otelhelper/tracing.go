// Package otelhelper sets up OpenTelemetry tracing for component executions.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attribute keys.
const (
	ComponentKey = "omnitool.component.key"
	NodeIDKey    = "omnitool.node.id"
	JobIDKey     = "omnitool.job.id"
	SessionIDKey = "omnitool.session.id"
	MethodKey    = "omnitool.component.method"
	StageKey     = "omnitool.pipeline.stage"
)

// Config describes the exporter-backed tracer. The OTLP endpoint is read from
// the standard OTEL_EXPORTER_OTLP_* environment variables.
type Config struct {
	ServiceName string
	// SampleRatio outside (0, 1) samples every trace.
	SampleRatio float64
}

// Tracing owns a tracer and whatever must be flushed when the process exits.
type Tracing struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Noop returns tracing that records nothing.
func Noop() *Tracing {
	return &Tracing{
		tracer:   NoopTracer(),
		shutdown: func(context.Context) error { return nil },
	}
}

// Start installs a batching OTLP/HTTP tracer provider as the global one.
func Start(ctx context.Context, cfg Config) (*Tracing, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracing{tracer: provider.Tracer(cfg.ServiceName), shutdown: provider.Shutdown}, nil
}

// Sampler honours the parent's decision and samples roots at ratio.
// nolint:ireturn
func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}

	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// nolint:ireturn
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

// NoopTracer is the tracer hosts fall back to without tracing configured.
// nolint:ireturn
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("omnitool")
}

// nolint:ireturn,spancheck
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordFailure marks span failed at the given pipeline stage.
func RecordFailure(span trace.Span, err error, stage string) {
	span.RecordError(err, trace.WithAttributes(attribute.String(StageKey, stage)))
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(StageKey, stage))
}
