package cmd

import (
	"context"
	"log/slog"

	"github.com/omnitool-ai/omnitool-sub002/pkg/otelhelper"
)

// NewTracing starts OTLP tracing when enabled. An exporter that fails to
// start is logged and tracing falls back to no-op.
func NewTracing(ctx context.Context, enabled bool, sampleRatio float64, serviceName string, logger *slog.Logger) *otelhelper.Tracing {
	if !enabled {
		return otelhelper.Noop()
	}

	tracing, err := otelhelper.Start(ctx, otelhelper.Config{ServiceName: serviceName, SampleRatio: sampleRatio})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize tracer, tracing disabled", "error", err)

		return otelhelper.Noop()
	}

	return tracing
}
