package components

import (
	"log/slog"

	"github.com/omnitool-ai/omnitool-sub002/pkg/eventbus"
	"github.com/omnitool-ai/omnitool-sub002/pkg/metrics"
	"github.com/omnitool-ai/omnitool-sub002/pkg/otelhelper"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
	"github.com/omnitool-ai/omnitool-sub002/pkg/template"
	"go.opentelemetry.io/otel/trace"
)

// Host is the application a node execution reaches out to. Nil collaborators
// are allowed; a pipeline that needs one fails with a configuration error.
type Host struct {
	Sockets   *sockets.Registry
	CDN       protocol.CDN
	Fetcher   protocol.Fetcher
	API       protocol.APIExecutor
	Evaluator protocol.Evaluator
	Events    eventbus.EventPublisher
	Metrics   *metrics.Metrics
	Tracer    trace.Tracer
	Logger    *slog.Logger
}

// WithDefaults returns a copy of h with the collaborators every execution
// needs filled in. h itself is never modified, so hosts shared between
// goroutines should be defaulted once and the copy shared.
func (h *Host) WithDefaults() *Host {
	var out Host
	if h != nil {
		out = *h
	}

	if out.Logger == nil {
		out.Logger = slog.Default()
	}

	if out.Sockets == nil {
		out.Sockets = sockets.NewRegistry(out.Logger)
	}

	if out.Evaluator == nil {
		out.Evaluator = template.NewEvaluator()
	}

	if out.Tracer == nil {
		out.Tracer = otelhelper.NoopTracer()
	}

	return &out
}
