package main

import (
	"context"
	"log/slog"

	"github.com/omnitool-ai/omnitool-sub002/pkg/apiexec"
	"github.com/omnitool-ai/omnitool-sub002/pkg/cdn"
	"github.com/omnitool-ai/omnitool-sub002/pkg/cmd"
	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/eventbus"
	"github.com/omnitool-ai/omnitool-sub002/pkg/metrics"
	"github.com/omnitool-ai/omnitool-sub002/pkg/otelhelper"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"
)

// runtime is everything a command needs to build and execute components.
type runtime struct {
	logger   *slog.Logger
	registry *registry.Registry
	store    *cdn.Store
	bus      eventbus.EventBus
	metrics  *prometheus.Registry
	tracing  *otelhelper.Tracing
	service  *services.Component
}

func newRuntime(ctx context.Context, command *cli.Command, logger *slog.Logger) (*runtime, error) {
	reg, err := cmd.NewRegistry(ctx, logger, command.String("components"), command.String("plugins-path"))
	if err != nil {
		return nil, err
	}

	apiOpts, err := cmd.ImportOpenAPI(ctx, reg, command.StringSlice("openapi"), logger)
	if err != nil {
		return nil, err
	}

	headerOpts, err := cmd.ParseAPIHeaders(command.StringSlice("api-header"))
	if err != nil {
		return nil, err
	}

	store, err := cmd.NewCDN(command.String("cdn"), command.String("cdn-public-url"), command.Duration("cdn-ttl"), logger)
	if err != nil {
		return nil, err
	}

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	tracing := cmd.NewTracing(ctx, command.Bool("otel"), command.Float("otel-sample-ratio"), "omnitool", logger)

	apiOpts = append(apiOpts, headerOpts...)
	apiOpts = append(apiOpts, apiexec.WithLogger(logger))

	host := &components.Host{
		Sockets: sockets.NewRegistry(logger),
		CDN:     store,
		Fetcher: cdn.NewHTTPFetcher(),
		API:     apiexec.New(reg, apiOpts...),
		Events:  bus,
		Metrics: metrics.New(promReg),
		Tracer:  tracing.Tracer(),
		Logger:  logger,
	}

	return &runtime{
		logger:   logger,
		registry: reg,
		store:    store,
		bus:      bus,
		metrics:  promReg,
		tracing:  tracing,
		service:  services.NewComponent(reg, host),
	}, nil
}

func (r *runtime) Close(ctx context.Context) {
	if err := r.bus.Close(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
	}

	if err := r.tracing.Shutdown(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to flush traces", "error", err)
	}
}
