package components

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/eventbus"
	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
	"github.com/omnitool-ai/omnitool-sub002/pkg/metrics"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// WorkerStart executes the node and reports failures instead of letting them
// escape unnoticed: the error is logged, written to the node's error output
// and published as a component.error event. The error is still returned so
// the scheduler can decide whether to halt the job.
func (c *Component) WorkerStart(ctx context.Context, wctx *WorkerContext) (outputs map[string]any, err error) {
	host, err := wctx.Host()
	if err != nil {
		return nil, err
	}

	logger := wctx.logger(host).With("component", c.Key())
	started := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, host.Tracer, "component.execute",
		attribute.String(otelhelper.ComponentKey, c.Key()),
		attribute.String(otelhelper.NodeIDKey, wctx.NodeID()),
		attribute.String(otelhelper.JobIDKey, wctx.Job.JobID),
		attribute.String(otelhelper.SessionIDKey, wctx.Job.SessionID),
		attribute.String(otelhelper.MethodKey, c.format.Method),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			outputs = nil
			err = c.fail(wctx, StageDispatch, fmt.Errorf("panic: %v", r))
		}

		elapsed := time.Since(started)

		if err != nil {
			stage := ""

			var pe *PipelineError
			if errors.As(err, &pe) {
				stage = pe.Stage
			}

			logger.ErrorContext(ctx, "Component execution failed", "stage", stage, "error", err)
			otelhelper.RecordFailure(span, err, stage)
			host.Metrics.ObserveExecution(c.Key(), metrics.StatusError, elapsed)

			var se *ScriptError
			if errors.As(err, &se) {
				host.Metrics.CountScriptFailure(se.Stage)
			}

			if wctx.Node != nil {
				if wctx.Node.Outputs == nil {
					wctx.Node.Outputs = make(map[string]any)
				}

				wctx.Node.Outputs[models.ErrorOutputKey] = err.Error()
			}

			c.publish(ctx, wctx, host, events.ComponentError{
				BaseEvent: c.baseEvent(events.ComponentErrorEvent, wctx),
				Error:     err.Error(),
				Stage:     stage,
			})

			return
		}

		logger.DebugContext(ctx, "Component executed", "duration", elapsed)
		host.Metrics.ObserveExecution(c.Key(), metrics.StatusSuccess, elapsed)

		c.publish(ctx, wctx, host, events.ComponentExecuted{
			BaseEvent:  c.baseEvent(events.ComponentExecutedEvent, wctx),
			Outputs:    models.CloneMap(outputs),
			DurationMs: elapsed.Milliseconds(),
		})
	}()

	return c.Execute(ctx, wctx)
}

func (c *Component) baseEvent(eventType events.EventType, wctx *WorkerContext) events.BaseEvent {
	base := events.NewBaseEvent(eventType, wctx.NodeID(), c.Key())
	base.SessionID = wctx.Job.SessionID
	base.JobID = wctx.Job.JobID

	return base
}

// publish hands an event to the host bus keyed by session. Publishing is best
// effort: a failing bus is logged and never fails the node.
func (c *Component) publish(ctx context.Context, wctx *WorkerContext, host *Host, event eventbus.Event) {
	if host.Events == nil {
		return
	}

	err := host.Events.Publish(ctx, wctx.Job.SessionID, event)
	if err != nil {
		wctx.logger(host).WarnContext(ctx, "Failed to publish component event", "type", event.GetType(), "error", err)

		return
	}

	host.Metrics.CountEvent(string(event.GetType()))
}
