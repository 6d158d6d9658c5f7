package components

import (
	"context"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
)

// applyPortScripts evaluates each port's jsonata expression against the whole
// payload and overwrites the port's field, then removes fields listed in delete.
func applyPortScripts(eval protocol.Evaluator, stage string, payload map[string]any, ports map[string]models.IO) error {
	for _, key := range sortedKeys(ports) {
		scripts := ports[key].Scripts
		if scripts == nil || scripts.JSONata == "" {
			continue
		}

		value, err := eval.Evaluate(scripts.JSONata, payload)
		if err != nil {
			return &ScriptError{Field: key, Expression: scripts.JSONata, Stage: stage, Err: err}
		}

		payload[key] = value
	}

	for _, key := range sortedKeys(ports) {
		scripts := ports[key].Scripts
		if scripts == nil {
			continue
		}

		for _, field := range scripts.Delete {
			delete(payload, field)
		}
	}

	return nil
}

// applyComponentScripts runs a component-level script list in order; each
// expression receives the previous result and must yield an object.
func applyComponentScripts(eval protocol.Evaluator, stage string, payload map[string]any, expressions []string) (map[string]any, error) {
	for _, expression := range expressions {
		value, err := eval.Evaluate(expression, payload)
		if err != nil {
			return nil, &ScriptError{Expression: expression, Stage: stage, Err: err}
		}

		if value == nil {
			payload = map[string]any{}

			continue
		}

		next, ok := value.(map[string]any)
		if !ok {
			return nil, &ScriptError{
				Expression: expression,
				Stage:      stage,
				Err:        fmt.Errorf("%w, got %T", ErrScriptResultShape, value),
			}
		}

		payload = next
	}

	return payload, nil
}

// mirrorControls copies payload fields onto the controls bound to them with
// displays "<direction>:<field>" and notifies the session.
func (c *Component) mirrorControls(ctx context.Context, wctx *WorkerContext, host *Host, dir models.PortDirection, payload map[string]any) {
	for _, key := range sortedKeys(c.format.Controls) {
		d, field, ok := c.format.Controls[key].DisplaysField()
		if !ok || d != dir {
			continue
		}

		value := models.Clone(payload[field])
		wctx.Node.SetData(key, value)

		c.publish(ctx, wctx, host, events.ControlUpdated{
			BaseEvent: c.baseEvent(events.ComponentControlUpdatedEvent, wctx),
			Control:   key,
			Value:     value,
		})
	}
}
