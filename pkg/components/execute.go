package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// resultKey wraps bare string and non-object responses.
const resultKey = "result"

// Execute runs the node of wctx through the pipeline and commits the final
// payload onto the node's outputs. Stages run strictly in order. Errors are
// returned as *PipelineError; WorkerStart is the variant that also reports them.
func (c *Component) Execute(ctx context.Context, wctx *WorkerContext) (map[string]any, error) {
	host, err := wctx.Host()
	if err != nil {
		return nil, err
	}

	if wctx.Node == nil {
		return nil, c.fail(wctx, StageGather, fmt.Errorf("no node to execute"))
	}

	if wctx.Node.Component != "" && wctx.Node.Component != c.Key() {
		return nil, c.fail(wctx, StageGather, fmt.Errorf("%w: %s", ErrNodeComponentMatch, wctx.Node.Component))
	}

	inputs, err := c.EffectiveInputs(wctx.Node)
	if err != nil {
		return nil, c.fail(wctx, StageGather, err)
	}

	outputs, err := c.EffectiveOutputs(wctx.Node)
	if err != nil {
		return nil, c.fail(wctx, StageGather, err)
	}

	payload := gather(wctx.Node, inputs)
	prune(payload, inputs)

	err = coerceInputs(ctx, host, wctx.SocketEnv(), payload, inputs)
	if err != nil {
		return nil, c.fail(wctx, StageGather, err)
	}

	c.mirrorControls(ctx, wctx, host, models.PortDirectionInput, payload)

	err = applyPortScripts(host.Evaluator, StageInput, payload, inputs)
	if err != nil {
		return nil, c.fail(wctx, StageInput, err)
	}

	payload, err = applyComponentScripts(host.Evaluator, models.ScriptTransformInput, payload, c.format.Scripts[models.ScriptTransformInput])
	if err != nil {
		return nil, c.fail(wctx, StageInput, err)
	}

	req := split(payload, inputs, c.format.Scripts[models.ScriptHoistInput])

	if c.validator != nil {
		res, err := c.validator.Validate(payload)
		if err != nil {
			return nil, c.fail(wctx, StageValidate, err)
		}

		result := res.ToMap()
		wctx.Node.SetOutputs(result)

		return result, nil
	}

	response, err := c.dispatch(ctx, wctx, host, payload, req)
	if err != nil {
		return nil, c.fail(wctx, StageDispatch, err)
	}

	result, err := c.processOutputs(ctx, wctx, host, response, outputs)
	if err != nil {
		return nil, c.fail(wctx, StageOutput, err)
	}

	wctx.Node.SetOutputs(result)

	return result, nil
}

func (c *Component) dispatch(ctx context.Context, wctx *WorkerContext, host *Host, payload map[string]any, req request) (any, error) {
	if c.format.HasFlag(models.FlagNoExecute) {
		return map[string]any{}, nil
	}

	var (
		response any
		err      error
	)

	switch method := strings.ToUpper(c.format.Method); {
	case method == models.MethodNoop:
		response = map[string]any{}
	case method == models.MethodPassthrough:
		response = models.CloneMap(payload)
	case method == models.MethodCustom:
		if c.macros.Exec == nil {
			return nil, &ConfigError{Component: c.Key(), Reason: "X-CUSTOM requires an exec macro", Err: ErrMacroNotFound}
		}

		response, err = c.macros.Exec(ctx, payload, wctx, c)
	case strings.HasPrefix(method, "X-"):
		return nil, &ConfigError{Component: c.Key(), Reason: "unknown pseudo-method " + method, Err: ErrMacroNotFound}
	default:
		if host.API == nil {
			return nil, &ConfigError{Component: c.Key(), Err: ErrNoAPIExecutor}
		}

		response, err = host.API.Execute(ctx, c.Key(), req.Body, protocol.RequestOptions{
			Params:              req.Params,
			ResponseContentType: c.format.ResponseContentType,
		}, protocol.Caller{
			User:      wctx.Job.UserID,
			SessionID: wctx.Job.SessionID,
			JobID:     wctx.Job.JobID,
		})
	}

	if err != nil {
		return nil, err
	}

	if s, ok := response.(string); ok {
		return map[string]any{resultKey: s}, nil
	}

	return response, nil
}

// processOutputs shapes the raw response into the committed payload: result
// field wrapping, output scripts, output sockets, then output-bound controls.
func (c *Component) processOutputs(ctx context.Context, wctx *WorkerContext, host *Host, response any, outputs map[string]models.IO) (map[string]any, error) {
	if c.format.ResultField != "" {
		response = map[string]any{c.format.ResultField: response}
	}

	payload, ok := response.(map[string]any)
	if !ok {
		payload = map[string]any{}
		if response != nil {
			payload[resultKey] = response
		}
	}

	err := applyPortScripts(host.Evaluator, StageOutput, payload, outputs)
	if err != nil {
		return nil, err
	}

	payload, err = applyComponentScripts(host.Evaluator, models.ScriptTransformOutput, payload, c.format.Scripts[models.ScriptTransformOutput])
	if err != nil {
		return nil, err
	}

	err = c.coerceOutputs(ctx, wctx, host, payload, outputs)
	if err != nil {
		return nil, err
	}

	c.mirrorControls(ctx, wctx, host, models.PortDirectionOutput, payload)

	return payload, nil
}

func (c *Component) coerceOutputs(ctx context.Context, wctx *WorkerContext, host *Host, payload map[string]any, outputs map[string]models.IO) error {
	env := wctx.SocketEnv()
	keys := make([]string, 0, len(payload))

	for _, key := range sortedKeys(payload) {
		io, ok := outputs[key]
		if ok && io.CustomSocket != "" && !emptyValue(payload[key]) {
			keys = append(keys, key)
		}
	}

	values := make([]any, len(keys))
	g, gctx := errgroup.WithContext(ctx)

	for i, key := range keys {
		s := SocketFor(host.Sockets, outputs[key])
		value := payload[key]

		g.Go(func() error {
			out, err := s.HandleOutput(gctx, env, value)
			if err != nil {
				return fmt.Errorf("output '%s' (%s): %w", key, s.Name(), err)
			}

			values[i] = out
			host.Metrics.CountCoercion(s.Name(), string(models.PortDirectionOutput))

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}

	for i, key := range keys {
		payload[key] = values[i]
	}

	return nil
}

func emptyValue(v any) bool {
	return v == nil || emptyContainer(v)
}

func (c *Component) fail(wctx *WorkerContext, stage string, err error) error {
	return &PipelineError{Component: c.Key(), NodeID: wctx.NodeID(), Stage: stage, Err: err}
}
