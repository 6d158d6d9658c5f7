package components

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
	"golang.org/x/sync/errgroup"
)

// defaultParameterIn is where a parameter travels when its port names no location.
const defaultParameterIn = "query"

// gather collects the raw value of every effective input: the wired value,
// else the node's static field, else the schema default.
func gather(node *models.Node, inputs map[string]models.IO) map[string]any {
	payload := make(map[string]any, len(inputs))

	for key, io := range inputs {
		value, ok := wiredValue(node, key, io.AllowMultiple)

		if !ok || absent(io, value) {
			value, ok = node.Data[key]
		}

		if !ok || absent(io, value) {
			value = io.Default
		}

		payload[key] = models.Clone(value)
	}

	return payload
}

func wiredValue(node *models.Node, key string, allowMultiple bool) (any, bool) {
	values, ok := node.Inputs[key]
	if !ok || len(values) == 0 {
		return nil, false
	}

	if !allowMultiple {
		return values[0], true
	}

	flat := make([]any, 0, len(values))

	for _, v := range values {
		if list, ok := v.([]any); ok {
			flat = append(flat, list...)

			continue
		}

		flat = append(flat, v)
	}

	return flat, true
}

// absent treats nil, and empty strings on numeric fields, as not provided.
func absent(io models.IO, value any) bool {
	if value == nil {
		return true
	}

	s, ok := value.(string)

	return ok && s == "" && io.IsNumeric()
}

// prune removes null fields and empty optional strings, sequences and objects.
func prune(payload map[string]any, inputs map[string]models.IO) {
	for key, value := range payload {
		io := inputs[key]

		if value == nil {
			delete(payload, key)

			continue
		}

		if s, ok := value.(string); ok && io.IsNumeric() {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "inf", "+inf", "infinity":
				payload[key] = math.Inf(1)

				continue
			case "-inf", "-infinity":
				payload[key] = math.Inf(-1)

				continue
			}
		}

		if !io.Required && emptyContainer(value) {
			delete(payload, key)
		}
	}
}

func emptyContainer(value any) bool {
	switch value.(type) {
	case string, []any, []string, map[string]any, []byte:
		return sockets.IsEmpty(value)
	}

	return false
}

// coerceInputs routes every present field with a customSocket through that
// socket. Fields are independent so they are coerced concurrently.
func coerceInputs(ctx context.Context, host *Host, env *sockets.Env, payload map[string]any, inputs map[string]models.IO) error {
	type job struct {
		key    string
		socket sockets.Socket
		value  any
		result any
	}

	var jobs []*job

	for _, key := range sortedKeys(payload) {
		io, ok := inputs[key]
		if !ok || io.CustomSocket == "" || payload[key] == nil {
			continue
		}

		jobs = append(jobs, &job{key: key, socket: SocketFor(host.Sockets, io), value: payload[key]})
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, j := range jobs {
		g.Go(func() error {
			out, err := j.socket.HandleInput(gctx, env, j.value)
			if err != nil {
				return fmt.Errorf("input '%s' (%s): %w", j.key, j.socket.Name(), err)
			}

			j.result = out
			host.Metrics.CountCoercion(j.socket.Name(), string(models.PortDirectionInput))

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}

	for _, j := range jobs {
		if j.result == nil {
			delete(payload, j.key)

			continue
		}

		payload[j.key] = j.result
	}

	return nil
}

// request is the payload split into what an API call sends.
type request struct {
	Body   map[string]any
	Params []protocol.Parameter
}

// split partitions the payload by port source. Fields listed in hoist are
// spread into the top level of the body.
func split(payload map[string]any, inputs map[string]models.IO, hoist []string) request {
	req := request{Body: make(map[string]any)}

	for _, key := range sortedKeys(payload) {
		value := payload[key]
		io, ok := inputs[key]

		if ok && io.SourceType() == models.SourceParameter {
			in := defaultParameterIn
			if io.Source != nil && io.Source.In != "" {
				in = io.Source.In
			}

			req.Params = append(req.Params, protocol.Parameter{Name: key, In: in, Value: value})

			continue
		}

		req.Body[key] = value
	}

	for _, field := range hoist {
		nested, ok := req.Body[field].(map[string]any)
		if !ok {
			continue
		}

		delete(req.Body, field)

		for k, v := range nested {
			req.Body[k] = v
		}
	}

	return req
}
