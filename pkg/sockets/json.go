package sockets

import (
	"context"
	"encoding/json"
	"strings"
)

// JSONSocket parses string payloads as JSON and passes structured values through.
type JSONSocket struct {
	base
}

func (s *JSONSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *JSONSocket) HandleInput(_ context.Context, env *Env, value any) (any, error) {
	if s.opts.Array {
		list := toList(value)
		out := make([]any, 0, len(list))
		allNil := true

		for _, v := range list {
			parsed := s.parse(env, v)
			if parsed != nil {
				allNil = false
			}

			out = append(out, parsed)
		}

		if allNil {
			return nil, nil
		}

		return out, nil
	}

	return s.parse(env, firstOf(value)), nil
}

func (s *JSONSocket) HandleOutput(ctx context.Context, env *Env, value any) (any, error) {
	return s.HandleInput(ctx, env, value)
}

// parse never fails: invalid JSON is logged and becomes nil.
func (s *JSONSocket) parse(env *Env, v any) any {
	var raw string

	switch t := v.(type) {
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return v
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var out any

	err := json.Unmarshal([]byte(raw), &out)
	if err != nil {
		env.logger().Error("Failed to parse JSON socket value", "socket", s.name, "error", err)

		return nil
	}

	return out
}
