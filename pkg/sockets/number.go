package sockets

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// NumberSocket coerces values to float64, honoring the inf/-inf/nan sentinels.
type NumberSocket struct {
	base
}

func (s *NumberSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *NumberSocket) HandleInput(_ context.Context, _ *Env, value any) (any, error) {
	if s.opts.Array {
		list := toList(value)
		out := make([]any, 0, len(list))
		for _, v := range list {
			out = append(out, ToNumber(v))
		}

		return nilIfEmpty(out), nil
	}

	return ToNumber(firstOf(value)), nil
}

func (s *NumberSocket) HandleOutput(ctx context.Context, env *Env, value any) (any, error) {
	return s.HandleInput(ctx, env, value)
}

// ToNumber converts an arbitrary value into a float64. Unparseable input
// yields NaN, an empty or missing value yields 0.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case uint:
		return float64(t)
	case uint64:
		return float64(t)
	case bool:
		if t {
			return 1
		}

		return 0
	case string:
		return parseNumber(t)
	case []byte:
		return parseNumber(string(t))
	}

	return math.NaN()
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "":
		return 0
	case "inf", "+inf", "infinity":
		return math.Inf(1)
	case "-inf", "-infinity":
		return math.Inf(-1)
	case "nan":
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return f
}

// BooleanSocket coerces values to bool.
type BooleanSocket struct {
	base
}

func (s *BooleanSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *BooleanSocket) HandleInput(_ context.Context, _ *Env, value any) (any, error) {
	if s.opts.Array {
		list := toList(value)
		out := make([]any, 0, len(list))
		for _, v := range list {
			out = append(out, ToBoolean(v))
		}

		return nilIfEmpty(out), nil
	}

	return ToBoolean(firstOf(value)), nil
}

func (s *BooleanSocket) HandleOutput(ctx context.Context, env *Env, value any) (any, error) {
	return s.HandleInput(ctx, env, value)
}

// ToBoolean converts an arbitrary value into a bool. Strings are read as
// words ("true", "no", ...) first and as numbers second.
func ToBoolean(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "no", "off", "0":
			return false
		case "true", "yes", "on", "1":
			return true
		}

		n := parseNumber(t)
		if math.IsNaN(n) {
			return true
		}

		return n != 0
	}

	n := ToNumber(v)

	return n != 0 && !math.IsNaN(n)
}
