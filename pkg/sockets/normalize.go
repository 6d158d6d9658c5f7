package sockets

import (
	"math"
	"reflect"
	"strings"
)

// asSlice reports whether v is a sequence and returns its elements.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []byte:
		// binary content is a scalar
		return nil, false
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}

		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}

		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

// toList wraps a scalar into a one-element sequence. nil stays empty.
func toList(v any) []any {
	if v == nil {
		return nil
	}

	if s, ok := asSlice(v); ok {
		return s
	}

	return []any{v}
}

// firstOf takes the first element of a sequence, or the value itself.
func firstOf(v any) any {
	s, ok := asSlice(v)
	if !ok {
		return v
	}

	if len(s) == 0 {
		return nil
	}

	return s[0]
}

// nilIfEmpty collapses an empty result sequence to nil.
func nilIfEmpty(s []any) any {
	if len(s) == 0 {
		return nil
	}

	return s
}

// truthy follows the loose truthiness the block authors rely on.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	}

	return true
}

// IsEmpty reports whether a value counts as absent for pruning: nil, an
// empty string, an empty sequence or an empty object.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []byte:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}

	if s, ok := asSlice(v); ok {
		return len(s) == 0
	}

	return false
}

func stringSetting(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}

	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}
