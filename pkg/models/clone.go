package models

import "time"

// Clone deep-copies JSON-shaped values (maps, slices, scalars). Unlike a JSON
// round-trip it keeps NaN and infinities produced by number coercion.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		return CloneSlice(t)
	case []byte:
		return append([]byte(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case *Handle:
		if t == nil {
			return t
		}

		h := t.Copy()

		return &h
	case Handle:
		return t.Copy()
	case time.Time:
		return t
	default:
		return v
	}
}

// CloneMap deep-copies a map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}

	return out
}

// CloneSlice deep-copies a slice.
func CloneSlice(s []any) []any {
	if s == nil {
		return nil
	}

	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Clone(v)
	}

	return out
}
