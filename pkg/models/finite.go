package models

import "math"

// String forms of the numbers JSON cannot carry.
const (
	PositiveInfinity = "Infinity"
	NegativeInfinity = "-Infinity"
	NotANumber       = "NaN"
)

// NonFiniteString returns the string form of f when it is NaN or infinite.
func NonFiniteString(f float64) (string, bool) {
	switch {
	case math.IsInf(f, 1):
		return PositiveInfinity, true
	case math.IsInf(f, -1):
		return NegativeInfinity, true
	case math.IsNaN(f):
		return NotANumber, true
	}

	return "", false
}

// Finite returns v with every NaN or infinite number replaced by its string
// form, so it can be encoded as JSON. Maps and slices are copied; v is not
// modified.
func Finite(v any) any {
	switch t := v.(type) {
	case float64:
		if s, ok := NonFiniteString(t); ok {
			return s
		}
	case float32:
		if s, ok := NonFiniteString(float64(t)); ok {
			return s
		}
	case map[string]any:
		return FiniteMap(t)
	case map[string][]any:
		if t == nil {
			return t
		}

		out := make(map[string][]any, len(t))
		for k, list := range t {
			out[k] = finiteSlice(list)
		}

		return out
	case []any:
		return finiteSlice(t)
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = Finite(f)
		}

		return out
	}

	return v
}

// FiniteMap is Finite for maps.
func FiniteMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Finite(v)
	}

	return out
}

func finiteSlice(s []any) []any {
	if s == nil {
		return nil
	}

	out := make([]any, len(s))
	for i, v := range s {
		out[i] = Finite(v)
	}

	return out
}
