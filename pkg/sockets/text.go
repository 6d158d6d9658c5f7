package sockets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

const defaultArraySeparator = "\n"

// isoLayout matches the millisecond ISO-8601 form dates are rendered in.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// TextSocket stringifies arbitrary values.
type TextSocket struct {
	base
}

func (s *TextSocket) CompatibleWith(other Socket, noReverse bool) bool {
	return compatible(s, &s.base, other, noReverse)
}

func (s *TextSocket) HandleInput(_ context.Context, _ *Env, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	list, isList := asSlice(value)

	if s.opts.Array {
		if !isList {
			list = []any{value}
		}

		out := make([]any, 0, len(list))
		for _, v := range s.filter(list) {
			out = append(out, Stringify(v))
		}

		return nilIfEmpty(out), nil
	}

	if !isList {
		text := Stringify(value)
		if text == "" {
			return nil, nil
		}

		return text, nil
	}

	parts := make([]string, 0, len(list))
	for _, v := range s.filter(list) {
		parts = append(parts, Stringify(v))
	}

	sep, _ := s.setting(SettingArraySeparator)

	joined := strings.Join(parts, stringSetting(sep, defaultArraySeparator))
	if joined == "" {
		return nil, nil
	}

	return joined, nil
}

func (s *TextSocket) HandleOutput(ctx context.Context, env *Env, value any) (any, error) {
	return s.HandleInput(ctx, env, value)
}

func (s *TextSocket) filter(list []any) []any {
	if !s.boolSetting(SettingFilterEmpty) {
		return list
	}

	out := make([]any, 0, len(list))
	for _, v := range list {
		if truthy(v) {
			out = append(out, v)
		}
	}

	return out
}

// Stringify renders a value as text: dates as ISO-8601, stored resources as
// their fid:// URI, structured values as indented JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.UTC().Format(isoLayout)
	case *time.Time:
		if t == nil {
			return ""
		}

		return t.UTC().Format(isoLayout)
	case models.Handle:
		if t.FID != "" && t.FURL != "" {
			return t.FURL
		}

		return prettyJSON(t.WithoutData())
	case *models.Handle:
		if t == nil {
			return ""
		}

		return Stringify(*t)
	case map[string]any:
		fid, _ := t["fid"].(string)
		furl, _ := t["furl"].(string)

		if fid != "" && furl != "" {
			return furl
		}

		return prettyJSON(t)
	case fmt.Stringer:
		return t.String()
	}

	return prettyJSON(v)
}

func formatFloat(f float64) string {
	if s, ok := models.NonFiniteString(f); ok {
		return s
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}
