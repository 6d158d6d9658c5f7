package native

import (
	"context"
	"strconv"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/composer"
	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

func conditionalComponent() *composer.ComponentComposer {
	return composer.New(Namespace, "conditional").
		Title("Conditional").
		Description("Evaluates a JSONata condition against a JSON document and reports whether it holds.").
		Category("Flow").
		Tags("base").
		CreateInput("condition", models.TypeString, "").Title("Condition").Required().Add().
		CreateInput("data", models.TypeObject, "").Title("Data").Add().
		CreateOutput("result", models.TypeBoolean, "").Title("Result").Add().
		CreateOutput("value", models.TypeObject, "").Title("Evaluated Value").Add().
		Exec(func(_ context.Context, payload map[string]any, wctx *components.WorkerContext, _ *components.Component) (any, error) {
			host, err := wctx.Host()
			if err != nil {
				return nil, err
			}

			condition, _ := payload["condition"].(string)

			value, err := host.Evaluator.Evaluate(condition, payload["data"])
			if err != nil {
				return nil, &components.ScriptError{Field: "condition", Expression: condition, Stage: components.StageDispatch, Err: err}
			}

			return map[string]any{"result": truthy(value), "value": value}, nil
		})
}

// truthy converts an evaluated condition to a boolean. Strings go through
// strconv.ParseBool first and are otherwise true when non-empty.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return false
	}
}

func logComponent() *composer.ComponentComposer {
	return composer.New(Namespace, "log").
		Title("Log").
		Description("Writes a message to the server log and passes it through.").
		Category("Utilities").
		CreateInput("message", models.TypeString, "text").Title("Message").Add().
		CreateInput("level", models.TypeString, "").
		Title("Level").
		Choices([]string{"debug", "info", "warn", "error"}).
		Default("info").
		Add().
		CreateInput("data", models.TypeObject, "").Title("Data").Add().
		CreateOutput("message", models.TypeString, "text").Title("Message").Add().
		Exec(func(ctx context.Context, payload map[string]any, wctx *components.WorkerContext, c *components.Component) (any, error) {
			host, err := wctx.Host()
			if err != nil {
				return nil, err
			}

			message, _ := payload["message"].(string)

			level := log.ParseLevel(toString(payload["level"]))

			attrs := []any{"component", c.Key(), "node_id", wctx.NodeID()}
			if data, ok := payload["data"]; ok && data != nil {
				attrs = append(attrs, "data", data)
			}

			host.Logger.Log(ctx, level, message, attrs...)

			return map[string]any{"message": message}, nil
		})
}

func toString(v any) string {
	s, _ := v.(string)

	return s
}
