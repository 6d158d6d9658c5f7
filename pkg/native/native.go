// Package native holds the omni-core components that ship with the binary and
// run in-process.
package native

import (
	"context"
	"errors"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/composer"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
)

const Namespace = "omni-core"

var ErrDivisionByZero = errors.New("division by zero")

// Registrar is the part of the component registry native components need.
type Registrar interface {
	Register(format models.ComponentFormat) error
	BindMacros(key string, macros components.Macros)
}

// Composers lists every native component.
func Composers() []*composer.ComponentComposer {
	return []*composer.ComponentComposer{
		textComponent(),
		jsonataComponent(),
		mathComponent(),
		conditionalComponent(),
		logComponent(),
	}
}

// Register adds the native components to reg.
func Register(reg Registrar) error {
	for _, c := range Composers() {
		format := c.Format()

		if err := reg.Register(format); err != nil {
			return fmt.Errorf("native component %s: %w", format.Key(), err)
		}

		if macros := c.Macros(); macros.Exec != nil || macros.Builder != nil || macros.Save != nil {
			reg.BindMacros(format.Key(), macros)
		}
	}

	return nil
}

func textComponent() *composer.ComponentComposer {
	return composer.New(Namespace, "text").
		Title("Text").
		Description("Passes a piece of text through; wired lists are joined line by line.").
		Category("Text Manipulation").
		Tags("base").
		Method(models.MethodPassthrough).
		CreateInput("text", models.TypeString, "text").
		Title("Text").
		Control(components.ControlCodeMirror).
		Add().
		CreateOutput("text", models.TypeString, "text").Title("Text").Add()
}

func jsonataComponent() *composer.ComponentComposer {
	return composer.New(Namespace, "jsonata").
		Title("JSONata Transform").
		Description("Evaluates a JSONata expression against a JSON document.").
		Category("Data Manipulation").
		Tags("base").
		CreateInput("expression", models.TypeString, "").Title("Expression").Required().Add().
		CreateInput("data", models.TypeObject, "").Title("Data").Add().
		CreateOutput("result", models.TypeObject, "").Title("Result").Add().
		Exec(func(_ context.Context, payload map[string]any, wctx *components.WorkerContext, _ *components.Component) (any, error) {
			host, err := wctx.Host()
			if err != nil {
				return nil, err
			}

			expression, _ := payload["expression"].(string)

			out, err := host.Evaluator.Evaluate(expression, payload["data"])
			if err != nil {
				return nil, &components.ScriptError{Field: "expression", Expression: expression, Stage: components.StageDispatch, Err: err}
			}

			return map[string]any{"result": out}, nil
		})
}

func mathComponent() *composer.ComponentComposer {
	return composer.New(Namespace, "math").
		Title("Math").
		Description("Applies a basic arithmetic operation to two numbers.").
		Category("Math").
		CreateInput("a", models.TypeNumber, "").Title("A").Default(0.0).Add().
		CreateInput("b", models.TypeNumber, "").Title("B").Default(0.0).Add().
		CreateInput("op", models.TypeString, "").
		Title("Operation").
		Choices([]string{"add", "subtract", "multiply", "divide"}).
		Default("add").
		Add().
		CreateOutput("result", models.TypeNumber, "").Title("Result").Add().
		Exec(func(_ context.Context, payload map[string]any, _ *components.WorkerContext, _ *components.Component) (any, error) {
			a := sockets.ToNumber(payload["a"])
			b := sockets.ToNumber(payload["b"])

			var result float64

			switch payload["op"] {
			case "subtract":
				result = a - b
			case "multiply":
				result = a * b
			case "divide":
				if b == 0 {
					return nil, ErrDivisionByZero
				}

				result = a / b
			default:
				result = a + b
			}

			return map[string]any{"result": result}, nil
		})
}
