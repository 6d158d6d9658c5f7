package composer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentComposer_Build(t *testing.T) {
	c := New("omni-core", "greet").
		Title("Greet").
		Category("Text").
		Method("POST").
		Path("/greet").
		Tags("text", "demo").
		Script(models.ScriptHoistInput, "options").
		SetFlag(models.FlagUniqueInWorkflow, true).
		SetMacro(models.MacroBuilder, "omni-core.greet.builder")

	c.CreateInput("name", models.TypeString, "").
		Title("Name").
		Required().
		Add().
		CreateInput("mood", models.TypeString, "").
		Choices([]string{"happy", "sad"}).
		Add().
		CreateOutput("image", "", "image").
		Array().
		Delete("debug").
		Add().
		CreateControl("preview").
		Displays("output:image").
		Add()

	f := c.Format()

	assert.Equal(t, "omni-core.greet", f.Key())
	assert.Equal(t, "Greet", f.Title)
	assert.Equal(t, []string{"text", "demo"}, f.Tags)
	assert.True(t, f.HasFlag(models.FlagUniqueInWorkflow))
	assert.False(t, f.HasFlag(models.FlagNoExecute))
	assert.Equal(t, "omni-core.greet.builder", f.Macros[models.MacroBuilder])
	assert.Equal(t, []string{"options"}, f.Scripts[models.ScriptHoistInput])

	require.Contains(t, f.Inputs, "name")
	assert.True(t, f.Inputs["name"].Required)

	choices, ok := models.StaticChoices(f.Inputs["mood"].Choices)
	require.True(t, ok)
	assert.Equal(t, []models.Choice{{Title: "happy", Value: "happy"}, {Title: "sad", Value: "sad"}}, choices)

	require.Contains(t, f.Outputs, "image")
	assert.True(t, f.Outputs["image"].SocketOpts.Array)
	assert.Equal(t, []string{"debug"}, f.Outputs["image"].Scripts.Delete)

	assert.Equal(t, "output:image", f.Controls["preview"].Displays)
}

func TestComponentComposer_SetFlagClears(t *testing.T) {
	c := New("ns", "op").SetFlag(models.FlagNoExecute, true).SetFlag(models.FlagHasNativeCode, true)
	c.SetFlag(models.FlagNoExecute, false)

	assert.Equal(t, 1<<models.FlagHasNativeCode, c.Format().Flags)
}

func TestComponentComposer_DynamicChoicesPassThrough(t *testing.T) {
	dynamic := map[string]any{"block": "omni-core.models", "map": map[string]any{"title": "name"}}

	io := NewIO("model", models.TypeString, "").Choices(dynamic).ToJSON()

	assert.Equal(t, dynamic, io.Choices)
}

func TestComponentComposer_ToJSON(t *testing.T) {
	b, err := New("ns", "op").
		Method(models.MethodNoop).
		CreateInput("n", models.TypeNumber, "").Constraints(0, 1, 0.1).Add().
		ToJSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Equal(t, "ns", doc["apiNamespace"])
	assert.Equal(t, "op", doc["apiOperationId"])
	assert.Equal(t, "X-NOOP", doc["method"])

	n := doc["inputs"].(map[string]any)["n"].(map[string]any)
	assert.InDelta(t, 0.1, n["step"], 1e-9)
}

func TestComponentComposer_ComposeWithExec(t *testing.T) {
	c, err := New("ns", "double").
		CreateInput("n", models.TypeNumber, "").Add().
		Exec(func(_ context.Context, payload map[string]any, _ *components.WorkerContext, _ *components.Component) (any, error) {
			return map[string]any{"n": payload["n"].(float64) * 2}, nil
		}).
		Compose()
	require.NoError(t, err)

	assert.Equal(t, models.MethodCustom, c.Format().Method)
	assert.True(t, c.Macros().Has(models.MacroExec))

	node := models.NewNode("n1", "ns.double")
	node.Data["n"] = 21.0

	wctx, err := components.NewWorkerContext(&components.Host{}, models.NewJobContext("s", "u", "", nil), node)
	require.NoError(t, err)

	out, err := c.Execute(context.Background(), wctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 42.0}, out)
}

func TestPatchComposer(t *testing.T) {
	p := NewPatch("p1", "omni-core", "greet").
		Title("Greet v2").
		Method(models.MethodPassthrough).
		Meta("source", "test")

	p.CreateInput("extra", models.TypeBoolean, "").Default(true).AddToPatch().
		CreateControl("hint").Placeholder("type here").AddToPatch()

	patch := p.Patch()

	assert.Equal(t, "omni-core.greet", patch.Key())
	assert.Equal(t, "p1", patch.PatchID)
	assert.Equal(t, "Greet v2", patch.Title)
	assert.Equal(t, true, patch.Inputs["extra"].Default)
	assert.Equal(t, "type here", patch.Controls["hint"].Placeholder)

	b, err := p.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"patchId":"p1"`)
}

func TestDetachedBuildersDoNotAdd(t *testing.T) {
	assert.Nil(t, NewIO("x", models.TypeString, "").Add())
	assert.Nil(t, NewControl("x").Add())
	assert.Nil(t, NewControl("x").AddToPatch())
}
