package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greetFormat() models.ComponentFormat {
	return models.ComponentFormat{
		APINamespace:   "omni-core",
		APIOperationID: "greet",
		Title:          "Greet",
		Method:         models.MethodPassthrough,
		Inputs: map[string]models.IO{
			"name": {Type: models.TypeString, Title: "Name"},
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(greetFormat()))

	c, err := r.Get("omni-core.greet")
	require.NoError(t, err)
	assert.Equal(t, "omni-core.greet", c.Key())
	assert.Equal(t, "name", c.Format().Inputs["name"].Name)

	again, err := r.Get("omni-core.greet")
	require.NoError(t, err)
	assert.Same(t, c, again)

	_, err = r.Get("omni-core.missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name   string
		format models.ComponentFormat
	}{
		{name: "missing namespace", format: models.ComponentFormat{APIOperationID: "op"}},
		{name: "unknown port type", format: models.ComponentFormat{
			APINamespace:   "ns",
			APIOperationID: "op",
			Inputs:         map[string]models.IO{"x": {Type: "strng"}},
		}},
		{name: "empty validator", format: models.ComponentFormat{
			APINamespace:   "ns",
			APIOperationID: "op",
			Validator:      map[string]any{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.format)
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestRegistry_PatchOverlay(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(greetFormat()))

	before, err := r.Get("omni-core.greet")
	require.NoError(t, err)

	err = r.RegisterPatch(models.ComponentPatch{
		PatchID:        "p1",
		APINamespace:   "omni-core",
		APIOperationID: "greet",
		Title:          "Greet (patched)",
		Inputs: map[string]models.IO{
			"name":  {Title: "Your name"},
			"extra": {Type: models.TypeNumber},
		},
	})
	require.NoError(t, err)

	f, err := r.Format("omni-core.greet")
	require.NoError(t, err)

	assert.Equal(t, "Greet (patched)", f.Title)
	assert.Equal(t, models.MethodPassthrough, f.Method)
	assert.Equal(t, "Your name", f.Inputs["name"].Title)
	assert.Equal(t, models.TypeString, f.Inputs["name"].Type)
	assert.Equal(t, "name", f.Inputs["name"].Name)
	assert.Equal(t, models.TypeNumber, f.Inputs["extra"].Type)
	assert.Equal(t, "extra", f.Inputs["extra"].Name)

	after, err := r.Get("omni-core.greet")
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	// the stored base is untouched
	assert.Equal(t, "Greet", before.Format().Title)
}

func TestRegistry_PatchReplacedByID(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(greetFormat()))

	patch := models.ComponentPatch{PatchID: "p1", APINamespace: "omni-core", APIOperationID: "greet", Title: "One"}
	require.NoError(t, r.RegisterPatch(patch))

	patch.Title = "Two"
	require.NoError(t, r.RegisterPatch(patch))

	f, err := r.Format("omni-core.greet")
	require.NoError(t, err)
	assert.Equal(t, "Two", f.Title)
}

func TestRegistry_PatchUnknownTarget(t *testing.T) {
	r := NewRegistry(nil)

	err := r.RegisterPatch(models.ComponentPatch{PatchID: "p1", APINamespace: "x", APIOperationID: "y"})
	require.ErrorIs(t, err, ErrPatchTarget)
}

func TestRegistry_NamedMacros(t *testing.T) {
	r := NewRegistry(nil)

	format := models.ComponentFormat{
		APINamespace:   "math",
		APIOperationID: "double",
		Method:         models.MethodCustom,
		Inputs:         map[string]models.IO{"n": {Type: models.TypeNumber}},
		Macros:         map[models.MacroKind]string{models.MacroExec: "double"},
	}
	require.NoError(t, r.Register(format))

	_, err := r.Get("math.double")
	require.ErrorIs(t, err, components.ErrMacroNotFound)

	r.RegisterMacro("double", components.Macros{
		Exec: func(_ context.Context, payload map[string]any, _ *components.WorkerContext, _ *components.Component) (any, error) {
			return map[string]any{"n": payload["n"].(float64) * 2}, nil
		},
	})

	c, err := r.Get("math.double")
	require.NoError(t, err)

	node := models.NewNode("n1", "math.double")
	node.Data["n"] = 4.0

	wctx, err := components.NewWorkerContext(&components.Host{}, models.NewJobContext("s", "u", "", nil), node)
	require.NoError(t, err)

	out, err := c.Execute(context.Background(), wctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 8.0}, out)
}

func TestRegistry_BoundMacrosWin(t *testing.T) {
	r := NewRegistry(nil)

	format := greetFormat()
	format.Macros = map[models.MacroKind]string{models.MacroExec: "not-registered"}
	require.NoError(t, r.Register(format))

	r.BindMacros("omni-core.greet", components.Macros{
		Exec: func(context.Context, map[string]any, *components.WorkerContext, *components.Component) (any, error) {
			return nil, nil
		},
	})

	c, err := r.Get("omni-core.greet")
	require.NoError(t, err)
	assert.True(t, c.Macros().Has(models.MacroExec))
}

func TestRegistry_ResolveOperation(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(models.ComponentFormat{APINamespace: "acme", APIOperationID: "ask"}))
	require.NoError(t, r.Register(models.ComponentFormat{APINamespace: "acme", APIOperationID: "get", Method: "get", Path: "/items/{id}"}))

	op, err := r.ResolveOperation("acme.ask")
	require.NoError(t, err)
	assert.Equal(t, Operation{Namespace: "acme", Method: "POST", Path: "/ask"}, op)

	op, err = r.ResolveOperation("acme.get")
	require.NoError(t, err)
	assert.Equal(t, Operation{Namespace: "acme", Method: "GET", Path: "/items/{id}"}, op)

	_, err = r.ResolveOperation("acme.none")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(models.ComponentFormat{APINamespace: "b", APIOperationID: "two"}))
	require.NoError(t, r.Register(models.ComponentFormat{APINamespace: "a", APIOperationID: "one"}))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.one", list[0].Key())
	assert.Equal(t, "b.two", list[1].Key())
}

const greetYAML = `
apiNamespace: omni-core
apiOperationId: greet
title: Greet
method: X-PASSTHROUGH
inputs:
  name:
    type: string
  temperature:
    type: number
    minimum: 0
    maximum: 1
    step: 0.01
outputs:
  name:
    type: string
---
patchId: greet-title
apiNamespace: omni-core
apiOperationId: greet
title: Say hello
`

const imagesJSON = `[
  {"apiNamespace": "omni-core", "apiOperationId": "image", "method": "X-NOOP",
   "inputs": {"img": {"customSocket": "image", "socketOpts": {"array": true}}}}
]`

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.yaml"), []byte(greetYAML), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "media"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "media", "images.json"), []byte(imagesJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	r := NewRegistry(nil)

	result, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Components: 2, Patches: 1}, result)

	greet, err := r.Format("omni-core.greet")
	require.NoError(t, err)
	assert.Equal(t, "Say hello", greet.Title)
	require.NotNil(t, greet.Inputs["temperature"].Maximum)
	assert.InDelta(t, 1.0, *greet.Inputs["temperature"].Maximum, 1e-9)

	image, err := r.Format("omni-core.image")
	require.NoError(t, err)
	assert.Equal(t, "image", image.Inputs["img"].CustomSocket)
	assert.True(t, image.Inputs["img"].SocketOpts.Array)
}

func TestRegistry_LoadDirRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("title: no keys\n"), 0o600))

	_, err := NewRegistry(nil).LoadDir(dir)
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestRegistry_LoadMacroPluginsEmptyDir(t *testing.T) {
	count, err := NewRegistry(nil).LoadMacroPlugins(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, count)
}
