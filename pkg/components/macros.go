package components

import (
	"context"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// ExecMacro runs an X-CUSTOM component in-process.
type ExecMacro func(ctx context.Context, payload map[string]any, wctx *WorkerContext, c *Component) (any, error)

// BuilderMacro customizes the rendered node at the end of Build.
type BuilderMacro func(ctx context.Context, result *BuildResult, node *models.Node, c *Component) error

// SaveMacro runs when a host persists a node of this component.
type SaveMacro func(ctx context.Context, node *models.Node, c *Component) error

// Macros are the executable hooks a component may carry, one slot per kind.
type Macros struct {
	Exec    ExecMacro
	Builder BuilderMacro
	Save    SaveMacro
}

func (m Macros) Has(kind models.MacroKind) bool {
	switch kind {
	case models.MacroExec:
		return m.Exec != nil
	case models.MacroBuilder:
		return m.Builder != nil
	case models.MacroSave:
		return m.Save != nil
	}

	return false
}

// Merge fills the empty slots of m from other.
func (m Macros) Merge(other Macros) Macros {
	if m.Exec == nil {
		m.Exec = other.Exec
	}

	if m.Builder == nil {
		m.Builder = other.Builder
	}

	if m.Save == nil {
		m.Save = other.Save
	}

	return m
}
