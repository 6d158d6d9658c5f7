// Package components is the component runtime: it renders a component schema
// onto a graph node (build) and runs a node through the execution pipeline
// (gather, scripts, dispatch, outputs, commit).
package components

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// Component is a schema plus the hooks that execute it. It never mutates the
// format it was created from.
type Component struct {
	format    models.ComponentFormat
	macros    Macros
	validator *SchemaValidator
}

// New creates a component from a deep copy of format.
func New(format models.ComponentFormat, macros Macros) (*Component, error) {
	f, err := format.Clone()
	if err != nil {
		return nil, &ConfigError{Component: format.Key(), Reason: "schema is not serializable", Err: err}
	}

	c := &Component{format: f, macros: macros}

	if format.Validator != nil {
		if len(format.Validator) == 0 {
			return nil, &ConfigError{Component: f.Key(), Err: ErrValidatorMissing}
		}

		c.validator, err = NewSchemaValidator(f.Validator)
		if err != nil {
			return nil, &ConfigError{Component: f.Key(), Reason: "invalid validator schema", Err: err}
		}
	}

	return c, nil
}

func (c *Component) Key() string {
	return c.format.Key()
}

// Format returns a copy of the schema.
func (c *Component) Format() models.ComponentFormat {
	f, err := c.format.Clone()
	if err != nil {
		return c.format
	}

	return f
}

func (c *Component) Macros() Macros {
	return c.macros
}

// Save runs the save macro, if any.
func (c *Component) Save(ctx context.Context, node *models.Node) error {
	if c.macros.Save == nil {
		return nil
	}

	return c.macros.Save(ctx, node, c)
}

// EffectiveInputs is the static inputs overlaid with the node's dynamic inputs.
func (c *Component) EffectiveInputs(node *models.Node) (map[string]models.IO, error) {
	var dynamic map[string]models.IO

	if node != nil {
		var err error

		dynamic, err = node.DynamicInputs()
		if err != nil {
			return nil, fmt.Errorf("invalid dynamic inputs on node %s: %w", node.ID, err)
		}
	}

	return mergePorts(c.format.Inputs, dynamic), nil
}

// EffectiveOutputs is the static outputs overlaid with the node's dynamic outputs.
func (c *Component) EffectiveOutputs(node *models.Node) (map[string]models.IO, error) {
	var dynamic map[string]models.IO

	if node != nil {
		var err error

		dynamic, err = node.DynamicOutputs()
		if err != nil {
			return nil, fmt.Errorf("invalid dynamic outputs on node %s: %w", node.ID, err)
		}
	}

	return mergePorts(c.format.Outputs, dynamic), nil
}

func mergePorts(static, dynamic map[string]models.IO) map[string]models.IO {
	out := make(map[string]models.IO, len(static)+len(dynamic))

	for key, io := range static {
		if io.Name == "" {
			io.Name = key
		}

		out[key] = io
	}

	for key, io := range dynamic {
		if io.Name == "" {
			io.Name = key
		}

		out[key] = io
	}

	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
