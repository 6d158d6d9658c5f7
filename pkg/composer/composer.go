// Package composer provides fluent builders that produce component schemas
// and patches in code instead of hand-written documents.
package composer

import (
	"encoding/json"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// ComponentComposer accumulates a component schema draft.
type ComponentComposer struct {
	data   models.ComponentFormat
	macros components.Macros
}

// New starts a component under namespace and operationID.
func New(namespace, operationID string) *ComponentComposer {
	return &ComponentComposer{
		data: models.ComponentFormat{
			Type:           "OAIComponent31",
			APINamespace:   namespace,
			APIOperationID: operationID,
		},
	}
}

func (c *ComponentComposer) Type(t string) *ComponentComposer {
	c.data.Type = t

	return c
}

// Display sets the namespace and operation id shown to users.
func (c *ComponentComposer) Display(namespace, operationID string) *ComponentComposer {
	c.data.DisplayNamespace = namespace
	c.data.DisplayOperationID = operationID

	return c
}

func (c *ComponentComposer) Title(title string) *ComponentComposer {
	c.data.Title = title

	return c
}

func (c *ComponentComposer) Description(description string) *ComponentComposer {
	c.data.Description = description

	return c
}

func (c *ComponentComposer) Category(category string) *ComponentComposer {
	c.data.Category = category

	return c
}

func (c *ComponentComposer) Tags(tags ...string) *ComponentComposer {
	c.data.Tags = append(c.data.Tags, tags...)

	return c
}

// Method sets the HTTP method or X- pseudo-method.
func (c *ComponentComposer) Method(method string) *ComponentComposer {
	c.data.Method = method

	return c
}

func (c *ComponentComposer) Path(path string) *ComponentComposer {
	c.data.Path = path

	return c
}

func (c *ComponentComposer) ResponseContentType(contentType string) *ComponentComposer {
	c.data.ResponseContentType = contentType

	return c
}

// ResultField wraps the raw response under field before output scripts run.
func (c *ComponentComposer) ResultField(field string) *ComponentComposer {
	c.data.ResultField = field

	return c
}

func (c *ComponentComposer) Meta(key string, value any) *ComponentComposer {
	if c.data.Meta == nil {
		c.data.Meta = make(map[string]any)
	}

	c.data.Meta[key] = value

	return c
}

// Validator attaches a JSON schema the payload is checked against instead of dispatching.
func (c *ComponentComposer) Validator(schema map[string]any) *ComponentComposer {
	c.data.Validator = models.CloneMap(schema)

	return c
}

// Script appends expressions to a component-level script stage.
func (c *ComponentComposer) Script(stage string, expressions ...string) *ComponentComposer {
	c.data.Scripts = appendScripts(c.data.Scripts, stage, expressions)

	return c
}

// SetFlag sets or clears the flag at bit position.
func (c *ComponentComposer) SetFlag(bit int, on bool) *ComponentComposer {
	c.data.Flags = setFlag(c.data.Flags, bit, on)

	return c
}

// SetMacro names a registered macro for kind.
func (c *ComponentComposer) SetMacro(kind models.MacroKind, name string) *ComponentComposer {
	c.data.Macros = setMacro(c.data.Macros, kind, name)

	return c
}

// Exec attaches an in-process implementation and switches the method to X-CUSTOM.
func (c *ComponentComposer) Exec(fn components.ExecMacro) *ComponentComposer {
	c.macros.Exec = fn
	c.data.Method = models.MethodCustom

	return c
}

func (c *ComponentComposer) Builder(fn components.BuilderMacro) *ComponentComposer {
	c.macros.Builder = fn

	return c
}

func (c *ComponentComposer) OnSave(fn components.SaveMacro) *ComponentComposer {
	c.macros.Save = fn

	return c
}

// CreateInput starts an input port bound to this component; call Add to attach it.
func (c *ComponentComposer) CreateInput(name, ioType, customSocket string) *IOComposer {
	return newIO(c, models.PortDirectionInput, name, ioType, customSocket)
}

// CreateOutput starts an output port bound to this component; call Add to attach it.
func (c *ComponentComposer) CreateOutput(name, ioType, customSocket string) *IOComposer {
	return newIO(c, models.PortDirectionOutput, name, ioType, customSocket)
}

// CreateControl starts a control bound to this component; call Add to attach it.
func (c *ComponentComposer) CreateControl(name string) *ControlComposer {
	return newControl(c, name)
}

func (c *ComponentComposer) AddInput(io models.IO) *ComponentComposer {
	if c.data.Inputs == nil {
		c.data.Inputs = make(map[string]models.IO)
	}

	c.data.Inputs[io.Name] = io

	return c
}

func (c *ComponentComposer) AddOutput(io models.IO) *ComponentComposer {
	if c.data.Outputs == nil {
		c.data.Outputs = make(map[string]models.IO)
	}

	c.data.Outputs[io.Name] = io

	return c
}

func (c *ComponentComposer) AddControl(ctl models.Control) *ComponentComposer {
	if c.data.Controls == nil {
		c.data.Controls = make(map[string]models.Control)
	}

	c.data.Controls[ctl.Name] = ctl

	return c
}

// Format returns a copy of the accumulated schema.
func (c *ComponentComposer) Format() models.ComponentFormat {
	f, err := c.data.Clone()
	if err != nil {
		return c.data
	}

	return f
}

// ToJSON renders the schema document.
func (c *ComponentComposer) ToJSON() ([]byte, error) {
	b, err := json.Marshal(c.data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode component %s: %w", c.data.Key(), err)
	}

	return b, nil
}

// Macros returns the in-process hooks attached so far.
func (c *ComponentComposer) Macros() components.Macros {
	return c.macros
}

// Compose creates the runtime component with the attached macros.
func (c *ComponentComposer) Compose() (*components.Component, error) {
	return components.New(c.data, c.macros)
}

func appendScripts(scripts map[string][]string, stage string, expressions []string) map[string][]string {
	if scripts == nil {
		scripts = make(map[string][]string)
	}

	scripts[stage] = append(scripts[stage], expressions...)

	return scripts
}

func setFlag(flags, bit int, on bool) int {
	if on {
		return flags | 1<<bit
	}

	return flags &^ (1 << bit)
}

func setMacro(macros map[models.MacroKind]string, kind models.MacroKind, name string) map[models.MacroKind]string {
	if macros == nil {
		macros = make(map[models.MacroKind]string)
	}

	macros[kind] = name

	return macros
}

// normalizeChoices turns string lists into {title, value} pairs. Dynamic
// choices (an object with block or map) pass through untouched.
func normalizeChoices(choices any) any {
	if choices == nil || models.IsDynamicChoices(choices) {
		return choices
	}

	if list, ok := models.StaticChoices(choices); ok {
		return list
	}

	return choices
}
