package components

import (
	"context"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
)

// Editor control types.
const (
	ControlSelect     = "AlpineSelectComponent"
	ControlSlider     = "AlpineNumWithSliderComponent"
	ControlNumber     = "AlpineNumComponent"
	ControlToggle     = "AlpineToggleComponent"
	ControlCodeMirror = "AlpineCodeMirrorComponent"
	ControlPassword   = "AlpinePasswordComponent"
	ControlText       = "AlpineTextComponent"
	ControlLabel      = "AlpineLabelComponent"
)

// Numeric formats a number control distinguishes.
const (
	NumberFormatInteger = "integer"
	NumberFormatFloat   = "float"
)

// Pin is a wired port on a rendered node.
type Pin struct {
	Key         string               `json:"key"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Socket      string               `json:"socket"`
	Kind        sockets.Kind         `json:"kind"`
	Direction   models.PortDirection `json:"direction"`
	Required    bool                 `json:"required,omitempty"`
	Array       bool                 `json:"array,omitempty"`
}

// RenderedControl is an editor or bound value holder on a rendered node.
type RenderedControl struct {
	Key            string          `json:"key"`
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	ControlType    string          `json:"controlType"`
	DataType       string          `json:"dataType,omitempty"`
	NumberFormat   string          `json:"numberFormat,omitempty"`
	Socket         string          `json:"socket,omitempty"`
	Readonly       bool            `json:"readonly,omitempty"`
	Displays       string          `json:"displays,omitempty"`
	Placeholder    string          `json:"placeholder,omitempty"`
	Value          any             `json:"value,omitempty"`
	Choices        []models.Choice `json:"choices,omitempty"`
	DynamicChoices any             `json:"dynamicChoices,omitempty"`
	Minimum        *float64        `json:"minimum,omitempty"`
	Maximum        *float64        `json:"maximum,omitempty"`
	Step           *float64        `json:"step,omitempty"`
}

// BuildResult is a component rendered onto one node.
type BuildResult struct {
	Component string            `json:"component"`
	NodeID    string            `json:"nodeId,omitempty"`
	Title     string            `json:"title,omitempty"`
	Category  string            `json:"category,omitempty"`
	Inputs    []Pin             `json:"inputs"`
	Outputs   []Pin             `json:"outputs"`
	Controls  []RenderedControl `json:"controls"`
}

// Input returns the wired input pin with key.
func (r *BuildResult) Input(key string) (Pin, bool) {
	for _, p := range r.Inputs {
		if p.Key == key {
			return p, true
		}
	}

	return Pin{}, false
}

// Control returns the rendered control with key.
func (r *BuildResult) Control(key string) (RenderedControl, bool) {
	for _, c := range r.Controls {
		if c.Key == key {
			return c, true
		}
	}

	return RenderedControl{}, false
}

// Build renders the effective ports and controls of c onto node. Hidden ports
// produce nothing; readonly inputs become controls instead of pins; every
// wired input also gets an editor control for its static value.
func (c *Component) Build(ctx context.Context, reg *sockets.Registry, node *models.Node) (*BuildResult, error) {
	if node == nil {
		node = models.NewNode("", c.Key())
	}

	inputs, err := c.EffectiveInputs(node)
	if err != nil {
		return nil, err
	}

	outputs, err := c.EffectiveOutputs(node)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Component: c.Key(),
		NodeID:    node.ID,
		Title:     c.format.Title,
		Category:  c.format.Category,
		Inputs:    []Pin{},
		Outputs:   []Pin{},
		Controls:  []RenderedControl{},
	}

	for _, key := range sortedKeys(inputs) {
		io := inputs[key]
		if io.Hidden {
			continue
		}

		control := controlFromIO(key, io, node)

		if io.Readonly {
			control.Readonly = true
			result.Controls = append(result.Controls, control)

			continue
		}

		s := SocketFor(reg, io)
		result.Inputs = append(result.Inputs, pinFor(key, io, s, models.PortDirectionInput))

		control.Socket = s.Name()
		result.Controls = append(result.Controls, control)
	}

	for _, key := range sortedKeys(outputs) {
		io := outputs[key]
		if io.Hidden {
			continue
		}

		s := SocketFor(reg, io)
		result.Outputs = append(result.Outputs, pinFor(key, io, s, models.PortDirectionOutput))
	}

	for _, key := range sortedKeys(c.format.Controls) {
		ctl := c.format.Controls[key]
		if ctl.Hidden {
			continue
		}

		result.Controls = append(result.Controls, renderControl(key, ctl, node))
	}

	if c.macros.Builder != nil {
		err = c.macros.Builder(ctx, result, node, c)
		if err != nil {
			return nil, fmt.Errorf("builder macro of %s failed: %w", c.Key(), err)
		}
	}

	return result, nil
}

// SocketKind resolves which socket kind governs a port: customSocket, then
// the primitive type, then the first data type, then number when numeric
// constraints are declared.
func SocketKind(io models.IO) string {
	switch {
	case io.CustomSocket != "":
		return io.CustomSocket
	case io.Type != "":
		return io.Type
	case len(io.DataTypes) > 0 && io.DataTypes[0] != "":
		return io.DataTypes[0]
	case io.HasNumericConstraints():
		return models.TypeNumber
	}

	return string(sockets.KindAny)
}

// SocketFor returns the shared socket governing io.
func SocketFor(reg *sockets.Registry, io models.IO) sockets.Socket {
	return reg.GetOrCreate(SocketKind(io), io.SocketOpts)
}

func pinFor(key string, io models.IO, s sockets.Socket, dir models.PortDirection) Pin {
	return Pin{
		Key:         key,
		Title:       titleOr(io.Title, key),
		Description: io.Description,
		Socket:      s.Name(),
		Kind:        s.Kind(),
		Direction:   dir,
		Required:    io.Required,
		Array:       s.Options().Array,
	}
}

// ControlTypeFor picks the editor for a port: explicit controlType, choices,
// numeric constraints, numeric type, boolean, object, password, free text,
// and finally a label.
func ControlTypeFor(io models.IO) string {
	if io.ControlType != "" {
		return io.ControlType
	}

	if hasChoices(io.Choices) {
		return ControlSelect
	}

	if io.HasNumericConstraints() {
		if io.Minimum != nil && io.Maximum != nil {
			return ControlSlider
		}

		return ControlNumber
	}

	switch io.Type {
	case models.TypeNumber, models.TypeInteger:
		return ControlNumber
	case models.TypeBoolean:
		return ControlToggle
	case models.TypeObject, models.TypeArray:
		return ControlCodeMirror
	case models.TypeString:
		if io.Format == "password" {
			return ControlPassword
		}

		return ControlText
	}

	return ControlLabel
}

// NumberFormatFor distinguishes integer from float editors.
func NumberFormatFor(io models.IO) string {
	switch io.Format {
	case "int", "int32", "int64", NumberFormatInteger:
		return NumberFormatInteger
	case "float", "double":
		return NumberFormatFloat
	}

	if io.Type == models.TypeInteger {
		return NumberFormatInteger
	}

	return NumberFormatFloat
}

func controlFromIO(key string, io models.IO, node *models.Node) RenderedControl {
	ctl := RenderedControl{
		Key:         key,
		Title:       titleOr(io.Title, key),
		Description: io.Description,
		ControlType: ControlTypeFor(io),
		DataType:    io.Type,
		Value:       staticValue(node, key, io.Default),
		Minimum:     io.Minimum,
		Maximum:     io.Maximum,
		Step:        io.Step,
	}

	if ctl.ControlType == ControlSlider || ctl.ControlType == ControlNumber {
		ctl.NumberFormat = NumberFormatFor(io)
	}

	setChoices(&ctl, io.Choices)

	return ctl
}

func renderControl(key string, c models.Control, node *models.Node) RenderedControl {
	controlType := c.ControlType

	switch {
	case hasChoices(c.Choices):
		controlType = ControlSelect
	case controlType == "":
		controlType = ControlTypeFor(models.IO{
			Type:    c.DataType,
			Minimum: c.Minimum,
			Maximum: c.Maximum,
			Step:    c.Step,
		})
	}

	ctl := RenderedControl{
		Key:         key,
		Title:       titleOr(c.Title, key),
		Description: c.Description,
		ControlType: controlType,
		DataType:    c.DataType,
		Readonly:    c.Readonly,
		Displays:    c.Displays,
		Placeholder: c.Placeholder,
		Value:       staticValue(node, key, c.Default),
		Minimum:     c.Minimum,
		Maximum:     c.Maximum,
		Step:        c.Step,
	}

	setChoices(&ctl, c.Choices)

	return ctl
}

func setChoices(ctl *RenderedControl, choices any) {
	if models.IsDynamicChoices(choices) {
		ctl.DynamicChoices = models.Clone(choices)

		return
	}

	if list, ok := models.StaticChoices(choices); ok {
		ctl.Choices = list
	}
}

func hasChoices(choices any) bool {
	if models.IsDynamicChoices(choices) {
		return true
	}

	_, ok := models.StaticChoices(choices)

	return ok
}

func staticValue(node *models.Node, key string, fallback any) any {
	if node != nil {
		if v, ok := node.Data[key]; ok {
			return models.Clone(v)
		}
	}

	return models.Clone(fallback)
}

func titleOr(title, key string) string {
	if title != "" {
		return title
	}

	return key
}
