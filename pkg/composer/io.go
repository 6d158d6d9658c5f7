package composer

import "github.com/omnitool-ai/omnitool-sub002/pkg/models"

// IOComposer accumulates an input or output port.
type IOComposer struct {
	io     models.IO
	dir    models.PortDirection
	parent *ComponentComposer
	patch  *PatchComposer
}

// NewIO starts a detached port, for use with AddInput or AddOutput.
func NewIO(name, ioType, customSocket string) *IOComposer {
	return newIO(nil, models.PortDirectionInput, name, ioType, customSocket)
}

func newIO(parent *ComponentComposer, dir models.PortDirection, name, ioType, customSocket string) *IOComposer {
	return &IOComposer{
		io: models.IO{
			Name:         name,
			Type:         ioType,
			CustomSocket: customSocket,
		},
		dir:    dir,
		parent: parent,
	}
}

func (b *IOComposer) Title(title string) *IOComposer {
	b.io.Title = title

	return b
}

func (b *IOComposer) Description(description string) *IOComposer {
	b.io.Description = description

	return b
}

func (b *IOComposer) DataTypes(types ...string) *IOComposer {
	b.io.DataTypes = append(b.io.DataTypes, types...)

	return b
}

func (b *IOComposer) Required() *IOComposer {
	b.io.Required = true

	return b
}

func (b *IOComposer) Hidden() *IOComposer {
	b.io.Hidden = true

	return b
}

func (b *IOComposer) Readonly() *IOComposer {
	b.io.Readonly = true

	return b
}

func (b *IOComposer) AllowMultiple() *IOComposer {
	b.io.AllowMultiple = true

	return b
}

func (b *IOComposer) Default(value any) *IOComposer {
	b.io.Default = value

	return b
}

func (b *IOComposer) Choices(choices any) *IOComposer {
	b.io.Choices = normalizeChoices(choices)

	return b
}

// Constraints sets the numeric range and step.
func (b *IOComposer) Constraints(minimum, maximum, step float64) *IOComposer {
	b.io.Minimum = &minimum
	b.io.Maximum = &maximum
	b.io.Step = &step

	return b
}

func (b *IOComposer) Minimum(v float64) *IOComposer {
	b.io.Minimum = &v

	return b
}

func (b *IOComposer) Maximum(v float64) *IOComposer {
	b.io.Maximum = &v

	return b
}

func (b *IOComposer) Format(format string) *IOComposer {
	b.io.Format = format

	return b
}

func (b *IOComposer) Control(controlType string) *IOComposer {
	b.io.ControlType = controlType

	return b
}

// Array makes the governing socket an array socket.
func (b *IOComposer) Array() *IOComposer {
	b.io.SocketOpts.Array = true

	return b
}

// SocketFormat sets the socket's value format, e.g. "base64".
func (b *IOComposer) SocketFormat(format string) *IOComposer {
	b.io.SocketOpts.Format = format

	return b
}

func (b *IOComposer) Setting(key string, value any) *IOComposer {
	if b.io.SocketOpts.CustomSettings == nil {
		b.io.SocketOpts.CustomSettings = make(map[string]any)
	}

	b.io.SocketOpts.CustomSettings[key] = value

	return b
}

// Source sets where the field travels in the request; in is only used for parameters.
func (b *IOComposer) Source(sourceType, in string) *IOComposer {
	b.io.Source = &models.Source{SourceType: sourceType, In: in}

	return b
}

// JSONata sets the expression that overwrites this field.
func (b *IOComposer) JSONata(expression string) *IOComposer {
	b.scripts().JSONata = expression

	return b
}

// Delete lists fields removed after this port's script ran.
func (b *IOComposer) Delete(fields ...string) *IOComposer {
	s := b.scripts()
	s.Delete = append(s.Delete, fields...)

	return b
}

func (b *IOComposer) scripts() *models.Scripts {
	if b.io.Scripts == nil {
		b.io.Scripts = &models.Scripts{}
	}

	return b.io.Scripts
}

// ToJSON returns the port.
func (b *IOComposer) ToJSON() models.IO {
	return b.io
}

// Add attaches the port to the component it was created from.
func (b *IOComposer) Add() *ComponentComposer {
	if b.parent == nil {
		return nil
	}

	if b.dir == models.PortDirectionOutput {
		return b.parent.AddOutput(b.io)
	}

	return b.parent.AddInput(b.io)
}

// AddToPatch attaches the port to the patch it was created from.
func (b *IOComposer) AddToPatch() *PatchComposer {
	if b.patch == nil {
		return nil
	}

	if b.dir == models.PortDirectionOutput {
		return b.patch.AddOutput(b.io)
	}

	return b.patch.AddInput(b.io)
}
