package composer

import "github.com/omnitool-ai/omnitool-sub002/pkg/models"

// ControlComposer accumulates a control.
type ControlComposer struct {
	ctl    models.Control
	parent *ComponentComposer
	patch  *PatchComposer
}

// NewControl starts a detached control.
func NewControl(name string) *ControlComposer {
	return newControl(nil, name)
}

func newControl(parent *ComponentComposer, name string) *ControlComposer {
	return &ControlComposer{ctl: models.Control{Name: name}, parent: parent}
}

func (b *ControlComposer) Title(title string) *ControlComposer {
	b.ctl.Title = title

	return b
}

func (b *ControlComposer) Description(description string) *ControlComposer {
	b.ctl.Description = description

	return b
}

func (b *ControlComposer) ControlType(controlType string) *ControlComposer {
	b.ctl.ControlType = controlType

	return b
}

func (b *ControlComposer) DataType(dataType string) *ControlComposer {
	b.ctl.DataType = dataType

	return b
}

// Displays binds the control to a payload field, "input:<field>" or "output:<field>".
func (b *ControlComposer) Displays(binding string) *ControlComposer {
	b.ctl.Displays = binding

	return b
}

func (b *ControlComposer) Default(value any) *ControlComposer {
	b.ctl.Default = value

	return b
}

func (b *ControlComposer) Choices(choices any) *ControlComposer {
	b.ctl.Choices = normalizeChoices(choices)

	return b
}

func (b *ControlComposer) Constraints(minimum, maximum, step float64) *ControlComposer {
	b.ctl.Minimum = &minimum
	b.ctl.Maximum = &maximum
	b.ctl.Step = &step

	return b
}

func (b *ControlComposer) Readonly() *ControlComposer {
	b.ctl.Readonly = true

	return b
}

func (b *ControlComposer) Hidden() *ControlComposer {
	b.ctl.Hidden = true

	return b
}

func (b *ControlComposer) Placeholder(placeholder string) *ControlComposer {
	b.ctl.Placeholder = placeholder

	return b
}

func (b *ControlComposer) ToJSON() models.Control {
	return b.ctl
}

// Add attaches the control to the component it was created from.
func (b *ControlComposer) Add() *ComponentComposer {
	if b.parent == nil {
		return nil
	}

	return b.parent.AddControl(b.ctl)
}

// AddToPatch attaches the control to the patch it was created from.
func (b *ControlComposer) AddToPatch() *PatchComposer {
	if b.patch == nil {
		return nil
	}

	return b.patch.AddControl(b.ctl)
}
