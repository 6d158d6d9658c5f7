package composer

import (
	"encoding/json"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// PatchComposer accumulates an overlay for an existing component.
type PatchComposer struct {
	data models.ComponentPatch
}

// NewPatch starts a patch with id patchID targeting namespace.operationID.
func NewPatch(patchID, namespace, operationID string) *PatchComposer {
	return &PatchComposer{
		data: models.ComponentPatch{
			PatchID:        patchID,
			APINamespace:   namespace,
			APIOperationID: operationID,
		},
	}
}

func (p *PatchComposer) Title(title string) *PatchComposer {
	p.data.Title = title

	return p
}

func (p *PatchComposer) Description(description string) *PatchComposer {
	p.data.Description = description

	return p
}

func (p *PatchComposer) Category(category string) *PatchComposer {
	p.data.Category = category

	return p
}

func (p *PatchComposer) Tags(tags ...string) *PatchComposer {
	p.data.Tags = append(p.data.Tags, tags...)

	return p
}

func (p *PatchComposer) Method(method string) *PatchComposer {
	p.data.Method = method

	return p
}

func (p *PatchComposer) Meta(key string, value any) *PatchComposer {
	if p.data.Meta == nil {
		p.data.Meta = make(map[string]any)
	}

	p.data.Meta[key] = value

	return p
}

func (p *PatchComposer) Script(stage string, expressions ...string) *PatchComposer {
	p.data.Scripts = appendScripts(p.data.Scripts, stage, expressions)

	return p
}

func (p *PatchComposer) SetFlag(bit int, on bool) *PatchComposer {
	p.data.Flags = setFlag(p.data.Flags, bit, on)

	if p.data.Explicit == nil {
		p.data.Explicit = make(map[string]any)
	}

	p.data.Explicit["flags"] = p.data.Flags

	return p
}

func (p *PatchComposer) SetMacro(kind models.MacroKind, name string) *PatchComposer {
	p.data.Macros = setMacro(p.data.Macros, kind, name)

	return p
}

func (p *PatchComposer) CreateInput(name, ioType, customSocket string) *IOComposer {
	b := newIO(nil, models.PortDirectionInput, name, ioType, customSocket)
	b.patch = p

	return b
}

func (p *PatchComposer) CreateOutput(name, ioType, customSocket string) *IOComposer {
	b := newIO(nil, models.PortDirectionOutput, name, ioType, customSocket)
	b.patch = p

	return b
}

func (p *PatchComposer) CreateControl(name string) *ControlComposer {
	b := newControl(nil, name)
	b.patch = p

	return b
}

func (p *PatchComposer) AddInput(io models.IO) *PatchComposer {
	if p.data.Inputs == nil {
		p.data.Inputs = make(map[string]models.IO)
	}

	p.data.Inputs[io.Name] = io

	return p
}

func (p *PatchComposer) AddOutput(io models.IO) *PatchComposer {
	if p.data.Outputs == nil {
		p.data.Outputs = make(map[string]models.IO)
	}

	p.data.Outputs[io.Name] = io

	return p
}

func (p *PatchComposer) AddControl(ctl models.Control) *PatchComposer {
	if p.data.Controls == nil {
		p.data.Controls = make(map[string]models.Control)
	}

	p.data.Controls[ctl.Name] = ctl

	return p
}

// Patch returns the accumulated patch.
func (p *PatchComposer) Patch() models.ComponentPatch {
	return p.data
}

func (p *PatchComposer) ToJSON() ([]byte, error) {
	b, err := json.Marshal(p.data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch %s: %w", p.data.PatchID, err)
	}

	return b, nil
}
