package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Pseudo-methods dispatched without an outbound API call.
const (
	MethodCustom      = "X-CUSTOM"
	MethodNoop        = "X-NOOP"
	MethodPassthrough = "X-PASSTHROUGH"
)

// Component-level script stages.
const (
	ScriptTransformInput  = "transform:input"
	ScriptHoistInput      = "hoist:input"
	ScriptTransformOutput = "transform:output"
)

// Component flags, addressed by bit position.
const (
	FlagNoExecute        = 0
	FlagHasNativeCode    = 1
	FlagUniqueInWorkflow = 2
)

// MacroKind names an executable hook a component can supply.
type MacroKind string

const (
	MacroExec    MacroKind = "exec"
	MacroBuilder MacroKind = "builder"
	MacroSave    MacroKind = "save"
)

// Control is a UI-bound value holder attached to a node, never wired.
type Control struct {
	Name        string   `json:"name"                  validate:"required"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	ControlType string   `json:"controlType,omitempty"`
	DataType    string   `json:"dataType,omitempty"`
	Displays    string   `json:"displays,omitempty"`
	Default     any      `json:"default,omitempty"`
	Choices     any      `json:"choices,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Step        *float64 `json:"step,omitempty"`
	Readonly    bool     `json:"readonly,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// DisplaysField splits a displays binding ("input:<field>" or "output:<field>").
func (c Control) DisplaysField() (PortDirection, string, bool) {
	dir, field, ok := strings.Cut(c.Displays, ":")
	if !ok || field == "" {
		return "", "", false
	}

	switch PortDirection(dir) {
	case PortDirectionInput, PortDirectionOutput:
		return PortDirection(dir), field, true
	}

	return "", "", false
}

// ComponentFormat is the immutable schema of a component.
type ComponentFormat struct {
	Type                string                `json:"type,omitempty"`
	APINamespace        string                `json:"apiNamespace"       validate:"required"`
	APIOperationID      string                `json:"apiOperationId"     validate:"required"`
	DisplayNamespace    string                `json:"displayNamespace,omitempty"`
	DisplayOperationID  string                `json:"displayOperationId,omitempty"`
	Title               string                `json:"title,omitempty"`
	Description         string                `json:"description,omitempty"`
	Category            string                `json:"category,omitempty"`
	Tags                []string              `json:"tags,omitempty"`
	Method              string                `json:"method,omitempty"`
	Path                string                `json:"path,omitempty"`
	ResponseContentType string                `json:"responseContentType,omitempty"`
	ResultField         string                `json:"resultField,omitempty"`
	Inputs              map[string]IO         `json:"inputs,omitempty"   validate:"dive"`
	Outputs             map[string]IO         `json:"outputs,omitempty"  validate:"dive"`
	Controls            map[string]Control    `json:"controls,omitempty" validate:"dive"`
	Macros              map[MacroKind]string  `json:"macros,omitempty"`
	Scripts             map[string][]string   `json:"scripts,omitempty"`
	Validator           map[string]any        `json:"validator,omitempty"`
	Flags               int                   `json:"flags,omitempty"`
	Security            []map[string][]string `json:"security,omitempty"`
	Meta                map[string]any        `json:"meta,omitempty"`
}

// Key is the registry key of the component: "<namespace>.<operationId>".
func (f ComponentFormat) Key() string {
	return ComponentKey(f.APINamespace, f.APIOperationID)
}

// HasFlag reports whether the flag at the given bit position is set.
func (f ComponentFormat) HasFlag(bit int) bool {
	return f.Flags&(1<<bit) != 0
}

// IsPseudoMethod reports whether dispatch happens in-process.
func (f ComponentFormat) IsPseudoMethod() bool {
	return strings.HasPrefix(strings.ToUpper(f.Method), "X-")
}

// ComponentPatch is a partial override merged on top of a component.
type ComponentPatch struct {
	PatchID        string               `json:"patchId"                  validate:"required"`
	APINamespace   string               `json:"apiNamespace"             validate:"required"`
	APIOperationID string               `json:"apiOperationId"           validate:"required"`
	Title          string               `json:"title,omitempty"`
	Description    string               `json:"description,omitempty"`
	Category       string               `json:"category,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	Method         string               `json:"method,omitempty"`
	Inputs         map[string]IO        `json:"inputs,omitempty"`
	Outputs        map[string]IO        `json:"outputs,omitempty"`
	Controls       map[string]Control   `json:"controls,omitempty"`
	Macros         map[MacroKind]string `json:"macros,omitempty"`
	Scripts        map[string][]string  `json:"scripts,omitempty"`
	Flags          int                  `json:"flags,omitempty"`
	Meta           map[string]any       `json:"meta,omitempty"`

	// Explicit is the document the patch was decoded from. Keys present there
	// are applied even when their value is false, zero or empty.
	Explicit map[string]any `json:"-"`
}

// Key is the key of the component this patch applies to.
func (p ComponentPatch) Key() string {
	return ComponentKey(p.APINamespace, p.APIOperationID)
}

// ComponentKey joins namespace and operation id.
func ComponentKey(namespace, operationID string) string {
	return namespace + "." + operationID
}

func toTitle(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

// Clone returns a deep copy of the schema.
func (f ComponentFormat) Clone() (ComponentFormat, error) {
	var out ComponentFormat

	b, err := json.Marshal(f)
	if err != nil {
		return out, fmt.Errorf("failed to copy component %s: %w", f.Key(), err)
	}

	err = json.Unmarshal(b, &out)
	if err != nil {
		return out, fmt.Errorf("failed to copy component %s: %w", f.Key(), err)
	}

	return out, nil
}

// DecodeFormat decodes a loosely typed document (YAML or JSON decoded into
// maps) into a component schema.
func DecodeFormat(doc map[string]any) (ComponentFormat, error) {
	var f ComponentFormat

	err := decodeLoose(doc, &f)
	if err != nil {
		return f, fmt.Errorf("failed to decode component: %w", err)
	}

	return f, nil
}

// DecodePatch decodes a loosely typed document into a component patch.
func DecodePatch(doc map[string]any) (ComponentPatch, error) {
	var p ComponentPatch

	err := decodeLoose(doc, &p)
	if err != nil {
		return p, fmt.Errorf("failed to decode patch: %w", err)
	}

	p.Explicit = CloneMap(doc)

	return p, nil
}

func decodeLoose(doc map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(doc)
}
