// Package models defines the component schema, node and execution context models.
package models

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// Primitive data types a port may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Port sources, mirroring where an OpenAPI operation takes the field from.
const (
	SourceParameter    = "parameter"
	SourceRequestBody  = "requestBody"
	SourceResponseBody = "responseBody"
)

// SocketOptions tune how the governing socket marshals a port value.
type SocketOptions struct {
	Array          bool           `json:"array,omitempty"`
	Format         string         `json:"format,omitempty"`
	CustomSettings map[string]any `json:"customSettings,omitempty"`
	CustomAction   string         `json:"customAction,omitempty"`
}

// Setting returns a custom setting by key.
func (o SocketOptions) Setting(key string) (any, bool) {
	if o.CustomSettings == nil {
		return nil, false
	}

	v, ok := o.CustomSettings[key]

	return v, ok
}

// Source tells where a field travels in the outgoing request.
type Source struct {
	SourceType string `json:"sourceType,omitempty"`
	In         string `json:"in,omitempty"` // path, query, header, cookie
}

// Scripts are per-port transforms run around dispatch.
type Scripts struct {
	JSONata string   `json:"jsonata,omitempty"`
	Delete  []string `json:"delete,omitempty"`
}

// Choice is a single selectable option.
type Choice struct {
	Title       string `json:"title"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// IO describes a named input or output port on a component.
type IO struct {
	Name          string        `json:"name"                    validate:"required"`
	Title         string        `json:"title,omitempty"`
	Description   string        `json:"description,omitempty"`
	Type          string        `json:"type,omitempty"          validate:"omitempty,oneof=string number integer boolean object array"`
	DataTypes     []string      `json:"dataTypes,omitempty"`
	CustomSocket  string        `json:"customSocket,omitempty"`
	SocketOpts    SocketOptions `json:"socketOpts,omitempty"`
	Required      bool          `json:"required,omitempty"`
	Hidden        bool          `json:"hidden,omitempty"`
	Readonly      bool          `json:"readonly,omitempty"`
	AllowMultiple bool          `json:"allowMultiple,omitempty"`
	Default       any           `json:"default,omitempty"`
	Choices       any           `json:"choices,omitempty"`
	Minimum       *float64      `json:"minimum,omitempty"`
	Maximum       *float64      `json:"maximum,omitempty"`
	Step          *float64      `json:"step,omitempty"`
	Format        string        `json:"format,omitempty"`
	ControlType   string        `json:"control,omitempty"`
	Source        *Source       `json:"source,omitempty"`
	Scripts       *Scripts      `json:"scripts,omitempty"`
}

// HasNumericConstraints reports whether min, max or step are declared.
func (io IO) HasNumericConstraints() bool {
	return io.Minimum != nil || io.Maximum != nil || io.Step != nil
}

// IsNumeric reports whether the primitive type is number or integer.
func (io IO) IsNumeric() bool {
	return io.Type == TypeNumber || io.Type == TypeInteger
}

// SourceType returns the port source, defaulting to requestBody.
func (io IO) SourceType() string {
	if io.Source == nil || io.Source.SourceType == "" {
		return SourceRequestBody
	}

	return io.Source.SourceType
}

// StaticChoices normalizes a choices declaration into a list. Dynamic choices
// (an object carrying block or map) return nil and ok=false.
func StaticChoices(choices any) ([]Choice, bool) {
	switch c := choices.(type) {
	case nil:
		return nil, false
	case []Choice:
		return c, len(c) > 0
	case []string:
		out := make([]Choice, 0, len(c))
		for _, s := range c {
			out = append(out, Choice{Title: s, Value: s})
		}

		return out, len(out) > 0
	case []any:
		out := make([]Choice, 0, len(c))
		for _, item := range c {
			switch v := item.(type) {
			case map[string]any:
				title, _ := v["title"].(string)
				desc, _ := v["description"].(string)
				value := v["value"]
				if title == "" {
					title = toTitle(value)
				}
				out = append(out, Choice{Title: title, Value: value, Description: desc})
			default:
				out = append(out, Choice{Title: toTitle(v), Value: v})
			}
		}

		return out, len(out) > 0
	}

	return nil, false
}

// IsDynamicChoices reports whether choices are resolved later from a block or map.
func IsDynamicChoices(choices any) bool {
	m, ok := choices.(map[string]any)
	if !ok {
		return false
	}

	_, hasBlock := m["block"]
	_, hasMap := m["map"]

	return hasBlock || hasMap
}
