package components

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult is what a validating component commits instead of dispatching.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func (r ValidationResult) ToMap() map[string]any {
	errs := make([]any, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}

	return map[string]any{"isValid": r.IsValid, "errors": errs}
}

// SchemaValidator checks a payload against the JSON schema a component declares.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

func NewSchemaValidator(definition map[string]any) (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("failed to compile validator: %w", err)
	}

	return &SchemaValidator{schema: schema}, nil
}

func (v *SchemaValidator) Validate(payload map[string]any) (ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to validate payload: %w", err)
	}

	out := ValidationResult{IsValid: result.Valid(), Errors: []string{}}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, e.String())
	}

	return out, nil
}
