package components

import (
	"errors"
	"fmt"
)

var (
	ErrMacroNotFound      = errors.New("macro not found")
	ErrValidatorMissing   = errors.New("validator declared without a schema")
	ErrNoAPIExecutor      = errors.New("no API executor configured")
	ErrScriptResultShape  = errors.New("script must evaluate to an object")
	ErrContextDisposed    = errors.New("worker context already disposed")
	ErrNodeComponentMatch = errors.New("node is bound to a different component")
)

// Pipeline stages, in execution order.
const (
	StageGather   = "gather"
	StageInput    = "input_scripts"
	StageValidate = "validate"
	StageDispatch = "dispatch"
	StageOutput   = "output_scripts"
)

// ScriptError names the field and expression of a failed script evaluation.
type ScriptError struct {
	Field      string
	Expression string
	Stage      string
	Err        error
}

func (e *ScriptError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s script '%s' failed: %v", e.Stage, e.Expression, e.Err)
	}

	return fmt.Sprintf("script for field '%s' ('%s') failed: %v", e.Field, e.Expression, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ConfigError reports a broken component definition.
type ConfigError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("component %s misconfigured: %s: %v", e.Component, e.Reason, e.Err)
	}

	return fmt.Sprintf("component %s misconfigured: %v", e.Component, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PipelineError tags an execution failure with the stage it happened in.
type PipelineError struct {
	Component string
	NodeID    string
	Stage     string
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s (node %s) failed during %s: %v", e.Component, e.NodeID, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
