package services

import (
	"errors"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrEmptyKey        = errors.New("component key cannot be empty")
	ErrNodeKeyMismatch = errors.New("node is bound to a different component")

	ErrComponentNotFound = registry.ErrNotFound
)

// Kind groups service failures by who has to act on them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	// KindExecution is a failure inside the component pipeline; the node's
	// outputs, including its error output, are still meaningful.
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid_request"
	case KindNotFound:
		return "not_found"
	case KindExecution:
		return "execution_failed"
	default:
		return "internal_error"
	}
}

// ServiceError records which operation failed and a stable error code.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Message
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func invalid(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

func wrap(op, code string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Err: err}
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	var (
		pe *components.PipelineError
		ce *components.ConfigError
	)

	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrEmptyKey), errors.Is(err, ErrNodeKeyMismatch):
		return KindInvalid
	case errors.Is(err, ErrComponentNotFound):
		return KindNotFound
	case errors.As(err, &pe), errors.As(err, &ce):
		return KindExecution
	default:
		return KindInternal
	}
}

// CodeOf returns the code of the outermost ServiceError, or the kind's name.
func CodeOf(err error) string {
	var se *ServiceError
	if errors.As(err, &se) && se.Code != "" {
		return se.Code
	}

	return KindOf(err).String()
}
