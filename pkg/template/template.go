// Package template evaluates the JSONata expressions attached to component ports
// and component-level script lists.
package template

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blues/jsonata-go"
)

var (
	ErrEmptyExpression = errors.New("empty expression")
	ErrCompile         = errors.New("failed to compile expression")
	ErrEvaluate        = errors.New("failed to evaluate expression")
)

// Evaluator compiles JSONata expressions once and evaluates them against
// payloads. Compiled expressions are cached by source text.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*jsonata.Expr
	vars  map[string]any
}

type Option func(*Evaluator)

// WithVars binds variables (referenced as $name) into every compiled expression.
func WithVars(vars map[string]any) Option {
	return func(e *Evaluator) {
		for k, v := range vars {
			e.vars[k] = v
		}
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		cache: make(map[string]*jsonata.Expr),
		vars:  make(map[string]any),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Compile returns the cached compiled form of expression.
func (e *Evaluator) Compile(expression string) (*jsonata.Expr, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrEmptyExpression
	}

	e.mu.RLock()
	expr, ok := e.cache[expression]
	e.mu.RUnlock()

	if ok {
		return expr, nil
	}

	expr, err := jsonata.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrCompile, expression, err)
	}

	if len(e.vars) > 0 {
		err = expr.RegisterVars(e.vars)
		if err != nil {
			return nil, fmt.Errorf("%w '%s': %w", ErrCompile, expression, err)
		}
	}

	e.mu.Lock()
	if cached, ok := e.cache[expression]; ok {
		expr = cached
	} else {
		e.cache[expression] = expr
	}
	e.mu.Unlock()

	return expr, nil
}

// Evaluate runs expression against data. An expression that matches nothing
// yields nil without an error.
func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	expr, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	result, err := expr.Eval(data)
	if err != nil {
		if errors.Is(err, jsonata.ErrUndefined) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w '%s': %w", ErrEvaluate, expression, err)
	}

	return result, nil
}

// Len reports how many compiled expressions are cached.
func (e *Evaluator) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.cache)
}
