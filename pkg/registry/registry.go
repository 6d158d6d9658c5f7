// Package registry holds component definitions keyed by
// "<apiNamespace>.<apiOperationId>", their patches and their macros.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

var (
	ErrNotFound          = errors.New("component not registered")
	ErrInvalidDefinition = errors.New("invalid component definition")
	ErrPatchTarget       = errors.New("patch targets an unknown component")
)

// Operation is where a component's API call goes.
type Operation struct {
	Namespace string
	Method    string
	Path      string
}

// Registry stores immutable component definitions and builds runtime
// components from them with their patches and macros applied. It is safe for
// concurrent use.
type Registry struct {
	logger   *slog.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	formats map[string]models.ComponentFormat
	patches map[string][]models.ComponentPatch
	bound   map[string]components.Macros
	named   map[string]components.Macros
	built   map[string]*components.Component
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		logger:   log.With("module", "component_registry"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		formats:  make(map[string]models.ComponentFormat),
		patches:  make(map[string][]models.ComponentPatch),
		bound:    make(map[string]components.Macros),
		named:    make(map[string]components.Macros),
		built:    make(map[string]*components.Component),
	}
}

// Validate checks a definition's structural constraints.
func (r *Registry) Validate(format models.ComponentFormat) error {
	err := r.validate.Struct(fillNames(format))
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidDefinition, format.Key(), err)
	}

	if format.Validator != nil && len(format.Validator) == 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidDefinition, format.Key(), components.ErrValidatorMissing)
	}

	return nil
}

// Register stores a copy of format, replacing any definition with the same key.
func (r *Registry) Register(format models.ComponentFormat) error {
	format = fillNames(format)

	err := r.Validate(format)
	if err != nil {
		return err
	}

	stored, err := format.Clone()
	if err != nil {
		return err
	}

	key := stored.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.formats[key]; ok {
		r.logger.Debug("Replacing component definition", "component", key)
	}

	r.formats[key] = stored
	delete(r.built, key)

	return nil
}

// RegisterPatch queues a patch on an already registered component. Patches
// apply in registration order; a patch with a known id replaces the old one.
func (r *Registry) RegisterPatch(patch models.ComponentPatch) error {
	err := r.validate.Struct(patch)
	if err != nil {
		return fmt.Errorf("%w patch %s: %w", ErrInvalidDefinition, patch.PatchID, err)
	}

	key := patch.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.formats[key]; !ok {
		return fmt.Errorf("%w: %s", ErrPatchTarget, key)
	}

	list := r.patches[key]
	replaced := false

	for i, p := range list {
		if p.PatchID == patch.PatchID {
			list[i] = patch
			replaced = true
		}
	}

	if !replaced {
		list = append(list, patch)
	}

	r.patches[key] = list
	delete(r.built, key)

	return nil
}

// BindMacros attaches macros directly to the component with key.
func (r *Registry) BindMacros(key string, macros components.Macros) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bound[key] = macros
	delete(r.built, key)
}

// RegisterMacro stores a named macro set that definitions reference through
// their "macros" field.
func (r *Registry) RegisterMacro(name string, macros components.Macros) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.named[name] = macros
	clear(r.built)
}

// Format returns the effective definition of key, patches applied.
func (r *Registry) Format(key string) (models.ComponentFormat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.effectiveFormat(key)
}

// Get returns the runtime component for key.
func (r *Registry) Get(key string) (*components.Component, error) {
	r.mu.RLock()
	c, ok := r.built[key]
	r.mu.RUnlock()

	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.built[key]; ok {
		return c, nil
	}

	format, err := r.effectiveFormat(key)
	if err != nil {
		return nil, err
	}

	macros, err := r.resolveMacros(format)
	if err != nil {
		return nil, err
	}

	c, err = components.New(format, macros)
	if err != nil {
		return nil, err
	}

	r.built[key] = c

	return c, nil
}

// List returns the effective definitions ordered by key.
func (r *Registry) List() []models.ComponentFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.formats))
	for k := range r.formats {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]models.ComponentFormat, 0, len(keys))

	for _, k := range keys {
		f, err := r.effectiveFormat(k)
		if err != nil {
			r.logger.Warn("Skipping component with a broken patch", "component", k, "error", err)

			continue
		}

		out = append(out, f)
	}

	return out
}

// ResolveOperation tells an API executor which method and path key calls.
func (r *Registry) ResolveOperation(key string) (Operation, error) {
	f, err := r.Format(key)
	if err != nil {
		return Operation{}, err
	}

	method := strings.ToUpper(f.Method)
	if method == "" {
		method = "POST"
	}

	path := f.Path
	if path == "" {
		path = "/" + f.APIOperationID
	}

	return Operation{Namespace: f.APINamespace, Method: method, Path: path}, nil
}

func (r *Registry) effectiveFormat(key string) (models.ComponentFormat, error) {
	base, ok := r.formats[key]
	if !ok {
		return models.ComponentFormat{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	format, err := base.Clone()
	if err != nil {
		return models.ComponentFormat{}, err
	}

	for _, p := range r.patches[key] {
		format, err = ApplyPatch(format, p)
		if err != nil {
			return models.ComponentFormat{}, err
		}
	}

	return format, nil
}

// resolveMacros starts from the macros bound to the key and fills every kind
// the definition names from the registered macro sets.
func (r *Registry) resolveMacros(format models.ComponentFormat) (components.Macros, error) {
	macros := r.bound[format.Key()]

	for _, kind := range []models.MacroKind{models.MacroExec, models.MacroBuilder, models.MacroSave} {
		name, ok := format.Macros[kind]
		if !ok || name == "" || macros.Has(kind) {
			continue
		}

		set, ok := r.named[name]
		if !ok || !set.Has(kind) {
			return components.Macros{}, &components.ConfigError{
				Component: format.Key(),
				Reason:    fmt.Sprintf("%s macro '%s' is not registered", kind, name),
				Err:       components.ErrMacroNotFound,
			}
		}

		switch kind {
		case models.MacroExec:
			macros.Exec = set.Exec
		case models.MacroBuilder:
			macros.Builder = set.Builder
		case models.MacroSave:
			macros.Save = set.Save
		}
	}

	return macros, nil
}

// fillNames names ports and controls after their map keys when left blank.
func fillNames(f models.ComponentFormat) models.ComponentFormat {
	f.Inputs = namedPorts(f.Inputs)
	f.Outputs = namedPorts(f.Outputs)

	if f.Controls != nil {
		controls := make(map[string]models.Control, len(f.Controls))

		for k, c := range f.Controls {
			if c.Name == "" {
				c.Name = k
			}

			controls[k] = c
		}

		f.Controls = controls
	}

	return f
}

func namedPorts(ports map[string]models.IO) map[string]models.IO {
	if ports == nil {
		return nil
	}

	out := make(map[string]models.IO, len(ports))

	for k, io := range ports {
		if io.Name == "" {
			io.Name = k
		}

		out[k] = io
	}

	return out
}
