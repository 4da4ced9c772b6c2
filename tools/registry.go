// Package tools defines the tool catalog: descriptors the model can see,
// the registry that dispatches tool invocations to domain modules, and
// the heuristic selector that narrows the catalog per query.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrUnknownTool = errors.New("unknown tool")

// Kind classifies a tool for confirmation gating. Every non-read tool is
// gated; destructive only escalates how the confirmation is presented.
type Kind int

const (
	KindRead Kind = iota
	KindWrite
	KindDestructive
)

type Schema struct {
	Properties map[string]any
	Required   []string
}

type Descriptor struct {
	Name        string
	Description string
	InputSchema Schema
	Kind        Kind
}

// Module is one domain's adapter from the tool contract to its CRUD
// operations. Execute must return a JSON-encodable value or an error;
// it must not be called with a name the module did not define.
type Module interface {
	Name() string
	Definitions() []Descriptor
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

type registryEntry struct {
	module Module
	desc   Descriptor
}

// Registry maps every tool name to its owning module. The table is built
// once at registration; the definitions list is the source of truth.
type Registry struct {
	modules []Module
	byName  map[string]registryEntry
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger, modules ...Module) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		modules: modules,
		byName:  make(map[string]registryEntry),
		logger:  logger,
	}

	for _, module := range modules {
		for _, desc := range module.Definitions() {
			if _, exists := r.byName[desc.Name]; exists {
				return nil, fmt.Errorf("duplicate tool name: %s", desc.Name)
			}
			r.byName[desc.Name] = registryEntry{module: module, desc: desc}
		}
	}

	return r, nil
}

// Definitions returns every descriptor in registration order. The
// ordering is stable across calls.
func (r *Registry) Definitions() []Descriptor {
	var defs []Descriptor
	for _, module := range r.modules {
		defs = append(defs, module.Definitions()...)
	}
	return defs
}

// ModuleDefinitions returns the descriptors of a single named module.
func (r *Registry) ModuleDefinitions(moduleName string) []Descriptor {
	for _, module := range r.modules {
		if module.Name() == moduleName {
			return module.Definitions()
		}
	}
	return nil
}

func (r *Registry) RequiresConfirmation(name string) bool {
	entry, ok := r.byName[name]
	if !ok {
		return false
	}
	return entry.desc.Kind != KindRead
}

func (r *Registry) IsDestructive(name string) bool {
	entry, ok := r.byName[name]
	if !ok {
		return false
	}
	return entry.desc.Kind == KindDestructive
}

// Execute dispatches a tool invocation and JSON-encodes its result.
// Executor faults never propagate: panics are recovered and converted
// into ordinary errors so a misbehaving module cannot crash the turn.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result json.RawMessage, err error) {
	entry, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool executor panicked",
				zap.String("tool", name),
				zap.Any("panic", rec))
			result = nil
			err = fmt.Errorf("tool %s failed: %v", name, rec)
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	value, execErr := entry.module.Execute(ctx, name, args)
	if execErr != nil {
		return nil, execErr
	}

	encoded, marshalErr := json.Marshal(value)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to encode result of %s: %w", name, marshalErr)
	}

	return encoded, nil
}
