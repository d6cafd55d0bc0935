package interpreter

import (
	"sort"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/value"
)

// Environment maps variable names to values, optionally nested under a parent scope.
type Environment struct {
	values map[string]value.Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]value.Value),
		parent: parent,
	}
}

// Child creates a new scope whose parent is this environment.
func (e *Environment) Child() *Environment {
	return NewEnvironment(e)
}

// Parent exposes the enclosing scope (nil for the outermost one).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (value.Value, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if v, ok := scope.values[name]; ok {
			return v, nil
		}
	}
	return nil, fault.Newf(fault.UndefinedVariableCode, "undefined variable '%s'", name)
}

// Set creates or overwrites a binding in the current scope.
func (e *Environment) Set(name string, v value.Value) {
	e.values[name] = v
}

// Assign updates an existing binding in the nearest scope that holds it.
// Assigning a name that no scope binds is an error; Assign never creates bindings.
func (e *Environment) Assign(name string, v value.Value) error {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.values[name]; ok {
			scope.values[name] = v
			return nil
		}
	}
	return fault.Newf(fault.UnboundAssignmentCode, "undefined variable '%s' must be defined before assignment", name)
}

// Has checks whether a variable is bound in this scope or any parent.
func (e *Environment) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// Keys returns the names bound in this scope in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the bindings visible from this scope; inner scopes shadow outer ones.
func (e *Environment) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value)
	if e.parent != nil {
		out = e.parent.Snapshot()
	}
	for k, v := range e.values {
		out[k] = v
	}
	return out
}
