package emola

import "sort"

// Environment is one scope in a lexical scope chain.
type Environment struct {
	parent *Environment
	values map[string]Value
}

// NewEnvironment creates a scope whose lookups fall back to parent.
// A nil parent makes a global scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent: parent,
		values: map[string]Value{},
	}
}

// Child creates a new scope nested inside e.
func (e *Environment) Child() *Environment {
	return NewEnvironment(e)
}

func (e *Environment) Parent() *Environment {
	return e.parent
}

// Lookup walks from e outward and returns the first binding of name.
func (e *Environment) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.values[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Define binds name in e only. Outer bindings of the same name are shadowed,
// never modified.
func (e *Environment) Define(name string, v Value) {
	e.values[name] = v
}

// local returns the binding of name in e itself, ignoring outer scopes.
func (e *Environment) local(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// restore puts name back to a binding captured with local.
func (e *Environment) restore(name string, v Value, existed bool) {
	if existed {
		e.values[name] = v
		return
	}
	delete(e.values, name)
}

// Names returns the names bound directly in e, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for k := range e.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) Len() int {
	return len(e.values)
}
