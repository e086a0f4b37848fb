package evaluator

import "sync"

// Environment is one lexical scope of local variables. Method bodies close
// over the scope they were defined in, so a scope may be read by several
// threads at once.
type Environment struct {
	mu     sync.RWMutex
	vars   map[string]Object
	parent *Environment
}

func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Object)}
}

// NewEnclosedEnvironment opens a scope nested in parent.
func NewEnclosedEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]Object), parent: parent}
}

func (e *Environment) lookup(name string) (Object, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

// Get resolves name from this scope outwards.
func (e *Environment) Get(name string) (Object, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Set declares name in this scope, shadowing outer bindings.
func (e *Environment) Set(name string, val Object) Object {
	e.mu.Lock()
	e.vars[name] = val
	e.mu.Unlock()
	return val
}

// Update assigns to the nearest scope declaring name and reports whether
// one was found.
func (e *Environment) Update(name string, val Object) bool {
	for s := e; s != nil; s = s.parent {
		s.mu.Lock()
		if _, ok := s.vars[name]; ok {
			s.vars[name] = val
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()
	}
	return false
}
