package evaluator

import (
	"strings"
	"sync"
)

// List is a mutable ordered collection. Methods that mutate it (push) take
// the lock so lists shared between threads stay consistent.
type List struct {
	mu       sync.RWMutex
	Elements []Object
}

func NewList(elements ...Object) *List {
	return &List{Elements: elements}
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Class() *Class    { return ListClass }
func (l *List) Inspect() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Snapshot returns a copy of the elements.
func (l *List) Snapshot() []Object {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Object, len(l.Elements))
	copy(out, l.Elements)
	return out
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.Elements)
}

func (l *List) Push(obj Object) {
	l.mu.Lock()
	l.Elements = append(l.Elements, obj)
	l.mu.Unlock()
}

// Instance is an object with its own class: the main object of a program
// and objects provided by the host.
type Instance struct {
	Name string
	cls  *Class
}

// NewInstance creates an object of class cls.
func NewInstance(name string, cls *Class) *Instance {
	return &Instance{Name: name, cls: cls}
}

// NewMainObject creates the top-level self of a program. It gets a fresh
// singleton class so methods defined by one program never leak into
// another.
func NewMainObject() *Instance {
	return NewInstance("main", NewClass("main", ObjectClass))
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Class() *Class    { return i.cls }
func (i *Instance) Inspect() string {
	if i.Name != "" {
		return i.Name
	}
	return "#<" + i.cls.Name + ">"
}
