package evaluator

import "sync"

// MethodFunc implements a method. self is the receiver.
type MethodFunc func(th *Thread, self Object, args []Object) (Object, error)

// Method is an entry in a class method table.
type Method struct {
	Name string
	// Arity is the number of arguments, or -1 for any number.
	Arity int
	// Private methods can only be called with an implicit receiver.
	Private bool
	Fn      MethodFunc
}

// Class is a method table with single inheritance.
type Class struct {
	Name   string
	Parent *Class

	mu      sync.RWMutex
	methods map[string]*Method
}

func NewClass(name string, parent *Class) *Class {
	return &Class{Name: name, Parent: parent, methods: make(map[string]*Method)}
}

// Define adds or replaces a method.
func (c *Class) Define(m *Method) {
	c.mu.Lock()
	c.methods[m.Name] = m
	c.mu.Unlock()
}

// Lookup finds name on c or its ancestors.
func (c *Class) Lookup(name string) (*Method, bool) {
	for cls := c; cls != nil; cls = cls.Parent {
		cls.mu.RLock()
		m, ok := cls.methods[name]
		cls.mu.RUnlock()
		if ok {
			return m, true
		}
	}
	return nil, false
}

// Builtin classes. Their method tables are filled once in init and only
// read afterwards.
var (
	ObjectClass  = NewClass("Object", nil)
	IntegerClass = NewClass("Integer", ObjectClass)
	FloatClass   = NewClass("Float", ObjectClass)
	StringClass  = NewClass("String", ObjectClass)
	BooleanClass = NewClass("Boolean", ObjectClass)
	NilClass     = NewClass("NilClass", ObjectClass)
	ListClass    = NewClass("List", ObjectClass)
)

func init() {
	registerObjectMethods()
	registerKernelMethods()
	registerNumericMethods()
	registerStringMethods()
	registerListMethods()
	registerNilMethods()
}

func define(c *Class, name string, arity int, fn MethodFunc) {
	c.Define(&Method{Name: name, Arity: arity, Fn: fn})
}

func definePrivate(c *Class, name string, arity int, fn MethodFunc) {
	c.Define(&Method{Name: name, Arity: arity, Private: true, Fn: fn})
}
