package evaluator

import "strconv"

type ObjectType string

const (
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	STRING_OBJ   = "STRING"
	BOOLEAN_OBJ  = "BOOLEAN"
	NIL_OBJ      = "NIL"
	LIST_OBJ     = "LIST"
	INSTANCE_OBJ = "INSTANCE"
)

// Object is a runtime value. Every value has a class that dynamic
// dispatch resolves methods against.
type Object interface {
	Type() ObjectType
	Inspect() string
	Class() *Class
}

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NIL   = &Nil{}
)

// NativeBoolToBooleanObject returns the shared boolean singleton.
func NativeBoolToBooleanObject(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// IsTruthy reports whether obj counts as true in a condition: everything
// except nil and false.
func IsTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case nil, *Nil:
		return false
	case *Boolean:
		return obj.Value
	default:
		return true
	}
}

// Display renders obj the way print shows it: strings without quotes,
// everything else through Inspect.
func Display(obj Object) string {
	switch obj := obj.(type) {
	case nil:
		return "nil"
	case *String:
		return obj.Value
	default:
		return obj.Inspect()
	}
}

// Equal compares two objects by value. Numbers compare across Integer and
// Float.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Integer:
		switch b := b.(type) {
		case *Integer:
			return a.Value == b.Value
		case *Float:
			return float64(a.Value) == b.Value
		}
		return false
	case *Float:
		switch b := b.(type) {
		case *Integer:
			return a.Value == float64(b.Value)
		case *Float:
			return a.Value == b.Value
		}
		return false
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *List:
		b, ok := b.(*List)
		if !ok {
			return false
		}
		xs, ys := a.Snapshot(), b.Snapshot()
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func quote(s string) string {
	return strconv.Quote(s)
}
