package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func registerObjectMethods() {
	define(ObjectClass, "==", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		return NativeBoolToBooleanObject(Equal(self, args[0])), nil
	})
	define(ObjectClass, "!=", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		return NativeBoolToBooleanObject(!Equal(self, args[0])), nil
	})
	define(ObjectClass, "!", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return NativeBoolToBooleanObject(!IsTruthy(self)), nil
	})
	define(ObjectClass, "inspect", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: self.Inspect()}, nil
	})
	define(ObjectClass, "to_s", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: Display(self)}, nil
	})
	define(ObjectClass, "class", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: self.Class().Name}, nil
	})
	define(ObjectClass, "nil?", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return FALSE, nil
	})
	define(ObjectClass, "respond_to", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		name, err := stringArg("respond_to", args, 0)
		if err != nil {
			return nil, err
		}
		m, ok := self.Class().Lookup(name)
		return NativeBoolToBooleanObject(ok && !m.Private), nil
	})
}

// Kernel methods are private on Object so they are only reachable as
// implicit-self calls: print(x), not 1.print(x).
func registerKernelMethods() {
	definePrivate(ObjectClass, "print", -1, func(th *Thread, self Object, args []Object) (Object, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Display(a)
		}
		if _, err := fmt.Fprintln(th.out(), strings.Join(parts, " ")); err != nil {
			return nil, Errorf("print: %v", err)
		}
		return NIL, nil
	})
	definePrivate(ObjectClass, "raise", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		return nil, Errorf("%s", Display(args[0]))
	})
	definePrivate(ObjectClass, "assert", -1, func(th *Thread, self Object, args []Object) (Object, error) {
		if len(args) == 0 || len(args) > 2 {
			return nil, Errorf("assert: wrong number of arguments (given %d, expected 1..2)", len(args))
		}
		if IsTruthy(args[0]) {
			return TRUE, nil
		}
		msg := "assertion failed"
		if len(args) == 2 {
			msg = Display(args[1])
		}
		return nil, Errorf("%s", msg)
	})
}

func registerNilMethods() {
	define(NilClass, "nil?", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return TRUE, nil
	})
	define(NilClass, "to_s", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: ""}, nil
	})
}

type arith struct {
	ints   func(a, b int64) (Object, error)
	floats func(a, b float64) (Object, error)
}

func registerNumericMethods() {
	ops := map[string]arith{
		"+": {
			ints:   func(a, b int64) (Object, error) { return &Integer{Value: a + b}, nil },
			floats: func(a, b float64) (Object, error) { return &Float{Value: a + b}, nil },
		},
		"-": {
			ints:   func(a, b int64) (Object, error) { return &Integer{Value: a - b}, nil },
			floats: func(a, b float64) (Object, error) { return &Float{Value: a - b}, nil },
		},
		"*": {
			ints:   func(a, b int64) (Object, error) { return &Integer{Value: a * b}, nil },
			floats: func(a, b float64) (Object, error) { return &Float{Value: a * b}, nil },
		},
		"/": {
			ints: func(a, b int64) (Object, error) {
				if b == 0 {
					return nil, Errorf("divided by 0")
				}
				return &Integer{Value: floorDiv(a, b)}, nil
			},
			floats: func(a, b float64) (Object, error) { return &Float{Value: a / b}, nil },
		},
		"%": {
			ints: func(a, b int64) (Object, error) {
				if b == 0 {
					return nil, Errorf("divided by 0")
				}
				return &Integer{Value: a - b*floorDiv(a, b)}, nil
			},
			floats: func(a, b float64) (Object, error) { return &Float{Value: math.Mod(a, b)}, nil },
		},
		"<": {
			ints:   func(a, b int64) (Object, error) { return NativeBoolToBooleanObject(a < b), nil },
			floats: func(a, b float64) (Object, error) { return NativeBoolToBooleanObject(a < b), nil },
		},
		">": {
			ints:   func(a, b int64) (Object, error) { return NativeBoolToBooleanObject(a > b), nil },
			floats: func(a, b float64) (Object, error) { return NativeBoolToBooleanObject(a > b), nil },
		},
		"<=": {
			ints:   func(a, b int64) (Object, error) { return NativeBoolToBooleanObject(a <= b), nil },
			floats: func(a, b float64) (Object, error) { return NativeBoolToBooleanObject(a <= b), nil },
		},
		">=": {
			ints:   func(a, b int64) (Object, error) { return NativeBoolToBooleanObject(a >= b), nil },
			floats: func(a, b float64) (Object, error) { return NativeBoolToBooleanObject(a >= b), nil },
		},
	}

	for name, op := range ops {
		name, op := name, op
		fn := func(th *Thread, self Object, args []Object) (Object, error) {
			return numericOp(name, op, self, args[0])
		}
		define(IntegerClass, name, 1, fn)
		define(FloatClass, name, 1, fn)
	}

	define(IntegerClass, "-@", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &Integer{Value: -self.(*Integer).Value}, nil
	})
	define(FloatClass, "-@", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &Float{Value: -self.(*Float).Value}, nil
	})
	define(IntegerClass, "abs", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		v := self.(*Integer).Value
		if v < 0 {
			v = -v
		}
		return &Integer{Value: v}, nil
	})
	define(FloatClass, "abs", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &Float{Value: math.Abs(self.(*Float).Value)}, nil
	})
	define(IntegerClass, "to_f", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &Float{Value: float64(self.(*Integer).Value)}, nil
	})
	define(FloatClass, "to_i", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &Integer{Value: int64(self.(*Float).Value)}, nil
	})
	define(IntegerClass, "to_i", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return self, nil
	})
}

func numericOp(name string, op arith, left, right Object) (Object, error) {
	switch l := left.(type) {
	case *Integer:
		switch r := right.(type) {
		case *Integer:
			return op.ints(l.Value, r.Value)
		case *Float:
			return op.floats(float64(l.Value), r.Value)
		}
	case *Float:
		switch r := right.(type) {
		case *Integer:
			return op.floats(l.Value, float64(r.Value))
		case *Float:
			return op.floats(l.Value, r.Value)
		}
	}
	return nil, Errorf("%s can't be coerced into %s for '%s'", right.Class().Name, left.Class().Name, name)
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func registerStringMethods() {
	define(StringClass, "+", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		other, ok := args[0].(*String)
		if !ok {
			return nil, Errorf("no implicit conversion of %s into String", args[0].Class().Name)
		}
		return &String{Value: self.(*String).Value + other.Value}, nil
	})
	define(StringClass, "*", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		n, ok := args[0].(*Integer)
		if !ok || n.Value < 0 {
			return nil, Errorf("String#* expects a non-negative Integer")
		}
		return &String{Value: strings.Repeat(self.(*String).Value, int(n.Value))}, nil
	})
	for _, name := range []string{"<", ">", "<=", ">="} {
		name := name
		define(StringClass, name, 1, func(th *Thread, self Object, args []Object) (Object, error) {
			other, ok := args[0].(*String)
			if !ok {
				return nil, Errorf("comparison of String with %s failed", args[0].Class().Name)
			}
			c := strings.Compare(self.(*String).Value, other.Value)
			switch name {
			case "<":
				return NativeBoolToBooleanObject(c < 0), nil
			case ">":
				return NativeBoolToBooleanObject(c > 0), nil
			case "<=":
				return NativeBoolToBooleanObject(c <= 0), nil
			default:
				return NativeBoolToBooleanObject(c >= 0), nil
			}
		})
	}
	lenFn := func(th *Thread, self Object, args []Object) (Object, error) {
		return &Integer{Value: int64(len([]rune(self.(*String).Value)))}, nil
	}
	define(StringClass, "len", 0, lenFn)
	define(StringClass, "length", 0, lenFn)
	define(StringClass, "upcase", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: strings.ToUpper(self.(*String).Value)}, nil
	})
	define(StringClass, "downcase", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		return &String{Value: strings.ToLower(self.(*String).Value)}, nil
	})
	define(StringClass, "[]", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		runes := []rune(self.(*String).Value)
		i, ok := index(args[0], len(runes))
		if !ok {
			return NIL, nil
		}
		return &String{Value: string(runes[i])}, nil
	})
	define(StringClass, "to_i", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(self.(*String).Value), 10, 64)
		if err != nil {
			return &Integer{Value: 0}, nil
		}
		return &Integer{Value: n}, nil
	})
}

func registerListMethods() {
	define(ListClass, "[]", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		elems := self.(*List).Snapshot()
		i, ok := index(args[0], len(elems))
		if !ok {
			return NIL, nil
		}
		return elems[i], nil
	})
	define(ListClass, "push", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		self.(*List).Push(args[0])
		return self, nil
	})
	lenFn := func(th *Thread, self Object, args []Object) (Object, error) {
		return &Integer{Value: int64(self.(*List).Len())}, nil
	}
	define(ListClass, "len", 0, lenFn)
	define(ListClass, "length", 0, lenFn)
	define(ListClass, "first", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		elems := self.(*List).Snapshot()
		if len(elems) == 0 {
			return NIL, nil
		}
		return elems[0], nil
	})
	define(ListClass, "last", 0, func(th *Thread, self Object, args []Object) (Object, error) {
		elems := self.(*List).Snapshot()
		if len(elems) == 0 {
			return NIL, nil
		}
		return elems[len(elems)-1], nil
	})
	define(ListClass, "+", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		other, ok := args[0].(*List)
		if !ok {
			return nil, Errorf("no implicit conversion of %s into List", args[0].Class().Name)
		}
		return NewList(append(self.(*List).Snapshot(), other.Snapshot()...)...), nil
	})
	define(ListClass, "includes", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		for _, e := range self.(*List).Snapshot() {
			if Equal(e, args[0]) {
				return TRUE, nil
			}
		}
		return FALSE, nil
	})
	define(ListClass, "join", 1, func(th *Thread, self Object, args []Object) (Object, error) {
		sep, err := stringArg("join", args, 0)
		if err != nil {
			return nil, err
		}
		elems := self.(*List).Snapshot()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = Display(e)
		}
		return &String{Value: strings.Join(parts, sep)}, nil
	})
}

// index converts obj to a position in a sequence of length n. Negative
// indexes count from the end.
func index(obj Object, n int) (int, bool) {
	i, ok := obj.(*Integer)
	if !ok {
		return 0, false
	}
	idx := int(i.Value)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

func stringArg(method string, args []Object, i int) (string, error) {
	s, ok := args[i].(*String)
	if !ok {
		return "", Errorf("%s: argument %d must be a String, got %s", method, i+1, args[i].Class().Name)
	}
	return s.Value, nil
}
