package calltrace

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/funvibe/calltrace/internal/evaluator"
)

var (
	objectType = reflect.TypeOf((*evaluator.Object)(nil)).Elem()
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// ToObject converts a Go value: integers, floats, bools, strings, nil,
// slices and arrays of those, and Objects as they are.
func ToObject(val interface{}) (Object, error) {
	if val == nil {
		return evaluator.NIL, nil
	}
	if obj, ok := val.(evaluator.Object); ok {
		return obj, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &evaluator.Integer{Value: v.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows Integer", ErrUnsupported, u)
		}
		return &evaluator.Integer{Value: int64(u)}, nil
	case reflect.Float32, reflect.Float64:
		return &evaluator.Float{Value: v.Float()}, nil
	case reflect.Bool:
		return evaluator.NativeBoolToBooleanObject(v.Bool()), nil
	case reflect.String:
		return &evaluator.String{Value: v.String()}, nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return evaluator.NIL, nil
		}
		elements := make([]evaluator.Object, v.Len())
		for i := range elements {
			el, err := ToObject(v.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			elements[i] = el
		}
		return evaluator.NewList(elements...), nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return evaluator.NIL, nil
		}
		return ToObject(v.Elem().Interface())
	}
	return nil, fmt.Errorf("%w: cannot convert %T", ErrUnsupported, val)
}

// FromObject converts obj to a Go value. target is optional; when given the
// result is converted to it where possible. Integers default to int and
// lists to []interface{}; instances are returned as Objects.
func FromObject(obj Object, target reflect.Type) (interface{}, error) {
	if obj == nil {
		return nil, nil
	}
	if target == objectType {
		return obj, nil
	}

	switch o := obj.(type) {
	case *evaluator.Integer:
		if target != nil && kindFamily(target.Kind()) != otherFamily {
			rv, err := assign(o.Value, target)
			if err != nil {
				return nil, err
			}
			return rv.Interface(), nil
		}
		return int(o.Value), nil
	case *evaluator.Float:
		if target != nil && target.Kind() == reflect.Float32 {
			return float32(o.Value), nil
		}
		return o.Value, nil
	case *evaluator.String:
		return o.Value, nil
	case *evaluator.Boolean:
		return o.Value, nil
	case *evaluator.Nil:
		return nil, nil
	case *evaluator.List:
		return listToSlice(o, target)
	case *evaluator.Instance:
		return o, nil
	}
	return nil, fmt.Errorf("%w: cannot convert %s", ErrUnsupported, obj.Type())
}

func listToSlice(l *evaluator.List, target reflect.Type) (interface{}, error) {
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if target != nil && target.Kind() == reflect.Slice {
		elemType = target.Elem()
	}

	els := l.Snapshot()
	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(els))
	for i, el := range els {
		val, err := FromObject(el, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		rv, err := assign(val, elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		slice = reflect.Append(slice, rv)
	}
	return slice.Interface(), nil
}

type family int

const (
	otherFamily family = iota
	intFamily
	floatFamily
	stringFamily
)

func kindFamily(k reflect.Kind) family {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return intFamily
	case reflect.Float32, reflect.Float64:
		return floatFamily
	case reflect.String:
		return stringFamily
	}
	return otherFamily
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// assign converts val to t. Integers convert to any integer or float type
// that holds them; floats never become integers and nothing becomes a
// string.
func assign(val interface{}, t reflect.Type) (reflect.Value, error) {
	if val == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	from, to := kindFamily(rv.Kind()), kindFamily(t.Kind())
	switch {
	case from == intFamily && to == intFamily:
		if integerOverflows(rv, t) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", val, t)
		}
		return rv.Convert(t), nil
	case from == intFamily && to == floatFamily,
		from == floatFamily && to == floatFamily,
		from == stringFamily && to == stringFamily:
		return rv.Convert(t), nil
	case from == otherFamily && rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", rv.Type(), t)
}

func integerOverflows(v reflect.Value, t reflect.Type) bool {
	z := reflect.Zero(t)
	if isUnsigned(v.Kind()) {
		u := v.Uint()
		if isUnsigned(t.Kind()) {
			return z.OverflowUint(u)
		}
		return u > math.MaxInt64 || z.OverflowInt(int64(u))
	}
	n := v.Int()
	if isUnsigned(t.Kind()) {
		return n < 0 || z.OverflowUint(uint64(n))
	}
	return z.OverflowInt(n)
}

// NewObject builds a host object whose methods are Go functions. Each
// function takes its arguments in call order and returns nothing, a value,
// an error, or a value and an error. A returned error becomes a runtime
// error of the calling program.
func NewObject(name string, methods map[string]interface{}) (Object, error) {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, m)
	}
	sort.Strings(names)

	cls := evaluator.NewClass(name, evaluator.ObjectClass)
	for _, m := range names {
		method, err := hostMethod(m, methods[m])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, m, err)
		}
		cls.Define(method)
	}
	return evaluator.NewInstance(name, cls), nil
}

func hostMethod(name string, fn interface{}) (*evaluator.Method, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("%w: method must be a func, got %T", ErrInvalidArgument, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic methods are not supported", ErrUnsupported)
	}
	nout := ft.NumOut()
	returnsErr := nout > 0 && ft.Out(nout-1) == errorType
	values := nout
	if returnsErr {
		values--
	}
	if values > 1 {
		return nil, fmt.Errorf("%w: method returns %d values", ErrUnsupported, values)
	}

	call := func(th *evaluator.Thread, self evaluator.Object, args []evaluator.Object) (evaluator.Object, error) {
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			val, err := FromObject(arg, ft.In(i))
			if err != nil {
				return nil, evaluator.Errorf("%s: argument %d: %v", name, i+1, err)
			}
			rv, err := assign(val, ft.In(i))
			if err != nil {
				return nil, evaluator.Errorf("%s: argument %d: %v", name, i+1, err)
			}
			in[i] = rv
		}

		out := fv.Call(in)
		if returnsErr {
			if err, _ := out[nout-1].Interface().(error); err != nil {
				return nil, evaluator.Errorf("%s: %v", name, err)
			}
		}
		if values == 0 {
			return evaluator.NIL, nil
		}
		res, err := ToObject(out[0].Interface())
		if err != nil {
			return nil, evaluator.Errorf("%s: result: %v", name, err)
		}
		return res, nil
	}
	return &evaluator.Method{Name: name, Arity: ft.NumIn(), Fn: call}, nil
}
