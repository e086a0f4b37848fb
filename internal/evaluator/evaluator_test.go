package evaluator

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/funvibe/calltrace/internal/source"
)

func call(t *testing.T, th *Thread, recv Object, name string, args ...Object) Object {
	t.Helper()
	m, ok := recv.Class().Lookup(name)
	if !ok {
		t.Fatalf("no method %s on %s", name, recv.Class().Name)
	}
	res, err := m.Fn(th, recv, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func testIntegerObject(t *testing.T, obj Object, expected int64) {
	t.Helper()
	result, ok := obj.(*Integer)
	if !ok {
		t.Fatalf("object is not Integer. got=%T (%+v)", obj, obj)
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%d, want=%d", result.Value, expected)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	th := NewThread("test")
	tests := []struct {
		op       string
		left     int64
		right    int64
		expected int64
	}{
		{"+", 1, 2, 3},
		{"-", 1, 2, -1},
		{"*", 6, 7, 42},
		{"/", 7, 2, 3},
		{"/", -7, 2, -4},
		{"%", -7, 2, 1},
		{"%", 7, 3, 1},
	}
	for _, tt := range tests {
		res := call(t, th, &Integer{Value: tt.left}, tt.op, &Integer{Value: tt.right})
		testIntegerObject(t, res, tt.expected)
	}
}

func TestMixedNumeric(t *testing.T) {
	th := NewThread("test")
	res := call(t, th, &Integer{Value: 1}, "+", &Float{Value: 0.5})
	if f, ok := res.(*Float); !ok || f.Value != 1.5 {
		t.Errorf("1 + 0.5 = %s", res.Inspect())
	}
	if (&Float{Value: 2}).Inspect() != "2.0" {
		t.Errorf("float inspect = %s", (&Float{Value: 2}).Inspect())
	}
	if !Equal(&Integer{Value: 2}, &Float{Value: 2}) {
		t.Errorf("2 should equal 2.0")
	}
}

func TestDivisionByZero(t *testing.T) {
	m, _ := IntegerClass.Lookup("/")
	_, err := m.Fn(NewThread("test"), &Integer{Value: 1}, []Object{&Integer{Value: 0}})
	var re *RuntimeError
	if !errors.As(err, &re) || re.Message != "divided by 0" {
		t.Fatalf("expected divided by 0, got %v", err)
	}
}

func TestKernelIsPrivate(t *testing.T) {
	m, ok := IntegerClass.Lookup("print")
	if !ok || !m.Private {
		t.Fatalf("print should be found as a private method")
	}

	var out bytes.Buffer
	th := &Thread{Out: &out}
	call(t, th, NewMainObject(), "print", &String{Value: "a"}, &Integer{Value: 1}, NIL)
	if out.String() != "a 1 nil\n" {
		t.Errorf("print wrote %q", out.String())
	}
}

func TestListMethods(t *testing.T) {
	th := NewThread("test")
	list := NewList(&Integer{Value: 1}, &Integer{Value: 2})
	call(t, th, list, "push", &Integer{Value: 3})
	testIntegerObject(t, call(t, th, list, "len"), 3)
	testIntegerObject(t, call(t, th, list, "[]", &Integer{Value: -1}), 3)
	if call(t, th, list, "[]", &Integer{Value: 9}) != NIL {
		t.Errorf("out of range index should be nil")
	}
	if got := call(t, th, list, "join", &String{Value: "-"}).(*String).Value; got != "1-2-3" {
		t.Errorf("join = %q", got)
	}
	if list.Inspect() != "[1, 2, 3]" {
		t.Errorf("inspect = %s", list.Inspect())
	}
}

func TestMainObjectsAreIsolated(t *testing.T) {
	a, b := NewMainObject(), NewMainObject()
	a.Class().Define(&Method{Name: "only_a", Fn: func(*Thread, Object, []Object) (Object, error) { return NIL, nil }})
	if _, ok := b.Class().Lookup("only_a"); ok {
		t.Errorf("method leaked between main objects")
	}
	if _, ok := a.Class().Lookup("to_s"); !ok {
		t.Errorf("main object should inherit from Object")
	}
}

func TestThreadSiteAndDepth(t *testing.T) {
	th := &Thread{MaxDepth: 2}
	th.EnterSite(CallSite{Unit: 7, Offset: 42})
	if th.Site() != (CallSite{Unit: 7, Offset: 42}) {
		t.Errorf("site = %+v", th.Site())
	}
	if err := th.Push(); err != nil {
		t.Fatal(err)
	}
	if err := th.Push(); err != nil {
		t.Fatal(err)
	}
	if err := th.Push(); err == nil {
		t.Errorf("expected stack overflow at depth %d", th.Depth())
	}
	th.Pop()
	if th.Depth() != 1 {
		t.Errorf("depth = %d", th.Depth())
	}

	ctx, cancel := context.WithCancel(context.Background())
	th.Context = ctx
	if th.Interrupted() != nil {
		t.Errorf("not interrupted yet")
	}
	cancel()
	if !errors.Is(th.Interrupted(), context.Canceled) {
		t.Errorf("expected context.Canceled")
	}
}

func TestAttachSpan(t *testing.T) {
	err := error(Errorf("boom"))
	AttachSpan(err, source.Span{Start: 1, End: 2})
	AttachSpan(err, source.Span{Start: 5, End: 6})
	re := err.(*RuntimeError)
	if !re.HasSpan || re.Span.Start != 1 {
		t.Errorf("innermost span should win, got %+v", re.Span)
	}
}

func TestEnvironment(t *testing.T) {
	outer := NewEnvironment()
	outer.Set("x", &Integer{Value: 1})
	inner := NewEnclosedEnvironment(outer)
	if !inner.Update("x", &Integer{Value: 2}) {
		t.Fatalf("update should reach the outer scope")
	}
	v, _ := outer.Get("x")
	testIntegerObject(t, v, 2)
	if inner.Update("y", NIL) {
		t.Errorf("update of an unknown name should fail")
	}
}
