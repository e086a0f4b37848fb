package graph

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/evaluator"
)

func intConst(v int64) *Constant { return &Constant{Value: &evaluator.Integer{Value: v}} }

func call(method string, args ...Node) *Dynamic {
	sig := dispatch.CallSignature{ArgumentCount: len(args) - 1}
	return NewDynamic(dispatch.NewCallAction(method, sig), TypeObject, args...)
}

func run(t *testing.T, root *Lambda) evaluator.Object {
	t.Helper()
	res, err := root.Run(evaluator.NewThread("test"), evaluator.NewMainObject())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestEvalDispatchAndLocals(t *testing.T) {
	// let x = 40; x + 2
	root := &Lambda{Name: "t", Body: &Block{Body: []Node{
		&Store{Name: "x", Declare: true, Value: intConst(40)},
		call("+", &Load{Name: "x"}, intConst(2)),
	}}}
	if got := run(t, root).Inspect(); got != "42" {
		t.Errorf("got=%s, want=42", got)
	}
}

func TestEvalDefineMethod(t *testing.T) {
	// def twice(n) { n * 2 }; twice(21)
	def := &DefineMethod{Name: "twice", Params: []string{"n"}, Body: call("*", &Load{Name: "n"}, intConst(2))}
	invoke := NewDynamic(dispatch.NewCallAction("twice", dispatch.CallSignature{ArgumentCount: 1, HasImplicitSelf: true}),
		TypeObject, &Load{Name: SelfName}, intConst(21))
	root := &Lambda{Name: "t", Body: &Block{Body: []Node{def, invoke}}}
	if got := run(t, root).Inspect(); got != "42" {
		t.Errorf("got=%s, want=42", got)
	}
}

func TestEvalControlFlow(t *testing.T) {
	// let i = 0; let acc = []; while i < 3 { acc.push(i); i = i + 1 }; acc
	body := &Block{Scoped: true, Body: []Node{
		call("push", &Load{Name: "acc"}, &Load{Name: "i"}),
		&Store{Name: "i", Value: call("+", &Load{Name: "i"}, intConst(1))},
	}}
	root := &Lambda{Name: "t", Body: &Block{Body: []Node{
		&Store{Name: "i", Declare: true, Value: intConst(0)},
		&Store{Name: "acc", Declare: true, Value: &ListInit{}},
		&Loop{Test: call("<", &Load{Name: "i"}, intConst(3)), Body: body},
		&Conditional{
			Test:    &Logical{Op: AndAlso, Left: &Constant{Value: evaluator.TRUE}, Right: &Constant{Value: evaluator.NIL}},
			IfTrue:  &Constant{Value: &evaluator.String{Value: "wrong"}},
			IfFalse: &Load{Name: "acc"},
		},
	}}}
	if got := run(t, root).Inspect(); got != "[0, 1, 2]" {
		t.Errorf("got=%s, want=[0, 1, 2]", got)
	}
}

func TestDebugInfoAttachesSpan(t *testing.T) {
	root := &Lambda{Name: "t", Body: &DebugInfo{Body: call("/", intConst(1), intConst(0))}}
	root.Body.(*DebugInfo).Span.Start, root.Body.(*DebugInfo).Span.End = 3, 8

	_, err := root.Run(evaluator.NewThread("test"), evaluator.NewMainObject())
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || !re.HasSpan || re.Span.Start != 3 {
		t.Fatalf("expected runtime error at 3, got %#v", err)
	}
}

func TestRewriteIdentityKeepsGraph(t *testing.T) {
	root := &Lambda{Name: "t", Body: call("+", intConst(1), intConst(2))}
	out, err := Rewrite(root, func(_, rebuilt Node) (Node, error) { return rebuilt, nil })
	if err != nil {
		t.Fatal(err)
	}
	if out != Node(root) {
		t.Errorf("identity rewrite rebuilt the root")
	}
}

func TestRewriteVisitsSharedNodeOnce(t *testing.T) {
	shared := intConst(1)
	left := call("+", shared, shared)
	root := &Lambda{Name: "t", Body: &Block{Body: []Node{left, left}}}

	visits := map[Node]int{}
	out, err := Rewrite(root, func(orig, rebuilt Node) (Node, error) {
		visits[orig]++
		if orig == Node(shared) {
			return intConst(5), nil
		}
		return rebuilt, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for n, c := range visits {
		if c != 1 {
			t.Errorf("%s visited %d times", n, c)
		}
	}

	body := out.(*Lambda).Body.(*Block).Body
	if body[0] != body[1] {
		t.Errorf("shared subgraph split by rewrite")
	}
	args := body[0].(*Dynamic).Args
	if args[0] != args[1] || args[0] == Node(shared) {
		t.Errorf("shared leaf not replaced consistently")
	}
	if root.Body.(*Block).Body[0] != Node(left) || left.Args[0] != Node(shared) {
		t.Errorf("input graph modified")
	}
	if got := run(t, out.(*Lambda)).Inspect(); got != "10" {
		t.Errorf("got=%s, want=10", got)
	}
}

func TestRewriteStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Rewrite(call("+", intConst(1), intConst(2)), func(orig, rebuilt Node) (Node, error) {
		if _, ok := orig.(*Dynamic); ok {
			return nil, boom
		}
		return rebuilt, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestWalkAndDump(t *testing.T) {
	shared := intConst(7)
	root := &Lambda{Name: "t", Body: call("+", shared, shared)}

	count := 0
	Walk(root, func(Node) bool { count++; return true })
	if count != 3 {
		t.Errorf("walk visited %d nodes, want 3", count)
	}

	var buf bytes.Buffer
	if err := Dump(&buf, root); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"#1 lambda t : Object",
		"  #2 dynamic call +(argc=1) : Object",
		"    #3 constant 7",
		"    ^3",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	root := &Lambda{Name: "t", Body: &Block{Body: []Node{
		&Store{Name: "xs", Declare: true, Value: &ListInit{Elements: []Node{intConst(1), &Constant{Value: &evaluator.Float{Value: 2.5}}}}},
		&DefineMethod{Name: "id", Params: []string{"v"}, Body: &Load{Name: "v"}},
		&DebugInfo{Body: &Conditional{
			Test:    &Logical{Op: OrElse, Left: &Constant{Value: evaluator.FALSE}, Right: &Constant{Value: evaluator.NIL}},
			IfTrue:  &Constant{Value: &evaluator.String{Value: "no"}},
			IfFalse: call("first", &Load{Name: "xs"}),
		}},
	}}}

	data, err := Marshal(root)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var want, got bytes.Buffer
	_ = Dump(&want, root)
	_ = Dump(&got, decoded)
	if diff := cmp.Diff(want.String(), got.String()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if res := run(t, decoded).Inspect(); res != "1" {
		t.Errorf("decoded graph returned %s", res)
	}
}

type opaque struct{}

func (opaque) Resolve(*evaluator.Thread, evaluator.Object, []evaluator.Object) (evaluator.Object, error) {
	return evaluator.NIL, nil
}
func (opaque) String() string { return "opaque" }

func TestMarshalRejectsOpaqueDescriptor(t *testing.T) {
	root := &Lambda{Name: "t", Body: NewDynamic(opaque{}, TypeObject, intConst(1))}
	if _, err := Marshal(root); !errors.Is(err, ErrNotEncodable) {
		t.Errorf("got %v, want ErrNotEncodable", err)
	}
}
