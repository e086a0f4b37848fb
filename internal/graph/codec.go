package graph

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/calltrace/internal/dispatch"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/source"
)

// Format tags encoded graphs.
const Format = "calltrace.graph/1"

// ErrNotEncodable is returned by Marshal for nodes or descriptors that have
// no stored form.
var ErrNotEncodable = errors.New("graph: node cannot be encoded")

// Marshal encodes a compiled unit. Sharing is not preserved: a shared
// subgraph is written once per reference.
func Marshal(root *Lambda) ([]byte, error) {
	v, err := encodeNode(root)
	if err != nil {
		return nil, err
	}
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		"format": structpb.NewStringValue(Format),
		"root":   v,
	}}
	return proto.MarshalOptions{Deterministic: true}.Marshal(env)
}

// Unmarshal decodes a unit written by Marshal.
func Unmarshal(data []byte) (*Lambda, error) {
	var env structpb.Struct
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	if f := env.Fields["format"].GetStringValue(); f != Format {
		return nil, fmt.Errorf("graph: unsupported format %q", f)
	}
	n, err := decodeNode(env.Fields["root"])
	if err != nil {
		return nil, err
	}
	root, ok := n.(*Lambda)
	if !ok {
		return nil, fmt.Errorf("graph: root is %s, not a lambda", n)
	}
	return root, nil
}

type fields = map[string]*structpb.Value

func obj(op string, f fields) *structpb.Value {
	f["op"] = structpb.NewStringValue(op)
	return structpb.NewStructValue(&structpb.Struct{Fields: f})
}

func encodeNodes(nodes []Node) (*structpb.Value, error) {
	vals := make([]*structpb.Value, len(nodes))
	for i, n := range nodes {
		v, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals}), nil
}

func encodeNode(n Node) (*structpb.Value, error) {
	enc := func(op string, f fields, kids map[string]Node) (*structpb.Value, error) {
		for k, c := range kids {
			v, err := encodeNode(c)
			if err != nil {
				return nil, err
			}
			f[k] = v
		}
		return obj(op, f), nil
	}

	switch n := n.(type) {
	case *Constant:
		v, err := encodeConstant(n.Value)
		if err != nil {
			return nil, err
		}
		return obj("const", fields{"value": v}), nil
	case *Load:
		return obj("load", fields{"name": structpb.NewStringValue(n.Name)}), nil
	case *Store:
		return enc("store", fields{
			"name":    structpb.NewStringValue(n.Name),
			"declare": structpb.NewBoolValue(n.Declare),
		}, map[string]Node{"value": n.Value})
	case *Block:
		body, err := encodeNodes(n.Body)
		if err != nil {
			return nil, err
		}
		return obj("block", fields{"scoped": structpb.NewBoolValue(n.Scoped), "body": body}), nil
	case *Conditional:
		return enc("if", fields{}, map[string]Node{"test": n.Test, "then": n.IfTrue, "else": n.IfFalse})
	case *Loop:
		return enc("loop", fields{}, map[string]Node{"test": n.Test, "body": n.Body})
	case *Logical:
		return enc(n.Op.String(), fields{}, map[string]Node{"left": n.Left, "right": n.Right})
	case *ListInit:
		elems, err := encodeNodes(n.Elements)
		if err != nil {
			return nil, err
		}
		return obj("list", fields{"elements": elems}), nil
	case *DefineMethod:
		params := make([]*structpb.Value, len(n.Params))
		for i, p := range n.Params {
			params[i] = structpb.NewStringValue(p)
		}
		return enc("def", fields{
			"name":   structpb.NewStringValue(n.Name),
			"params": structpb.NewListValue(&structpb.ListValue{Values: params}),
		}, map[string]Node{"body": n.Body})
	case *DebugInfo:
		return enc("debug", fields{
			"start": structpb.NewNumberValue(float64(n.Span.Start)),
			"end":   structpb.NewNumberValue(float64(n.Span.End)),
		}, map[string]Node{"body": n.Body})
	case *Dynamic:
		s, ok := n.Descriptor.(dispatch.Serializable)
		if !ok {
			return nil, fmt.Errorf("%w: descriptor %s", ErrNotEncodable, n.Descriptor)
		}
		desc, err := s.Encode()
		if err != nil {
			return nil, fmt.Errorf("graph: encoding %s: %w", n.Descriptor, err)
		}
		args, err := encodeNodes(n.Args)
		if err != nil {
			return nil, err
		}
		return obj("dynamic", fields{
			"descriptor": structpb.NewStructValue(desc),
			"type":       structpb.NewNumberValue(float64(n.ResultType)),
			"args":       args,
		}), nil
	case *Lambda:
		return enc("lambda", fields{"name": structpb.NewStringValue(n.Name)}, map[string]Node{"body": n.Body})
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotEncodable, n)
	}
}

func encodeConstant(v evaluator.Object) (*structpb.Value, error) {
	var f fields
	switch v := v.(type) {
	case *evaluator.Integer:
		f = fields{"int": structpb.NewStringValue(strconv.FormatInt(v.Value, 10))}
	case *evaluator.Float:
		f = fields{"float": structpb.NewNumberValue(v.Value)}
	case *evaluator.String:
		f = fields{"string": structpb.NewStringValue(v.Value)}
	case *evaluator.Boolean:
		f = fields{"bool": structpb.NewBoolValue(v.Value)}
	case *evaluator.Nil:
		f = fields{"nil": structpb.NewBoolValue(true)}
	default:
		return nil, fmt.Errorf("%w: constant %s", ErrNotEncodable, v.Inspect())
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: f}), nil
}

func decodeNodes(v *structpb.Value) ([]Node, error) {
	list := v.GetListValue().GetValues()
	nodes := make([]Node, len(list))
	for i, item := range list {
		n, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func decodeNode(v *structpb.Value) (Node, error) {
	s := v.GetStructValue()
	if s == nil {
		return nil, errors.New("graph: expected node object")
	}
	f := s.Fields
	str := func(k string) string { return f[k].GetStringValue() }
	kids := func(keys ...string) ([]Node, error) {
		out := make([]Node, len(keys))
		for i, k := range keys {
			n, err := decodeNode(f[k])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", str("op"), k, err)
			}
			out[i] = n
		}
		return out, nil
	}

	switch op := str("op"); op {
	case "const":
		val, err := decodeConstant(f["value"].GetStructValue())
		if err != nil {
			return nil, err
		}
		return &Constant{Value: val}, nil
	case "load":
		return &Load{Name: str("name")}, nil
	case "store":
		k, err := kids("value")
		if err != nil {
			return nil, err
		}
		return &Store{Name: str("name"), Declare: f["declare"].GetBoolValue(), Value: k[0]}, nil
	case "block":
		body, err := decodeNodes(f["body"])
		if err != nil {
			return nil, err
		}
		return &Block{Body: body, Scoped: f["scoped"].GetBoolValue()}, nil
	case "if":
		k, err := kids("test", "then", "else")
		if err != nil {
			return nil, err
		}
		return &Conditional{Test: k[0], IfTrue: k[1], IfFalse: k[2]}, nil
	case "loop":
		k, err := kids("test", "body")
		if err != nil {
			return nil, err
		}
		return &Loop{Test: k[0], Body: k[1]}, nil
	case "&&", "||":
		k, err := kids("left", "right")
		if err != nil {
			return nil, err
		}
		logical := &Logical{Op: AndAlso, Left: k[0], Right: k[1]}
		if op == "||" {
			logical.Op = OrElse
		}
		return logical, nil
	case "list":
		elems, err := decodeNodes(f["elements"])
		if err != nil {
			return nil, err
		}
		return &ListInit{Elements: elems}, nil
	case "def":
		k, err := kids("body")
		if err != nil {
			return nil, err
		}
		var params []string
		for _, p := range f["params"].GetListValue().GetValues() {
			params = append(params, p.GetStringValue())
		}
		return &DefineMethod{Name: str("name"), Params: params, Body: k[0]}, nil
	case "debug":
		k, err := kids("body")
		if err != nil {
			return nil, err
		}
		span := source.Span{Start: int(f["start"].GetNumberValue()), End: int(f["end"].GetNumberValue())}
		return &DebugInfo{Span: span, Body: k[0]}, nil
	case "dynamic":
		desc, err := dispatch.Decode(f["descriptor"].GetStructValue())
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(f["args"])
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("graph: dispatch %s without receiver", desc)
		}
		return NewDynamic(desc, Type(f["type"].GetNumberValue()), args...), nil
	case "lambda":
		k, err := kids("body")
		if err != nil {
			return nil, err
		}
		return &Lambda{Name: str("name"), Body: k[0]}, nil
	default:
		return nil, fmt.Errorf("graph: unknown node op %q", op)
	}
}

func decodeConstant(s *structpb.Struct) (evaluator.Object, error) {
	f := s.GetFields()
	switch {
	case f["int"] != nil:
		i, err := strconv.ParseInt(f["int"].GetStringValue(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("graph: integer constant: %w", err)
		}
		return &evaluator.Integer{Value: i}, nil
	case f["float"] != nil:
		return &evaluator.Float{Value: f["float"].GetNumberValue()}, nil
	case f["string"] != nil:
		return &evaluator.String{Value: f["string"].GetStringValue()}, nil
	case f["bool"] != nil:
		return evaluator.NativeBoolToBooleanObject(f["bool"].GetBoolValue()), nil
	case f["nil"] != nil:
		return evaluator.NIL, nil
	default:
		return nil, errors.New("graph: empty constant")
	}
}
