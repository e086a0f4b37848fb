package dispatch

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Serializable descriptors can be stored in encoded graphs.
type Serializable interface {
	Encode() (*structpb.Struct, error)
}

const kindCall = "call"

// Encode implements Serializable.
func (a *CallAction) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"kind":          kindCall,
		"method":        a.method,
		"argc":          float64(a.signature.ArgumentCount),
		"implicit_self": a.signature.HasImplicitSelf,
	})
}

// Decode rebuilds a descriptor written by Encode.
func Decode(s *structpb.Struct) (Descriptor, error) {
	if s == nil {
		return nil, errors.New("dispatch: missing descriptor")
	}
	fields := s.GetFields()
	switch kind := fields["kind"].GetStringValue(); kind {
	case kindCall:
		method := fields["method"].GetStringValue()
		if method == "" {
			return nil, errors.New("dispatch: call descriptor without method")
		}
		argc := fields["argc"].GetNumberValue()
		if argc < 0 || argc != float64(int(argc)) {
			return nil, fmt.Errorf("dispatch: invalid argument count %v", argc)
		}
		return NewCallAction(method, CallSignature{
			ArgumentCount:   int(argc),
			HasImplicitSelf: fields["implicit_self"].GetBoolValue(),
		}), nil
	default:
		return nil, fmt.Errorf("dispatch: unknown descriptor kind %q", kind)
	}
}
