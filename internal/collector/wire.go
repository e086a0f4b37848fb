package collector

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/calltrace/internal/sink"
)

// EncodeEvent converts ev to its wire form.
func EncodeEvent(ev sink.Event) (*structpb.Struct, error) {
	args := make([]interface{}, len(ev.Args))
	for i, a := range ev.Args {
		args[i] = a
	}
	return structpb.NewStruct(map[string]interface{}{
		"session":  ev.Session,
		"unit":     ev.Unit,
		"offset":   ev.Offset,
		"file":     ev.File,
		"line":     ev.Line,
		"column":   ev.Column,
		"receiver": ev.Receiver,
		"args":     args,
		"result":   ev.Result,
		"time":     ev.Time.UTC().Format(time.RFC3339Nano),
	})
}

// DecodeEvent converts a wire event back.
func DecodeEvent(s *structpb.Struct) (sink.Event, error) {
	f := s.GetFields()
	if f["session"] == nil || f["receiver"] == nil || f["result"] == nil {
		return sink.Event{}, fmt.Errorf("event is missing required fields")
	}
	ev := sink.Event{
		Session:  f["session"].GetStringValue(),
		Unit:     int(f["unit"].GetNumberValue()),
		Offset:   int(f["offset"].GetNumberValue()),
		File:     f["file"].GetStringValue(),
		Line:     int(f["line"].GetNumberValue()),
		Column:   int(f["column"].GetNumberValue()),
		Receiver: f["receiver"].GetStringValue(),
		Result:   f["result"].GetStringValue(),
	}
	list := f["args"].GetListValue().GetValues()
	ev.Args = make([]string, len(list))
	for i, v := range list {
		ev.Args[i] = v.GetStringValue()
	}
	if raw := f["time"].GetStringValue(); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return sink.Event{}, fmt.Errorf("event time: %w", err)
		}
		ev.Time = t
	}
	return ev, nil
}
