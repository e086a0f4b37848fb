package main

import (
	"context"
	"fmt"
	"io"

	"github.com/funvibe/calltrace/internal/collector"
	"github.com/funvibe/calltrace/internal/config"
	"github.com/funvibe/calltrace/internal/sink"
	"github.com/funvibe/calltrace/internal/tracestore"
)

// openSinks opens every configured sink. Without any, events go to
// stderr as text.
func openSinks(ctx context.Context, cfgs []config.SinkConfig, stderr io.Writer) (sink.Sink, error) {
	if len(cfgs) == 0 {
		return sink.NewText(stderr), nil
	}

	var opened []sink.Sink
	for i, sc := range cfgs {
		s, err := openSink(ctx, sc, stderr)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, fmt.Errorf("trace sink %d (%s): %w", i, sc.Kind, err)
		}
		opened = append(opened, s)
	}
	if len(opened) == 1 {
		return opened[0], nil
	}
	return sink.NewMulti(opened...), nil
}

func openSink(ctx context.Context, sc config.SinkConfig, stderr io.Writer) (sink.Sink, error) {
	switch sc.Kind {
	case config.SinkText:
		if sc.Path == "" {
			return sink.NewText(stderr), nil
		}
		return sink.OpenText(sc.Path)
	case config.SinkSQLite:
		return tracestore.Open(ctx, sc.Path)
	case config.SinkGRPC:
		return collector.Dial(sc.Addr)
	}
	return nil, fmt.Errorf("unknown sink kind %q", sc.Kind)
}
