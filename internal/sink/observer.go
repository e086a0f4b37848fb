package sink

import (
	"context"
	"time"

	"github.com/funvibe/calltrace/internal/ctxlog"
	"github.com/funvibe/calltrace/internal/evaluator"
	"github.com/funvibe/calltrace/internal/source"
	"github.com/funvibe/calltrace/internal/tracing"
)

// Observer adapts s to the tracing callback. units resolves offsets to
// positions for the units it contains and may be nil. Write failures are
// logged with the logger from ctx; they never reach the traced program.
func Observer(ctx context.Context, session string, s Sink, units map[int]*source.Unit) tracing.Observer {
	logger := ctxlog.FromContext(ctx)
	return func(receiver evaluator.Object, args []evaluator.Object, result evaluator.Object, unitID, offset int) {
		ev := Event{
			Session:  session,
			Unit:     unitID,
			Offset:   offset,
			Receiver: receiver.Inspect(),
			Args:     make([]string, len(args)),
			Result:   result.Inspect(),
			Time:     time.Now(),
		}
		for i, a := range args {
			ev.Args[i] = a.Inspect()
		}
		if u, ok := units[unitID]; ok {
			pos := u.Position(offset)
			ev.File, ev.Line, ev.Column = u.Name(), pos.Line, pos.Column
		}
		if err := s.Write(ctx, ev); err != nil {
			logger.Warn("trace event dropped", "session", session, "unit", unitID, "offset", offset, "err", err)
		}
	}
}
