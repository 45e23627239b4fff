package orchestrator

import (
	"context"

	"github.com/Iron-Ham/consortium/internal/engine"
	"github.com/Iron-Ham/consortium/internal/errors"
	"github.com/Iron-Ham/consortium/internal/insights"
	"github.com/Iron-Ham/consortium/internal/uci"
)

// consumer is one run of the stream reader, bound to a single mode.
type consumer struct {
	mode    Mode
	cancel  context.CancelFunc
	done    chan struct{}
	printed int // last depth emitted by the barrier
}

func (o *Orchestrator) startConsumer(mode Mode) {
	ctx, cancel := context.WithCancel(o.base)
	c := &consumer{mode: mode, cancel: cancel, done: make(chan struct{})}
	o.consumer = c
	go o.consume(ctx, c)
}

// stopConsumer cancels the running consumer and waits for it to return.
// Nothing it has not already handled is lost: unread events stay queued for
// the next consumer.
func (o *Orchestrator) stopConsumer() {
	c := o.consumer
	if c == nil {
		return
	}
	c.cancel()
	<-c.done
	o.consumer = nil
}

func (o *Orchestrator) consume(ctx context.Context, c *consumer) {
	defer close(c.done)

	for {
		ev, err := o.events.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, errors.ErrStreamClosed) {
				o.logger.Warn("consumer stopped", "error", err.Error())
			}
			return
		}

		switch ev.Kind {
		case engine.EventQuery:
			ev.Query()
		case engine.EventExit:
			o.handleExit(c, ev)
		case engine.EventLine:
			o.handleLine(c, ev.Line)
		}
	}
}

func (o *Orchestrator) handleLine(c *consumer, l uci.Line) {
	st := o.session.Engine(l.EngineID())
	recorded := st != nil && st.Record(l)
	if recorded {
		o.metrics.SetReached(st.Name(), st.Reached())
	}

	if c.mode == Immediate {
		o.printImmediate(l)
		return
	}

	switch {
	case recorded:
		o.advance(c)
	case l.IsBestMove():
		// The search is over, so its deepest report is final.
		if o.session.Finish(l.EngineID()) {
			o.advance(c)
		} else {
			o.logger.Debug("stale bestmove ignored by barrier", "engine", l.Engine())
		}
		o.printImmediate(l)
	case !l.IsInfo():
		o.printImmediate(l)
	}
}

func (o *Orchestrator) printImmediate(l uci.Line) {
	if o.opts.PrintAll || (l.IsPrintable() && l.ShouldPrint()) {
		o.sink.WriteLine(o.format.Immediate(l))
	}
}

func (o *Orchestrator) handleExit(c *consumer, ev engine.Event) {
	o.sink.WriteLine(o.format.Exit(ev.Engine, ev.ExitCode))
	o.logger.Info("engine exited", "engine", ev.Engine, "exit_code", ev.ExitCode)
	o.session.Deactivate(ev.EngineID)

	if c.mode == DepthSynchronized {
		o.advance(c)
	}
}

// advance emits a row block for every depth all active engines have
// settled: searched past it, or finished their search at it.
func (o *Orchestrator) advance(c *consumer) {
	for {
		settled, ok := o.session.Settled()
		if !ok || settled <= c.printed {
			return
		}
		c.printed++
		o.emitRow(c.printed)
	}
}

// emitRow prints each active engine's most refined report at depth. If an
// engine has none the row is abandoned.
func (o *Orchestrator) emitRow(depth int) {
	active := o.session.Active()
	rows := make([]insights.Row, 0, len(active))
	complete := true

	for _, st := range active {
		l, ok := st.LastAt(depth)
		if !ok {
			complete = false
			o.reportViolation(st.Name(), depth)
			continue
		}
		rows = append(rows, insights.Row{EngineID: st.ID(), Line: l})
	}
	if !complete {
		return
	}

	groups := insights.GroupPrincipalLines(o.session.Groups(), rows)
	for i, r := range rows {
		o.sink.WriteLine(o.format.Row(r.Line, groups[i]))
	}
	o.sink.WriteLine("")
	o.metrics.RowEmitted()
	o.logger.Debug("row emitted", "depth", depth, "engines", len(rows), "groups", o.session.Groups().Len())
}

func (o *Orchestrator) reportViolation(name string, depth int) {
	err := errors.NewBarrierError(name, depth)
	o.logger.Error("row abandoned", "error", err.Error(), "engine", name, "depth", depth)
	o.metrics.BarrierViolation(name)
	o.sink.WriteLine(o.format.Violation(name, depth))
}
