// Package ingest ties the chunk reassembler, envelope parser and command
// dispatcher into one pipeline fed by transport chunk events.
package ingest

import (
	"errors"
	"time"

	"github.com/roverlink/roverd/core/dispatch"
	"github.com/roverlink/roverd/core/logger"
	"github.com/roverlink/roverd/core/metrics"
	"github.com/roverlink/roverd/core/protocol"
	"github.com/roverlink/roverd/core/reassembly"
	"github.com/roverlink/roverd/internal/eventbus"
)

// Event is published on the bus after each fully dispatched message.
type Event struct {
	Report dispatch.Report
	Time   time.Time
}

// Clock supplies monotonic milliseconds for the immediate capability.
type Clock func() uint32

// WallClock derives milliseconds from the system clock, wrapping at the
// uint32 boundary like an embedded millisecond tick.
func WallClock() uint32 { return uint32(time.Now().UnixMilli()) }

// Pipeline processes transport chunks into capability calls. All processing
// happens synchronously on the caller's goroutine; the transport must
// serialize chunk events for one logical stream.
type Pipeline struct {
	reasm *reassembly.Reassembler
	disp  *dispatch.Dispatcher
	log   logger.Logger
	sink  metrics.CommandRecorder
	bus   *eventbus.Bus[Event]
	clock Clock
}

// New creates a Pipeline. bus may be nil when no observer is interested;
// a nil clock falls back to WallClock.
func New(reasm *reassembly.Reassembler, disp *dispatch.Dispatcher, log logger.Logger,
	sink metrics.CommandRecorder, bus *eventbus.Bus[Event], clock Clock) *Pipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if clock == nil {
		clock = WallClock
	}
	return &Pipeline{reasm: reasm, disp: disp, log: log, sink: sink, bus: bus, clock: clock}
}

// OnChunk feeds one transport fragment into the pipeline. Errors never
// propagate: a failed message or step is dropped and the next transmission
// starts clean.
func (p *Pipeline) OnChunk(offset uint32, data []byte, totalLen uint32) {
	msg, ok := p.reasm.OnChunk(offset, data, totalLen)
	if !ok {
		return
	}

	env, err := protocol.Parse(msg)
	if err != nil {
		p.log.Warnf("message rejected: %v", err)
		ev := metrics.ParseErrorEvent{Cause: parseCause(err), Time: time.Now()}
		if rerr := p.sink.RecordParseError(ev); rerr != nil {
			p.log.Errorf("record parse error: %v", rerr)
		}
		return
	}

	rep := p.disp.Dispatch(env, p.clock())
	p.log.Debugw("message dispatched", map[string]any{
		"type":       string(rep.Type),
		"dispatched": rep.Dispatched,
		"skipped":    rep.Skipped,
	})
	if p.bus != nil {
		p.bus.Publish(Event{Report: rep, Time: time.Now()})
	}
}

func parseCause(err error) string {
	switch {
	case errors.Is(err, protocol.ErrMissingType):
		return "missing_type"
	case errors.Is(err, protocol.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, protocol.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, protocol.ErrInvalidCommand):
		return "invalid_command"
	default:
		return "malformed"
	}
}
