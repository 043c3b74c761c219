// Package reassembly reconstructs one logical message from transport payloads
// delivered as contiguous byte fragments.
//
// Brokers and embedded senders may split a large publish across several
// delivery events, each addressed by the cumulative byte offset already
// received. The reassembler keeps at most one transmission in flight: a
// fragment at offset 0 always starts over, fragments at a higher offset must
// line up exactly with the bytes accumulated so far. Any anomaly drops the
// whole transmission; the sender is expected to restart from offset 0.
package reassembly

import (
	"time"

	"github.com/roverlink/roverd/core/logger"
	"github.com/roverlink/roverd/core/metrics"
)

// MaxMessageSize bounds a reassembled message in bytes.
const MaxMessageSize = 8192

// Chunk is one offset-addressed fragment of a transmission.
type Chunk struct {
	Offset   uint32
	Data     []byte
	TotalLen uint32
}

// Reassembler accumulates fragments of a single in-flight transmission.
// It performs no locking: the transport collaborator must serialize chunk
// events for one logical stream.
type Reassembler struct {
	buf      []byte
	expected int
	log      logger.Logger
	sink     metrics.ReassemblyRecorder
}

// New creates a Reassembler reporting drops and supersedes to sink.
func New(log logger.Logger, sink metrics.ReassemblyRecorder) *Reassembler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Reassembler{log: log, sink: sink}
}

// OnChunk feeds one fragment into the reassembler. It returns the complete
// message and true on the fragment that fills the buffer exactly; otherwise
// nil and false. Ownership of the returned buffer passes to the caller.
//
// Failure modes (zero or oversize total, offset mismatch, overflow) are
// indistinguishable to the caller: the in-flight transmission is discarded
// and nothing is returned.
func (r *Reassembler) OnChunk(offset uint32, data []byte, totalLen uint32) ([]byte, bool) {
	if offset == 0 {
		if r.buf != nil {
			// A new transmission always wins over a partial one.
			r.log.Warnf("reassembly superseded (had %d/%d bytes)", len(r.buf), r.expected)
			if err := r.sink.RecordSuperseded(); err != nil {
				r.log.Errorf("record superseded: %v", err)
			}
			r.reset()
		}
		if totalLen == 0 {
			r.drop(metrics.DropZeroLength, offset, totalLen)
			return nil, false
		}
		if totalLen > MaxMessageSize {
			r.drop(metrics.DropOversize, offset, totalLen)
			return nil, false
		}
		r.buf = make([]byte, 0, totalLen)
		r.expected = int(totalLen)
	} else {
		if r.buf == nil || int(offset) != len(r.buf) {
			got := -1
			if r.buf != nil {
				got = len(r.buf)
			}
			r.log.Warnf("reassembly offset mismatch (off=%d, have=%d)", offset, got)
			r.drop(metrics.DropOffsetMismatch, offset, totalLen)
			r.reset()
			return nil, false
		}
	}

	if len(r.buf)+len(data) > r.expected {
		r.log.Warnf("reassembly overflow (have=%d, chunk=%d, expect=%d)",
			len(r.buf), len(data), r.expected)
		r.drop(metrics.DropOverflow, offset, totalLen)
		r.reset()
		return nil, false
	}

	r.buf = append(r.buf, data...)
	if len(r.buf) < r.expected {
		return nil, false
	}

	msg := r.buf
	r.reset()
	if err := r.sink.RecordMessage(metrics.MessageEvent{Bytes: len(msg), Time: time.Now()}); err != nil {
		r.log.Errorf("record message: %v", err)
	}
	return msg, true
}

// InFlight reports whether a transmission is being accumulated.
func (r *Reassembler) InFlight() bool { return r.buf != nil }

// Reset discards any in-flight transmission.
func (r *Reassembler) Reset() { r.reset() }

func (r *Reassembler) reset() {
	r.buf = nil
	r.expected = 0
}

func (r *Reassembler) drop(reason string, offset, totalLen uint32) {
	ev := metrics.ReassemblyDropEvent{Reason: reason, Offset: offset, TotalLen: totalLen, Time: time.Now()}
	if err := r.sink.RecordReassemblyDrop(ev); err != nil {
		r.log.Errorf("record drop: %v", err)
	}
}
