package metrics

import "time"

// Drop reasons attached to ReassemblyDropEvent.
const (
	DropZeroLength     = "zero_length"
	DropOversize       = "oversize"
	DropOffsetMismatch = "offset_mismatch"
	DropOverflow       = "overflow"
)

// ReassemblyDropEvent records one transmission silently discarded by the
// reassembler.
type ReassemblyDropEvent struct {
	Reason   string
	Offset   uint32
	TotalLen uint32
	Time     time.Time
}

// MessageEvent records a complete message handed off to the parser.
type MessageEvent struct {
	Bytes int
	Time  time.Time
}

// ParseErrorEvent records a message or step rejected by the parser.
type ParseErrorEvent struct {
	Cause string
	Time  time.Time
}

// CommandEvent records one capability invocation.
type CommandEvent struct {
	Kind string
	Time time.Time
}

// DispatchEvent records one envelope walked by the dispatcher.
type DispatchEvent struct {
	Type       string
	Dispatched int
	Skipped    int
	Time       time.Time
}

// ReassemblyRecorder is implemented by sinks observing the reassembler.
type ReassemblyRecorder interface {
	RecordReassemblyDrop(ev ReassemblyDropEvent) error
	// RecordSuperseded counts in-flight transmissions overwritten by a new
	// offset-0 start.
	RecordSuperseded() error
	RecordMessage(ev MessageEvent) error
}

// CommandRecorder is implemented by sinks observing parsing and dispatch.
type CommandRecorder interface {
	RecordParseError(ev ParseErrorEvent) error
	RecordCommand(ev CommandEvent) error
	RecordDispatch(ev DispatchEvent) error
}

// IngestSink records every observable event of the ingest pipeline.
type IngestSink interface {
	ReassemblyRecorder
	CommandRecorder
}

// NopSink implements IngestSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordReassemblyDrop(ReassemblyDropEvent) error { return nil }
func (NopSink) RecordSuperseded() error                        { return nil }
func (NopSink) RecordMessage(MessageEvent) error               { return nil }
func (NopSink) RecordParseError(ParseErrorEvent) error         { return nil }
func (NopSink) RecordCommand(CommandEvent) error               { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error             { return nil }
