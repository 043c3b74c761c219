package metrics

import coremetrics "github.com/roverlink/roverd/core/metrics"

// MultiSink fans ingest events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.IngestSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.IngestSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReassemblyDrop forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordReassemblyDrop(ev coremetrics.ReassemblyDropEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReassemblyDrop(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSuperseded forwards the event to all sinks.
func (m *MultiSink) RecordSuperseded() error {
	for _, s := range m.Sinks {
		if err := s.RecordSuperseded(); err != nil {
			return err
		}
	}
	return nil
}

// RecordMessage forwards the event to all sinks.
func (m *MultiSink) RecordMessage(ev coremetrics.MessageEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordMessage(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordParseError forwards the event to all sinks.
func (m *MultiSink) RecordParseError(ev coremetrics.ParseErrorEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordParseError(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCommand forwards the event to all sinks.
func (m *MultiSink) RecordCommand(ev coremetrics.CommandEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCommand(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDispatch forwards the event to all sinks.
func (m *MultiSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}
