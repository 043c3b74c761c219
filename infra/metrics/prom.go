package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/roverlink/roverd/core/metrics"
)

// PromSink records ingest events in Prometheus metrics.
type PromSink struct {
	drops       *prometheus.CounterVec
	superseded  prometheus.Counter
	messages    prometheus.Counter
	parseErrors *prometheus.CounterVec
	commands    *prometheus.CounterVec
	skipped     prometheus.Counter
}

// NewPromSink registers ingest metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	drops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roverd_reassembly_dropped_total",
		Help: "Transmissions discarded by the chunk reassembler",
	}, []string{"reason"})
	superseded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roverd_reassembly_superseded_total",
		Help: "In-flight transmissions overwritten by a new offset-0 start",
	})
	messages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roverd_messages_reassembled_total",
		Help: "Complete messages handed to the command parser",
	})
	parseErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roverd_parse_errors_total",
		Help: "Messages rejected by the command parser",
	}, []string{"error"})
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roverd_commands_dispatched_total",
		Help: "Capability invocations by command kind",
	}, []string{"kind"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roverd_sequence_steps_skipped_total",
		Help: "Sequence steps skipped during parsing",
	})

	if err := reg.Register(drops); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			drops = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(superseded); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			superseded = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(messages); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			messages = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(parseErrors); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			parseErrors = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(commands); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			commands = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(skipped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			skipped = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		drops:       drops,
		superseded:  superseded,
		messages:    messages,
		parseErrors: parseErrors,
		commands:    commands,
		skipped:     skipped,
	}, nil
}

// RecordReassemblyDrop increments the drop counter for the reason.
func (s *PromSink) RecordReassemblyDrop(ev coremetrics.ReassemblyDropEvent) error {
	s.drops.WithLabelValues(ev.Reason).Inc()
	return nil
}

// RecordSuperseded counts an overwritten in-flight transmission.
func (s *PromSink) RecordSuperseded() error {
	s.superseded.Inc()
	return nil
}

// RecordMessage counts a completed reassembly.
func (s *PromSink) RecordMessage(coremetrics.MessageEvent) error {
	s.messages.Inc()
	return nil
}

// RecordParseError increments the parse error counter for the cause.
func (s *PromSink) RecordParseError(ev coremetrics.ParseErrorEvent) error {
	s.parseErrors.WithLabelValues(ev.Cause).Inc()
	return nil
}

// RecordCommand counts one capability invocation by kind.
func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	s.commands.WithLabelValues(ev.Kind).Inc()
	return nil
}

// RecordDispatch adds the skipped step count of a dispatched envelope.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	if ev.Skipped > 0 {
		s.skipped.Add(float64(ev.Skipped))
	}
	return nil
}
