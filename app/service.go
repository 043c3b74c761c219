package app

import (
	"context"
	"fmt"

	"github.com/roverlink/roverd/config"
	"github.com/roverlink/roverd/core/dispatch"
	"github.com/roverlink/roverd/core/ingest"
	"github.com/roverlink/roverd/core/led"
	coremetrics "github.com/roverlink/roverd/core/metrics"
	"github.com/roverlink/roverd/core/reassembly"
	"github.com/roverlink/roverd/infra/logger"
	"github.com/roverlink/roverd/infra/metrics"
	"github.com/roverlink/roverd/infra/mqtt"
	"github.com/roverlink/roverd/internal/eventbus"
)

// Service wires the broker client, ingest pipeline and observers together.
type Service struct {
	client      *mqtt.PahoClient
	pipeline    *ingest.Pipeline
	bus         *eventbus.Bus[ingest.Event]
	led         *led.Controller
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration. handlers may be nil, in
// which case the default logging capability set is used. driver may be nil
// when no LED hardware is attached.
func New(cfg *config.Config, handlers dispatch.Handlers, driver led.Driver) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.IngestSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.IngestSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	ledCtl := led.NewController(driver, logger.New("led"))
	if handlers == nil {
		handlers = NewCapabilities(logger.New("capabilities"), ledCtl)
	}

	bus := eventbus.New[ingest.Event]()
	reasm := reassembly.New(logger.New("reassembler"), sink)
	disp := dispatch.New(handlers, logger.New("dispatcher"), sink)
	pipe := ingest.New(reasm, disp, logger.New("ingest"), sink, bus, nil)

	ledCtl.SetStatus(led.StatusBrokerConnecting)
	client, err := mqtt.NewPahoClient(cfg.MQTT, pipe.OnChunk, func(connected bool) {
		if connected {
			ledCtl.SetStatus(led.StatusReady)
		} else {
			ledCtl.SetStatus(led.StatusError)
		}
	})
	if err != nil {
		ledCtl.SetStatus(led.StatusError)
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	return &Service{
		client:      client,
		pipeline:    pipe,
		bus:         bus,
		led:         ledCtl,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run blocks until the context is cancelled, reflecting dispatch activity on
// the status LED.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	events := s.bus.Subscribe()
	defer s.bus.Unsubscribe(events)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.log.Infof("dispatched %s envelope: %d commands, %d skipped",
				ev.Report.Type, ev.Report.Dispatched, ev.Report.Skipped)
			s.led.SetStatus(led.StatusCommandActive)
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.client.Disconnect()
	s.bus.Close()
	s.led.SetStatus(led.StatusOff)
	return nil
}
