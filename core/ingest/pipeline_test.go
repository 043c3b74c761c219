package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roverlink/roverd/core/dispatch"
	"github.com/roverlink/roverd/core/metrics"
	"github.com/roverlink/roverd/core/protocol"
	"github.com/roverlink/roverd/core/reassembly"
	"github.com/roverlink/roverd/infra/logger"
	"github.com/roverlink/roverd/internal/eventbus"
)

type captureHandlers struct {
	drives     []string
	stops      int
	immediates []uint32 // now_ms per call
}

func (c *captureHandlers) Drive(direction string, _ int32, _, _ uint32) {
	c.drives = append(c.drives, direction)
}
func (c *captureHandlers) Turn(int32, int32, int32, uint32)    {}
func (c *captureHandlers) Stop()                               { c.stops++ }
func (c *captureHandlers) ClearQueue()                         {}
func (c *captureHandlers) SetLedHSV(uint16, uint8, uint8)      {}
func (c *captureHandlers) SetDriveConfig(protocol.DriveConfig) {}
func (c *captureHandlers) Immediate(_, _ float32, _, now uint32) {
	c.immediates = append(c.immediates, now)
}

type errorSink struct {
	metrics.NopSink
	parseErrors []string
}

func (s *errorSink) RecordParseError(ev metrics.ParseErrorEvent) error {
	s.parseErrors = append(s.parseErrors, ev.Cause)
	return nil
}

func newPipeline(h dispatch.Handlers, sink metrics.CommandRecorder, bus *eventbus.Bus[Event], clock Clock) *Pipeline {
	log := logger.NopLogger{}
	reasm := reassembly.New(log, nil)
	disp := dispatch.New(h, log, sink)
	return New(reasm, disp, log, sink, bus, clock)
}

func TestPipelineChunkedCommand(t *testing.T) {
	h := &captureHandlers{}
	bus := eventbus.New[Event]()
	events := bus.Subscribe()
	p := newPipeline(h, nil, bus, nil)

	payload := []byte(`{"type":"command","command":{"kind":"drive","direction":"forward","speed":100}}`)
	half := len(payload) / 2
	p.OnChunk(0, payload[:half], uint32(len(payload)))
	assert.Empty(t, h.drives, "dispatched before reassembly completed")
	p.OnChunk(uint32(half), payload[half:], uint32(len(payload)))

	assert.Equal(t, []string{"forward"}, h.drives)
	ev := <-events
	assert.Equal(t, protocol.TypeCommand, ev.Report.Type)
	assert.Equal(t, 1, ev.Report.Dispatched)
}

func TestPipelineRecordsParseErrors(t *testing.T) {
	h := &captureHandlers{}
	sink := &errorSink{}
	p := newPipeline(h, sink, nil, nil)

	p.OnChunk(0, []byte(`not json`), 8)
	p.OnChunk(0, []byte(`{"type":"telemetry"}`), 20)

	assert.Equal(t, []string{"malformed", "unknown_type"}, sink.parseErrors)
	assert.Zero(t, h.stops)
}

func TestPipelineUsesInjectedClock(t *testing.T) {
	h := &captureHandlers{}
	p := newPipeline(h, nil, nil, func() uint32 { return 4242 })

	payload := []byte(`{"type":"command","command":{"kind":"immediate","left":0.5,"right":0.5}}`)
	p.OnChunk(0, payload, uint32(len(payload)))

	assert.Equal(t, []uint32{4242}, h.immediates)
}

func TestPipelineRecoversAfterDroppedTransmission(t *testing.T) {
	h := &captureHandlers{}
	p := newPipeline(h, nil, nil, nil)

	// Gapped transmission is lost silently.
	p.OnChunk(0, []byte(`{"type":"comm`), 40)
	p.OnChunk(20, []byte(`and"}`), 40)

	payload := []byte(`{"type":"command","command":{"kind":"stop"}}`)
	p.OnChunk(0, payload, uint32(len(payload)))
	assert.Equal(t, 1, h.stops)
}
