// Package dispatch walks parsed command envelopes and invokes capability
// callbacks supplied by the motion and LED subsystems.
package dispatch

import (
	"time"

	"github.com/roverlink/roverd/core/logger"
	"github.com/roverlink/roverd/core/metrics"
	"github.com/roverlink/roverd/core/protocol"
)

// Handlers is the capability set this layer invokes but does not implement.
// Calls are synchronous and fire-and-forget: no result is observed and no
// retry is applied.
type Handlers interface {
	Drive(direction string, speedMMPerS int32, durationMS, distanceMM uint32)
	Turn(radiusMM, angleDeg, speedMMPerS int32, durationMS uint32)
	Stop()
	ClearQueue()
	SetLedHSV(h uint16, s, v uint8)
	SetDriveConfig(cfg protocol.DriveConfig)
	Immediate(leftFrac, rightFrac float32, timeoutMS, nowMS uint32)
}

// Report summarizes one envelope walk.
type Report struct {
	Type       protocol.MessageType
	Dispatched int
	Skipped    int
}

// Dispatcher translates envelopes into capability calls. It holds no state
// beyond the injected handler set, so repeated dispatch of the same envelope
// produces identical call sequences.
type Dispatcher struct {
	handlers Handlers
	log      logger.Logger
	sink     metrics.CommandRecorder
}

// New creates a Dispatcher invoking the given handler set.
func New(handlers Handlers, log logger.Logger, sink metrics.CommandRecorder) *Dispatcher {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Dispatcher{handlers: handlers, log: log, sink: sink}
}

// Dispatch invokes the capabilities named by the envelope. nowMS comes from
// the caller's monotonic clock and is passed to the immediate capability
// untouched. Steps already skipped by the parser are reported, not retried.
func (d *Dispatcher) Dispatch(env *protocol.Envelope, nowMS uint32) Report {
	rep := Report{Type: env.Type, Skipped: env.Skipped}
	switch env.Type {
	case protocol.TypeCommand:
		if env.Command != nil {
			d.dispatchSpec(*env.Command, nowMS)
			rep.Dispatched = 1
		}
	case protocol.TypeSequence:
		for _, step := range env.Steps {
			d.dispatchSpec(step, nowMS)
			rep.Dispatched++
		}
	case protocol.TypeConfig:
		if env.Drive != nil {
			d.log.Debugw("set_drive_config", map[string]any{
				"wheel_track_mm":  env.Drive.WheelTrackMM,
				"wheel_radius_mm": env.Drive.WheelRadiusMM,
			})
			d.handlers.SetDriveConfig(*env.Drive)
			d.record(string(protocol.TypeConfig))
			rep.Dispatched = 1
		}
	}
	if err := d.sink.RecordDispatch(metrics.DispatchEvent{
		Type:       string(env.Type),
		Dispatched: rep.Dispatched,
		Skipped:    rep.Skipped,
		Time:       time.Now(),
	}); err != nil {
		d.log.Errorf("record dispatch: %v", err)
	}
	return rep
}

func (d *Dispatcher) dispatchSpec(spec protocol.CommandSpec, nowMS uint32) {
	switch spec.Kind {
	case protocol.KindDrive:
		s := spec.Drive
		d.log.Debugf("drive: direction=%s speed=%d duration=%d distance=%d",
			s.Direction, s.SpeedMMPerS, s.DurationMS, s.DistanceMM)
		d.handlers.Drive(s.Direction, s.SpeedMMPerS, s.DurationMS, s.DistanceMM)
	case protocol.KindTurn:
		s := spec.Turn
		d.log.Debugf("turn: radius=%d angle=%d speed=%d duration=%d",
			s.RadiusMM, s.AngleDeg, s.SpeedMMPerS, s.DurationMS)
		d.handlers.Turn(s.RadiusMM, s.AngleDeg, s.SpeedMMPerS, s.DurationMS)
	case protocol.KindLedHSV:
		s := spec.Led
		d.log.Debugf("led_hsv: h=%d s=%d v=%d", s.Hue, s.Sat, s.Val)
		d.handlers.SetLedHSV(s.Hue, s.Sat, s.Val)
	case protocol.KindImmediate:
		s := spec.Immediate
		d.log.Debugf("immediate: left=%f right=%f timeout=%d now=%d",
			s.LeftFrac, s.RightFrac, s.TimeoutMS, nowMS)
		d.handlers.Immediate(s.LeftFrac, s.RightFrac, s.TimeoutMS, nowMS)
	case protocol.KindStop:
		d.handlers.Stop()
	case protocol.KindClearQueue:
		d.handlers.ClearQueue()
	case protocol.KindWait, protocol.KindPause, protocol.KindResume:
		// Recognized but inert, reserved for queue control upstream.
	}
	d.record(string(spec.Kind))
}

func (d *Dispatcher) record(kind string) {
	if err := d.sink.RecordCommand(metrics.CommandEvent{Kind: kind, Time: time.Now()}); err != nil {
		d.log.Errorf("record command: %v", err)
	}
}
