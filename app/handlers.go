package app

import (
	"github.com/roverlink/roverd/core/led"
	"github.com/roverlink/roverd/core/logger"
	"github.com/roverlink/roverd/core/protocol"
)

// Capabilities is the default handler set: it logs every capability call
// and drives the status LED. The motion subsystem replaces it with a real
// implementation at integration time.
type Capabilities struct {
	log logger.Logger
	led *led.Controller
}

// NewCapabilities creates the default capability set.
func NewCapabilities(log logger.Logger, ledCtl *led.Controller) *Capabilities {
	return &Capabilities{log: log, led: ledCtl}
}

func (c *Capabilities) Drive(direction string, speedMMPerS int32, durationMS, distanceMM uint32) {
	c.log.Infof("drive: direction=%s speed=%d duration=%d distance=%d",
		direction, speedMMPerS, durationMS, distanceMM)
}

func (c *Capabilities) Turn(radiusMM, angleDeg, speedMMPerS int32, durationMS uint32) {
	c.log.Infof("turn: radius=%d angle=%d speed=%d duration=%d",
		radiusMM, angleDeg, speedMMPerS, durationMS)
}

func (c *Capabilities) Stop() {
	c.log.Infof("stop")
}

func (c *Capabilities) ClearQueue() {
	c.log.Infof("clear_queue")
}

func (c *Capabilities) SetLedHSV(h uint16, s, v uint8) {
	c.log.Infof("set_led_hsv: h=%d s=%d v=%d", h, s, v)
	c.led.SetHSV(h, s, v)
}

func (c *Capabilities) SetDriveConfig(cfg protocol.DriveConfig) {
	c.log.Debugw("set_drive_config", map[string]any{
		"wheel_track_mm":       cfg.WheelTrackMM,
		"wheel_radius_mm":      cfg.WheelRadiusMM,
		"min_speed_mm_per_s":   cfg.MinSpeedMMPerS,
		"max_speed_mm_per_s":   cfg.MaxSpeedMMPerS,
		"ticks_per_revolution": cfg.TicksPerRevolution,
		"brake_on_stop":        cfg.BrakeOnStop,
		"enable_speed_control": cfg.EnableSpeedControl,
	})
	c.log.Infof("drive config replaced")
}

func (c *Capabilities) Immediate(leftFrac, rightFrac float32, timeoutMS, nowMS uint32) {
	c.log.Infof("immediate: left=%f right=%f timeout=%d now=%d",
		leftFrac, rightFrac, timeoutMS, nowMS)
}
