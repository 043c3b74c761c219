// Package led maps service status to status-LED colors. The hardware strip
// itself stays behind the Driver interface.
package led

import "github.com/roverlink/roverd/core/logger"

// Status enumerates the service states shown on the status LED.
type Status int

const (
	StatusOff Status = iota
	StatusLinkConnecting
	StatusBrokerConnecting
	StatusReady
	StatusCommandActive
	StatusError
)

// Hue per status. Saturation and value default to 255/32.
const (
	HueLinkConnecting   uint16 = 60  // yellow
	HueReady            uint16 = 120 // green
	HueBrokerConnecting uint16 = 220 // blue
	HueCommandActive    uint16 = 280 // purple
	HueError            uint16 = 0   // red
)

const (
	defaultSat uint8 = 255
	defaultVal uint8 = 32
)

// Driver is the LED hardware interface implemented externally.
type Driver interface {
	SetPixelHSV(h uint16, s, v uint8)
	Clear()
}

// NopDriver implements Driver with no-op methods.
type NopDriver struct{}

func (NopDriver) SetPixelHSV(uint16, uint8, uint8) {}
func (NopDriver) Clear()                           {}

// Controller applies status colors and direct HSV requests to a Driver.
type Controller struct {
	driver Driver
	log    logger.Logger
}

// NewController creates a Controller. A nil driver falls back to NopDriver.
func NewController(driver Driver, log logger.Logger) *Controller {
	if driver == nil {
		driver = NopDriver{}
	}
	return &Controller{driver: driver, log: log}
}

// SetStatus shows the color associated with the status.
func (c *Controller) SetStatus(status Status) {
	c.log.Debugf("led status: %d", status)
	if status == StatusOff {
		c.driver.Clear()
		return
	}
	c.driver.SetPixelHSV(StatusHue(status), defaultSat, defaultVal)
}

// SetHSV applies a direct color request, bypassing the status mapping.
func (c *Controller) SetHSV(h uint16, s, v uint8) {
	c.driver.SetPixelHSV(h, s, v)
}

// StatusHue returns the hue shown for a status. Unknown statuses map to the
// error color.
func StatusHue(status Status) uint16 {
	switch status {
	case StatusLinkConnecting:
		return HueLinkConnecting
	case StatusBrokerConnecting:
		return HueBrokerConnecting
	case StatusReady:
		return HueReady
	case StatusCommandActive:
		return HueCommandActive
	default:
		return HueError
	}
}
