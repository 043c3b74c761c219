// Package protocol defines the JSON command envelope exchanged with the
// robot and parses it into typed command values.
//
// A document carries exactly one of three shapes: a single command, an
// ordered command sequence, or a drive configuration update. Field lookup is
// case sensitive and unrecognized extra fields are ignored.
package protocol

// MessageType classifies the top-level envelope.
type MessageType string

const (
	TypeCommand  MessageType = "command"
	TypeSequence MessageType = "sequence"
	TypeConfig   MessageType = "config"
)

// Kind identifies one command shape inside an envelope.
type Kind string

const (
	KindDrive      Kind = "drive"
	KindTurn       Kind = "turn"
	KindLedHSV     Kind = "led_hsv"
	KindImmediate  Kind = "immediate"
	KindStop       Kind = "stop"
	KindWait       Kind = "wait"
	KindPause      Kind = "pause"
	KindResume     Kind = "resume"
	KindClearQueue Kind = "clear_queue"
)

// DriveStep requests a directional move.
type DriveStep struct {
	Direction   string
	SpeedMMPerS int32
	DurationMS  uint32
	DistanceMM  uint32
}

// TurnStep requests an arc of the given radius and angle. At least one of
// speed or duration must be positive.
type TurnStep struct {
	RadiusMM    int32
	AngleDeg    int32
	SpeedMMPerS int32
	DurationMS  uint32
}

// LedStep sets the status LED color.
type LedStep struct {
	Hue uint16
	Sat uint8
	Val uint8
}

// ImmediateStep drives the motors directly with per-side fractions in
// [-1, 1]. The receiver stamps its own clock when executing; no timestamp
// travels in the payload.
type ImmediateStep struct {
	LeftFrac  float32
	RightFrac float32
	TimeoutMS uint32
}

// CommandSpec is one parsed, kind-tagged action request. Only the field
// matching Kind is non-nil; the no-argument kinds carry nothing.
type CommandSpec struct {
	Kind      Kind
	Drive     *DriveStep
	Turn      *TurnStep
	Led       *LedStep
	Immediate *ImmediateStep
}

// DriveConfig is a full-replacement snapshot of motion-control tuning.
// Fields absent from the payload stay at their zero value; a config update
// never merges with a previous one.
type DriveConfig struct {
	WheelTrackMM       float32
	WheelRadiusMM      float32
	MinSpeedMMPerS     float32
	MaxSpeedMMPerS     float32
	TicksPerRevolution float32
	BrakeOnStop        bool
	EnableSpeedControl bool
	SpeedKp            float32
	SpeedKi            float32
	MotorGainLeft      float32
	MotorGainRight     float32
}

// Envelope is one parsed top-level document.
type Envelope struct {
	Type MessageType

	// Command is set for TypeCommand.
	Command *CommandSpec
	// Steps holds the surviving steps of a TypeSequence envelope, in array
	// order. Skipped counts the steps dropped during parsing.
	Steps   []CommandSpec
	Skipped int
	// Drive is set for TypeConfig.
	Drive *DriveConfig
}
