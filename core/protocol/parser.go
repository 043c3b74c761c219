package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// Parse decodes a complete message buffer into an Envelope.
//
// In a sequence, a step that is not an object, fails its kind validation, or
// has an unrecognized kind is skipped without aborting the remaining steps;
// the envelope still succeeds and Skipped carries the count. Every other
// failure rejects the whole document.
func Parse(data []byte) (*Envelope, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	typ, ok := strField(root, "type")
	if !ok {
		return nil, ErrMissingType
	}

	switch MessageType(typ) {
	case TypeCommand:
		return parseCommand(root)
	case TypeSequence:
		return parseSequence(root)
	case TypeConfig:
		return parseConfig(root)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

func parseCommand(root map[string]any) (*Envelope, error) {
	cmd, ok := objField(root, "command")
	if !ok {
		return nil, fmt.Errorf("%w: missing command object", ErrInvalidCommand)
	}
	spec, err := parseSpec(cmd)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: TypeCommand, Command: &spec}, nil
}

func parseSequence(root map[string]any) (*Envelope, error) {
	raw, ok := root["steps"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing steps array", ErrInvalidCommand)
	}
	env := &Envelope{Type: TypeSequence}
	for _, el := range raw {
		step, ok := el.(map[string]any)
		if !ok {
			env.Skipped++
			continue
		}
		spec, err := parseSpec(step)
		if err != nil {
			env.Skipped++
			continue
		}
		env.Steps = append(env.Steps, spec)
	}
	return env, nil
}

func parseConfig(root map[string]any) (*Envelope, error) {
	drive, ok := objField(root, "drive")
	if !ok {
		return nil, fmt.Errorf("%w: missing drive object", ErrInvalidCommand)
	}
	// Any field absent or mistyped stays at its zero value: a config update
	// is a full replacement, never a merge.
	cfg := &DriveConfig{}
	if v, ok := numField(drive, "wheel_track_mm"); ok {
		cfg.WheelTrackMM = float32(v)
	}
	if v, ok := numField(drive, "wheel_radius_mm"); ok {
		cfg.WheelRadiusMM = float32(v)
	}
	if v, ok := numField(drive, "min_speed_mm_per_s"); ok {
		cfg.MinSpeedMMPerS = float32(v)
	}
	if v, ok := numField(drive, "max_speed_mm_per_s"); ok {
		cfg.MaxSpeedMMPerS = float32(v)
	}
	if v, ok := numField(drive, "ticks_per_revolution"); ok {
		cfg.TicksPerRevolution = float32(v)
	}
	if v, ok := boolField(drive, "brake_on_stop"); ok {
		cfg.BrakeOnStop = v
	}
	if v, ok := boolField(drive, "enable_speed_control"); ok {
		cfg.EnableSpeedControl = v
	}
	if v, ok := numField(drive, "speed_kp"); ok {
		cfg.SpeedKp = float32(v)
	}
	if v, ok := numField(drive, "speed_ki"); ok {
		cfg.SpeedKi = float32(v)
	}
	if v, ok := numField(drive, "motor_gain_left"); ok {
		cfg.MotorGainLeft = float32(v)
	}
	if v, ok := numField(drive, "motor_gain_right"); ok {
		cfg.MotorGainRight = float32(v)
	}
	return &Envelope{Type: TypeConfig, Drive: cfg}, nil
}

func parseSpec(cmd map[string]any) (CommandSpec, error) {
	kind, ok := strField(cmd, "kind")
	if !ok {
		return CommandSpec{}, fmt.Errorf("%w: missing kind", ErrInvalidCommand)
	}

	switch Kind(kind) {
	case KindDrive:
		return parseDrive(cmd)
	case KindTurn:
		return parseTurn(cmd)
	case KindLedHSV:
		return parseLedHSV(cmd)
	case KindImmediate:
		return parseImmediate(cmd)
	case KindStop, KindWait, KindPause, KindResume, KindClearQueue:
		return CommandSpec{Kind: Kind(kind)}, nil
	default:
		return CommandSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func parseDrive(cmd map[string]any) (CommandSpec, error) {
	direction, ok := strField(cmd, "direction")
	if !ok || direction == "" {
		return CommandSpec{}, fmt.Errorf("%w: drive requires direction", ErrInvalidCommand)
	}
	speed, ok := numField(cmd, "speed")
	if !ok {
		return CommandSpec{}, fmt.Errorf("%w: drive requires speed", ErrInvalidCommand)
	}
	step := &DriveStep{Direction: direction, SpeedMMPerS: toI32(speed)}
	if v, ok := numField(cmd, "duration"); ok {
		step.DurationMS = toU32(v)
	}
	if v, ok := numField(cmd, "distance"); ok {
		step.DistanceMM = toU32(v)
	}
	return CommandSpec{Kind: KindDrive, Drive: step}, nil
}

func parseTurn(cmd map[string]any) (CommandSpec, error) {
	radius, okR := numField(cmd, "radius")
	angle, okA := numField(cmd, "angle")
	if !okR || !okA {
		return CommandSpec{}, fmt.Errorf("%w: turn requires radius and angle", ErrInvalidCommand)
	}
	step := &TurnStep{RadiusMM: toI32(radius), AngleDeg: toI32(angle)}
	if v, ok := numField(cmd, "speed"); ok {
		step.SpeedMMPerS = toI32(v)
	}
	if v, ok := numField(cmd, "duration"); ok {
		step.DurationMS = toU32(v)
	}
	if step.SpeedMMPerS <= 0 && step.DurationMS == 0 {
		return CommandSpec{}, fmt.Errorf("%w: turn requires speed or duration", ErrInvalidCommand)
	}
	return CommandSpec{Kind: KindTurn, Turn: step}, nil
}

func parseLedHSV(cmd map[string]any) (CommandSpec, error) {
	h, ok := numField(cmd, "h")
	if !ok {
		return CommandSpec{}, fmt.Errorf("%w: led_hsv requires h", ErrInvalidCommand)
	}
	step := &LedStep{Hue: toU16(h), Sat: 255, Val: 32}
	if v, ok := numField(cmd, "s"); ok {
		step.Sat = toU8(v)
	}
	if v, ok := numField(cmd, "v"); ok {
		step.Val = toU8(v)
	}
	return CommandSpec{Kind: KindLedHSV, Led: step}, nil
}

func parseImmediate(cmd map[string]any) (CommandSpec, error) {
	left, okL := numField(cmd, "left")
	right, okR := numField(cmd, "right")
	if !okL || !okR {
		return CommandSpec{}, fmt.Errorf("%w: immediate requires left and right", ErrInvalidCommand)
	}
	step := &ImmediateStep{LeftFrac: float32(left), RightFrac: float32(right), TimeoutMS: 200}
	if v, ok := numField(cmd, "timeout_ms"); ok {
		step.TimeoutMS = toU32(v)
	}
	return CommandSpec{Kind: KindImmediate, Immediate: step}, nil
}

func objField(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

func strField(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func numField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func boolField(m map[string]any, key string) (bool, bool) {
	v, ok := m[key].(bool)
	return v, ok
}

// Numeric narrowing truncates toward zero and pins out-of-range values to
// the bounds of the target width.

func toI32(f float64) int32 {
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(f)
}

func toU32(f float64) uint32 {
	if f <= 0 {
		return 0
	}
	if f >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(f)
}

func toU16(f float64) uint16 {
	if f <= 0 {
		return 0
	}
	if f >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(f)
}

func toU8(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(f)
}
