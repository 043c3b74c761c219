package protocol

import (
	"errors"
	"testing"
)

func TestParseDriveCommand(t *testing.T) {
	env, err := Parse([]byte(`{"type":"command","command":{"kind":"drive","direction":"forward","speed":100}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if env.Type != TypeCommand || env.Command == nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	s := env.Command.Drive
	if env.Command.Kind != KindDrive || s == nil {
		t.Fatalf("unexpected spec: %+v", env.Command)
	}
	if s.Direction != "forward" || s.SpeedMMPerS != 100 || s.DurationMS != 0 || s.DistanceMM != 0 {
		t.Errorf("unexpected drive step: %+v", s)
	}
}

func TestParseDriveTruncatesTowardZero(t *testing.T) {
	env, err := Parse([]byte(`{"type":"command","command":{"kind":"drive","direction":"back","speed":99.9,"duration":1500.7,"distance":250.2}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := env.Command.Drive
	if s.SpeedMMPerS != 99 || s.DurationMS != 1500 || s.DistanceMM != 250 {
		t.Errorf("narrowing did not truncate: %+v", s)
	}
}

func TestParseTurnRequiresSpeedOrDuration(t *testing.T) {
	_, err := Parse([]byte(`{"type":"command","command":{"kind":"turn","radius":50,"angle":90}}`))
	if !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}

	env, err := Parse([]byte(`{"type":"command","command":{"kind":"turn","radius":50,"angle":-90,"speed":120}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := env.Command.Turn
	if s.RadiusMM != 50 || s.AngleDeg != -90 || s.SpeedMMPerS != 120 || s.DurationMS != 0 {
		t.Errorf("unexpected turn step: %+v", s)
	}
}

func TestParseLedHSVDefaults(t *testing.T) {
	env, err := Parse([]byte(`{"type":"command","command":{"kind":"led_hsv","h":280}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := env.Command.Led
	if s.Hue != 280 || s.Sat != 255 || s.Val != 32 {
		t.Errorf("unexpected led step: %+v", s)
	}

	// Out-of-range components pin to the target width.
	env, err = Parse([]byte(`{"type":"command","command":{"kind":"led_hsv","h":70000,"s":300,"v":-4}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s = env.Command.Led
	if s.Hue != 65535 || s.Sat != 255 || s.Val != 0 {
		t.Errorf("unexpected coerced led step: %+v", s)
	}
}

func TestParseImmediateDefaults(t *testing.T) {
	env, err := Parse([]byte(`{"type":"command","command":{"kind":"immediate","left":0.5,"right":-0.5}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	s := env.Command.Immediate
	if s.LeftFrac != 0.5 || s.RightFrac != -0.5 || s.TimeoutMS != 200 {
		t.Errorf("unexpected immediate step: %+v", s)
	}
}

func TestParseNoFieldKinds(t *testing.T) {
	for _, kind := range []Kind{KindStop, KindWait, KindPause, KindResume, KindClearQueue} {
		env, err := Parse([]byte(`{"type":"command","command":{"kind":"` + string(kind) + `"}}`))
		if err != nil {
			t.Fatalf("%s: parse error: %v", kind, err)
		}
		if env.Command.Kind != kind {
			t.Errorf("%s: unexpected kind %s", kind, env.Command.Kind)
		}
	}
}

func TestParseSequenceSkipsBadSteps(t *testing.T) {
	env, err := Parse([]byte(`{"type":"sequence","steps":[{"kind":"stop"},{"kind":"bogus"},{"kind":"clear_queue"}]}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(env.Steps) != 2 || env.Skipped != 1 {
		t.Fatalf("steps=%d skipped=%d, want 2/1", len(env.Steps), env.Skipped)
	}
	if env.Steps[0].Kind != KindStop || env.Steps[1].Kind != KindClearQueue {
		t.Errorf("unexpected step order: %+v", env.Steps)
	}
}

func TestParseSequenceSkipsNonObjectAndInvalidSteps(t *testing.T) {
	env, err := Parse([]byte(`{"type":"sequence","steps":[42,{"kind":"turn","radius":10,"angle":45},{"kind":"drive","direction":"left","speed":50}]}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	// The literal and the speedless turn are both skipped.
	if len(env.Steps) != 1 || env.Skipped != 2 {
		t.Fatalf("steps=%d skipped=%d, want 1/2", len(env.Steps), env.Skipped)
	}
	if env.Steps[0].Kind != KindDrive {
		t.Errorf("unexpected surviving step: %+v", env.Steps[0])
	}
}

func TestParseSequenceMissingSteps(t *testing.T) {
	_, err := Parse([]byte(`{"type":"sequence"}`))
	if !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestParseConfigFullReplacement(t *testing.T) {
	env, err := Parse([]byte(`{"type":"config","drive":{"wheel_track_mm":120.5,"enable_speed_control":true}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cfg := env.Drive
	if cfg == nil {
		t.Fatalf("missing drive config")
	}
	if cfg.WheelTrackMM != 120.5 || !cfg.EnableSpeedControl {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.WheelRadiusMM != 0 || cfg.MinSpeedMMPerS != 0 || cfg.MaxSpeedMMPerS != 0 ||
		cfg.TicksPerRevolution != 0 || cfg.BrakeOnStop || cfg.SpeedKp != 0 ||
		cfg.SpeedKi != 0 || cfg.MotorGainLeft != 0 || cfg.MotorGainRight != 0 {
		t.Errorf("absent fields not zeroed: %+v", cfg)
	}
}

func TestParseConfigIgnoresMistypedFields(t *testing.T) {
	env, err := Parse([]byte(`{"type":"config","drive":{"wheel_track_mm":"wide","speed_kp":0.8,"brake_on_stop":1}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cfg := env.Drive
	if cfg.WheelTrackMM != 0 || cfg.BrakeOnStop {
		t.Errorf("mistyped fields not zeroed: %+v", cfg)
	}
	if cfg.SpeedKp != 0.8 {
		t.Errorf("well-typed field lost: %+v", cfg)
	}
}

func TestParseConfigMissingDrive(t *testing.T) {
	_, err := Parse([]byte(`{"type":"config"}`))
	if !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestParseErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    error
	}{
		{"malformed", `{"type":`, ErrMalformed},
		{"not an object", `[1,2,3]`, ErrMalformed},
		{"missing type", `{"command":{}}`, ErrMissingType},
		{"non-string type", `{"type":7}`, ErrMissingType},
		{"unknown type", `{"type":"telemetry"}`, ErrUnknownType},
		{"missing command", `{"type":"command"}`, ErrInvalidCommand},
		{"missing kind", `{"type":"command","command":{}}`, ErrInvalidCommand},
		{"unknown kind", `{"type":"command","command":{"kind":"bogus"}}`, ErrUnknownKind},
		{"missing drive direction", `{"type":"command","command":{"kind":"drive","speed":10}}`, ErrInvalidCommand},
		{"empty drive direction", `{"type":"command","command":{"kind":"drive","direction":"","speed":10}}`, ErrInvalidCommand},
		{"missing immediate right", `{"type":"command","command":{"kind":"immediate","left":0.1}}`, ErrInvalidCommand},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.payload)); !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestParseIgnoresExtraFields(t *testing.T) {
	env, err := Parse([]byte(`{"type":"command","version":3,"command":{"kind":"stop","note":"ok"}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if env.Command.Kind != KindStop {
		t.Errorf("unexpected kind: %s", env.Command.Kind)
	}
}
