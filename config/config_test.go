package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "rover1"
  username: "user"
  password: "pass"
  command_topic: "robot/command"
  debug_topic: "robot/debug"
  use_tls: false
metrics:
  prometheus_enabled: true
  prometheus_port: ":9101"
  influx_enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "rover1"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"command_topic", cfg.MQTT.CommandTopic, "robot/command"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9101"},
		{"influx_enabled", cfg.Metrics.InfluxEnabled, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"mqtt":{"broker":"tcp://localhost:1883"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.MQTT.CommandTopic != "robot/command" {
		t.Errorf("command topic default missing: %q", cfg.MQTT.CommandTopic)
	}
	if cfg.MQTT.ClientID == "" {
		t.Errorf("client id default missing")
	}
	if cfg.Metrics.PrometheusPort != ":9100" {
		t.Errorf("prometheus port default missing: %q", cfg.Metrics.PrometheusPort)
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"mqtt":{}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for missing broker")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Errorf("expected error for unsupported format")
	}
}
