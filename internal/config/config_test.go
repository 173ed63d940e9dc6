package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlushInterval != 60*time.Second {
		t.Fatalf("expected 60s flush interval, got %s", cfg.FlushInterval)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1, got %v", cfg.SampleRate)
	}
	if cfg.SamplingSeed != "OpenTelemetry" {
		t.Fatalf("unexpected seed %q", cfg.SamplingSeed)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("unexpected log format %q", cfg.LogFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NAUTILUS_FLUSH_INTERVAL", "15")
	t.Setenv("NAUTILUS_SAMPLE_RATE", "25")
	t.Setenv("NAUTILUS_SERVER_OFFSET", "-1.5")
	t.Setenv("NAUTILUS_DIAGNOSTICS_INSECURE", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlushInterval != 15*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", cfg.FlushInterval)
	}
	if cfg.SampleRate != 25 {
		t.Fatalf("expected 25, got %v", cfg.SampleRate)
	}
	if cfg.ServerOffset != -1.5 {
		t.Fatalf("expected -1.5, got %v", cfg.ServerOffset)
	}
	if !cfg.DiagnosticsInsecure || cfg.DiagnosticsEndpoint != "localhost:4318" {
		t.Fatalf("diagnostics not loaded: %+v", cfg)
	}
}

func TestLoadDurationSyntax(t *testing.T) {
	t.Setenv("NAUTILUS_FLUSH_INTERVAL", "1m30s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlushInterval != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.FlushInterval)
	}
}

func TestLoadReportsUnparsableValues(t *testing.T) {
	t.Setenv("NAUTILUS_SAMPLE_RATE", "abc")
	t.Setenv("NAUTILUS_DIAGNOSTICS_INSECURE", "maybe")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, `NAUTILUS_SAMPLE_RATE="abc" is not a valid number`) {
		t.Fatalf("unexpected error message: %s", msg)
	}
	if !strings.Contains(msg, `NAUTILUS_DIAGNOSTICS_INSECURE="maybe" is not a valid boolean`) {
		t.Fatalf("unexpected error message: %s", msg)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		FlushInterval: time.Second,
		SampleRate:    50,
		SamplingSeed:  "seed",
		LogFormat:     "text",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero interval", func(c *Config) { c.FlushInterval = 0 }, "NAUTILUS_FLUSH_INTERVAL"},
		{"rate above 100", func(c *Config) { c.SampleRate = 101 }, "NAUTILUS_SAMPLE_RATE"},
		{"negative rate", func(c *Config) { c.SampleRate = -1 }, "NAUTILUS_SAMPLE_RATE"},
		{"empty seed", func(c *Config) { c.SamplingSeed = "" }, "NAUTILUS_SAMPLING_SEED"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "NAUTILUS_LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error naming %s, got %v", tt.want, err)
			}
		})
	}
}
