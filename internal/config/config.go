// Package config loads and validates configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration read at bootstrap.
type Config struct {
	// Reporting.
	FlushInterval time.Duration
	SampleRate    float64 // Percent of sessions reported, 0 to 100.
	SamplingSeed  string
	ServerOffset  float64 // Seconds to add to local time to get server time.

	// Resource.
	ServiceName    string
	ServiceVersion string

	// Self-diagnostics export over OTLP/HTTP.
	DiagnosticsEndpoint string // Empty disables export.
	DiagnosticsInsecure bool

	// Logging.
	LogLevel  string
	LogFormat string // "json" or "text"
}

// Load reads configuration from environment variables with sensible defaults.
// Values that are present but unparsable are errors rather than silently
// replaced by their defaults.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		FlushInterval:       l.duration("NAUTILUS_FLUSH_INTERVAL", 60*time.Second),
		SampleRate:          l.float("NAUTILUS_SAMPLE_RATE", 1.0),
		SamplingSeed:        l.str("NAUTILUS_SAMPLING_SEED", "OpenTelemetry"),
		ServerOffset:        l.float("NAUTILUS_SERVER_OFFSET", 0),
		ServiceName:         l.str("OTEL_SERVICE_NAME", ""),
		ServiceVersion:      l.str("NAUTILUS_SERVICE_VERSION", ""),
		DiagnosticsEndpoint: l.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		DiagnosticsInsecure: l.bool("NAUTILUS_DIAGNOSTICS_INSECURE", false),
		LogLevel:            l.str("NAUTILUS_LOG_LEVEL", "info"),
		LogFormat:           l.str("NAUTILUS_LOG_FORMAT", "json"),
	}
	if err := errors.Join(l.errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that values are within range.
func (c Config) Validate() error {
	if c.FlushInterval <= 0 {
		return fmt.Errorf("config: NAUTILUS_FLUSH_INTERVAL must be positive")
	}
	if math.IsNaN(c.SampleRate) || c.SampleRate < 0 || c.SampleRate > 100 {
		return fmt.Errorf("config: NAUTILUS_SAMPLE_RATE must be between 0 and 100")
	}
	if c.SamplingSeed == "" {
		return fmt.Errorf("config: NAUTILUS_SAMPLING_SEED must not be empty")
	}
	if math.IsNaN(c.ServerOffset) || math.IsInf(c.ServerOffset, 0) {
		return fmt.Errorf("config: NAUTILUS_SERVER_OFFSET must be finite")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("config: NAUTILUS_LOG_FORMAT must be json or text")
	}
	return nil
}

type loader struct {
	errs []error
}

func (l *loader) invalid(key, v, what string) {
	l.errs = append(l.errs, fmt.Errorf("config: %s=%q is not a valid %s", key, v, what))
}

func (l *loader) str(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (l *loader) float(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.invalid(key, v, "number")
		return defaultVal
	}
	return f
}

func (l *loader) bool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.invalid(key, v, "boolean")
		return defaultVal
	}
	return b
}

// duration accepts Go duration syntax ("30s") or a bare number of seconds.
func (l *loader) duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	l.invalid(key, v, "duration")
	return defaultVal
}
