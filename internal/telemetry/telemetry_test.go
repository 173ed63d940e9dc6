package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), DiagnosticsConfig{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMeterAndTracerAreUsable(t *testing.T) {
	m := Meter("nautilus/test")
	require.NotNil(t, m)
	c, err := m.Int64Counter("nautilus.test.count")
	require.NoError(t, err)
	c.Add(context.Background(), 1)

	_, span := Tracer("nautilus/test").Start(context.Background(), "op")
	span.End()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("tracing: dropped")
	assert.Empty(t, buf.String())

	logger.Warn("tracing: kept", "span_count", 3)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tracing: kept", rec["msg"])
	assert.Equal(t, float64(3), rec["span_count"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "nonsense", "TEXT")
	logger.Info("report: sent", "bytes", 10)

	out := buf.String()
	assert.True(t, strings.Contains(out, `msg="report: sent"`), out)
	assert.True(t, strings.Contains(out, "bytes=10"), out)
}
