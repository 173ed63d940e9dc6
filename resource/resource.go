// Package resource describes the process and host that produce telemetry.
package resource

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/ashita-ai/nautilus/attr"
)

const (
	placeholder = "unknown"

	SDKName    = "nautilus"
	SDKVersion = "1.0"
)

// Attributes are the resource attributes attached to every export.
type Attributes struct {
	ServiceName    string
	ServiceVersion string
	DeviceID       string
	DeviceModel    string
	HostName       string
	OSType         string
	OSName         string
	OSVersion      string

	// Additional attributes never replace the fields above.
	Additional []attr.KeyValue
}

// Default describes the running process. The service name is the executable
// name and the version comes from the main module's build info; either may be
// overridden afterwards.
func Default(additional ...attr.KeyValue) Attributes {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = placeholder
	}
	return Attributes{
		ServiceName:    executableName(),
		ServiceVersion: buildVersion(),
		DeviceID:       placeholder,
		DeviceModel:    runtime.GOARCH,
		HostName:       host,
		OSType:         runtime.GOOS,
		OSName:         runtime.GOOS,
		OSVersion:      osVersion(),
		Additional:     slices.Clone(additional),
	}
}

// With returns a copy with more additional attributes appended.
func (a Attributes) With(additional ...attr.KeyValue) Attributes {
	a.Additional = append(slices.Clone(a.Additional), additional...)
	return a
}

// KeyValues returns the attributes keyed by OpenTelemetry semantic
// conventions, sorted by key. Empty fields are reported as "unknown".
func (a Attributes) KeyValues() []attr.KeyValue {
	builtin := []attr.KeyValue{
		attr.String(string(semconv.ServiceNameKey), orPlaceholder(a.ServiceName)),
		attr.String(string(semconv.ServiceVersionKey), orPlaceholder(a.ServiceVersion)),
		attr.String(string(semconv.TelemetrySDKNameKey), SDKName),
		attr.String(string(semconv.TelemetrySDKLanguageKey), semconv.TelemetrySDKLanguageGo.Value.AsString()),
		attr.String(string(semconv.TelemetrySDKVersionKey), SDKVersion),
		attr.String(string(semconv.DeviceIDKey), orPlaceholder(a.DeviceID)),
		attr.String(string(semconv.DeviceModelIdentifierKey), orPlaceholder(a.DeviceModel)),
		attr.String(string(semconv.HostNameKey), orPlaceholder(a.HostName)),
		attr.String(string(semconv.OSTypeKey), orPlaceholder(a.OSType)),
		attr.String(string(semconv.OSNameKey), orPlaceholder(a.OSName)),
		attr.String(string(semconv.OSVersionKey), orPlaceholder(a.OSVersion)),
	}

	taken := make(map[string]bool, len(builtin))
	for _, kv := range builtin {
		taken[kv.Key] = true
	}
	out := builtin
	for _, kv := range a.Additional {
		if taken[kv.Key] {
			continue
		}
		taken[kv.Key] = true
		out = append(out, kv)
	}
	slices.SortFunc(out, func(x, y attr.KeyValue) int { return strings.Compare(x.Key, y.Key) })
	return out
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func executableName() string {
	exe, err := os.Executable()
	if err != nil {
		return placeholder
	}
	return strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return placeholder
	}
	return info.Main.Version
}
