package nautilus

import (
	"log/slog"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/report"
)

// Option configures Bootstrap and BootstrapFromEnv.
type Option func(*resolvedOptions)

// resolvedOptions holds all settings after applying defaults.
// Unexported; callers use the With* functions.
type resolvedOptions struct {
	logger         *slog.Logger
	serviceVersion string
	attributes     []attr.KeyValue
	lifecycle      <-chan report.LifecycleEvent
	envFiles       []string
}

func resolveOptions(opts []Option) resolvedOptions {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithLogger sets the structured logger. If not set, Bootstrap uses the
// default slog logger and BootstrapFromEnv builds one from
// NAUTILUS_LOG_LEVEL and NAUTILUS_LOG_FORMAT.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithServiceVersion overrides the service.version resource attribute
// (NAUTILUS_SERVICE_VERSION env var). Only used by BootstrapFromEnv.
func WithServiceVersion(version string) Option {
	return func(o *resolvedOptions) { o.serviceVersion = version }
}

// WithResourceAttributes adds resource attributes sent with every payload.
// Built-in attributes such as service.name cannot be replaced this way.
// Only used by BootstrapFromEnv.
func WithResourceAttributes(kvs ...attr.KeyValue) Option {
	return func(o *resolvedOptions) { o.attributes = append(o.attributes, kvs...) }
}

// WithLifecycleEvents connects the host application's foreground and
// background transitions. On report.Background the current trace is
// flushed and a new reporting session begins. Only used by
// BootstrapFromEnv; custom reporters handle their own lifecycle.
func WithLifecycleEvents(events <-chan report.LifecycleEvent) Option {
	return func(o *resolvedOptions) { o.lifecycle = events }
}

// WithEnvFiles names the dotenv files BootstrapFromEnv loads. By default it
// loads .env from the working directory when present. Variables already set
// in the environment win.
func WithEnvFiles(paths ...string) Option {
	return func(o *resolvedOptions) { o.envFiles = append(o.envFiles, paths...) }
}
