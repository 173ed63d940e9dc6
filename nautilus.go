// Package nautilus is the entry point for instrumenting an application.
//
// The process has one Tracer and one Meter, available before bootstrap;
// spans ended before a reporter is installed are discarded. Bootstrap
// installs a reporter once and starts periodic flushing:
//
//	sys, err := nautilus.BootstrapFromEnv(ctx, transport,
//	    nautilus.WithLogger(logger),
//	    nautilus.WithLifecycleEvents(events),
//	)
//	if err != nil { ... }
//	defer sys.Shutdown(context.Background())
//
//	err = nautilus.Tracer().WithSpan(ctx, "load_feed", func(ctx context.Context) error {
//	    ...
//	})
package nautilus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/nautilus/clock"
	"github.com/ashita-ai/nautilus/internal/config"
	"github.com/ashita-ai/nautilus/internal/telemetry"
	"github.com/ashita-ai/nautilus/metric"
	"github.com/ashita-ai/nautilus/report"
	"github.com/ashita-ai/nautilus/resource"
	"github.com/ashita-ai/nautilus/tracing"
)

const (
	meterName        = "nautilus"
	minFlushInterval = time.Second
)

var (
	ErrAlreadyBootstrapped = errors.New("nautilus: already bootstrapped")
	ErrNotBootstrapped     = errors.New("nautilus: not bootstrapped")
	ErrNoReporter          = errors.New("nautilus: reporter is required")
)

var (
	globalTracer = sync.OnceValue(func() *tracing.Tracer { return tracing.NewTracer(nil) })
	globalMeter  = sync.OnceValue(func() *metric.Meter { return metric.NewMeter(meterName, resource.SDKVersion, nil) })

	mu      sync.Mutex
	current *System
)

// Tracer returns the process-wide tracer.
func Tracer() *tracing.Tracer { return globalTracer() }

// Meter returns the process-wide meter.
func Meter() *metric.Meter { return globalMeter() }

// System is the bootstrapped reporting pipeline.
type System struct {
	tracer   *tracing.Tracer
	meter    *metric.Meter
	reporter report.Reporter
	interval time.Duration
	logger   *slog.Logger

	diagnostics telemetry.Shutdown

	cancelLoop context.CancelFunc
	done       chan struct{}
	stopOnce   sync.Once
}

// Current returns the bootstrapped system.
func Current() (*System, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil, ErrNotBootstrapped
	}
	return current, nil
}

// Bootstrap installs reporter as the destination for the process-wide
// tracer and meter, and starts flushing at the reporter's interval. It
// succeeds once per process until Shutdown; later calls return
// ErrAlreadyBootstrapped. The flush loops stop when ctx is cancelled.
func Bootstrap(ctx context.Context, reporter report.Reporter, opts ...Option) (*System, error) {
	o := resolveOptions(opts)
	return bootstrap(ctx, reporter, o, nil)
}

// BootstrapFromEnv loads a .env file if present, reads configuration from
// the environment, optionally enables self-diagnostics export, and
// bootstraps a SamplingReporter delivering through transport.
func BootstrapFromEnv(ctx context.Context, transport report.Transport, opts ...Option) (*System, error) {
	o := resolveOptions(opts)

	// Non-fatal; most deployments have no .env file.
	_ = godotenv.Load(o.envFiles...)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("nautilus: load config: %w", err)
	}

	logger := o.logger
	if logger == nil {
		logger = telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
		o.logger = logger
	}

	res := resource.Default(o.attributes...)
	if cfg.ServiceName != "" {
		res.ServiceName = cfg.ServiceName
	}
	if cfg.ServiceVersion != "" {
		res.ServiceVersion = cfg.ServiceVersion
	}
	if o.serviceVersion != "" {
		res.ServiceVersion = o.serviceVersion
	}

	shutdown, err := telemetry.Init(ctx, telemetry.DiagnosticsConfig{
		Endpoint:       cfg.DiagnosticsEndpoint,
		Insecure:       cfg.DiagnosticsInsecure,
		ServiceName:    res.ServiceName,
		ServiceVersion: res.ServiceVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("nautilus: %w", err)
	}

	ropts := []report.Option{
		report.WithFlushInterval(cfg.FlushInterval),
		report.WithSampleRate(cfg.SampleRate),
		report.WithSeed([]byte(cfg.SamplingSeed)),
		report.WithTimeReference(clock.NewTimeReference(cfg.ServerOffset)),
		report.WithResource(res),
		report.WithLogger(logger),
	}
	if o.lifecycle != nil {
		ropts = append(ropts, report.WithLifecycleEvents(o.lifecycle, func(ctx context.Context) {
			Tracer().FlushTrace(ctx)
		}))
	}
	reporter, err := report.NewSamplingReporter(transport, ropts...)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("nautilus: %w", err)
	}

	logger.Info("nautilus: bootstrapping from environment",
		"service_name", res.ServiceName,
		"sample_rate", cfg.SampleRate,
		"sampled", reporter.SamplingEnabled(),
		"flush_interval", cfg.FlushInterval,
		"diagnostics_enabled", cfg.DiagnosticsEndpoint != "",
	)

	sys, err := bootstrap(ctx, reporter, o, shutdown)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	return sys, nil
}

func bootstrap(ctx context.Context, reporter report.Reporter, o resolvedOptions, diagnostics telemetry.Shutdown) (*System, error) {
	if reporter == nil {
		return nil, ErrNoReporter
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return nil, ErrAlreadyBootstrapped
	}

	interval := reporter.FlushInterval()
	if interval <= 0 {
		interval = minFlushInterval
	}
	if diagnostics == nil {
		diagnostics = func(context.Context) error { return nil }
	}

	s := &System{
		tracer:      Tracer(),
		meter:       Meter(),
		reporter:    reporter,
		interval:    interval,
		logger:      logger,
		diagnostics: diagnostics,
		done:        make(chan struct{}),
	}
	s.tracer.SetReporter(reporter)
	s.tracer.SetFlushInterval(interval)
	s.tracer.Start(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancelLoop = cancel
	go s.metricLoop(loopCtx)

	reporter.SubscribeToLifecycleEvents()
	current = s

	logger.Info("nautilus: bootstrapped", "flush_interval", interval)
	return s, nil
}

func (s *System) metricLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.meter.Flush(ctx, s.reporter)
		}
	}
}

func (s *System) Tracer() *tracing.Tracer   { return s.tracer }
func (s *System) Meter() *metric.Meter      { return s.meter }
func (s *System) Reporter() report.Reporter { return s.reporter }

// FlushInterval is the reporter's interval, raised to one second if it was
// not positive.
func (s *System) FlushInterval() time.Duration { return s.interval }

// SamplingEnabled reports whether the reporter's session is sampled.
// Reporters without a sampler are always enabled.
func (s *System) SamplingEnabled() bool {
	if sr, ok := s.reporter.(interface{ SamplingEnabled() bool }); ok {
		return sr.SamplingEnabled()
	}
	return true
}

// Flush hands retired spans and collected instruments to the reporter now,
// flushing both concurrently.
func (s *System) Flush(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.tracer.FlushRetiredSpans(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		s.meter.Flush(gctx, s.reporter)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("nautilus: flush: %w", err)
	}
	return nil
}

// Shutdown stops the flush loops, flushes what remains, and stops
// self-diagnostics export. Afterwards the process may bootstrap again.
func (s *System) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.cancelLoop()
		select {
		case <-s.done:
		case <-ctx.Done():
		}

		s.tracer.Stop(ctx)
		s.meter.Flush(ctx, s.reporter)
		s.tracer.SetReporter(nil)

		if derr := s.diagnostics(ctx); derr != nil {
			err = fmt.Errorf("nautilus: shutdown diagnostics: %w", derr)
		}

		mu.Lock()
		if current == s {
			current = nil
		}
		mu.Unlock()

		s.logger.Info("nautilus: shut down",
			"reported_spans", s.tracer.ReportedSpans(),
			"discarded_spans", s.tracer.DiscardedSpans(),
		)
	})
	return err
}
