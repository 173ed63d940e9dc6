// Command nautilus-demo bootstraps telemetry from the environment, records
// a few spans and metrics per tick, and delivers them to an OTLP/HTTP
// collector (NAUTILUS_COLLECTOR_URL) or, when none is set, to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashita-ai/nautilus"
	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/internal/telemetry"
	"github.com/ashita-ai/nautilus/metric"
	"github.com/ashita-ai/nautilus/report"
	"github.com/ashita-ai/nautilus/tracing"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	logger := telemetry.NewLogger(os.Getenv("NAUTILUS_LOG_LEVEL"), os.Getenv("NAUTILUS_LOG_FORMAT"))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	var transport report.Transport = newWriterTransport(os.Stdout)
	if url := os.Getenv("NAUTILUS_COLLECTOR_URL"); url != "" {
		transport = newHTTPTransport(url, "nautilus-demo/"+version)
	}

	// SIGUSR1 simulates the application moving to the background.
	events := make(chan report.LifecycleEvent, 1)
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case <-usr1:
				events <- report.Background
			}
		}
	}()

	sys, err := nautilus.BootstrapFromEnv(ctx, transport,
		nautilus.WithLogger(logger),
		nautilus.WithServiceVersion(version),
		nautilus.WithLifecycleEvents(events),
	)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if err := sys.Shutdown(context.Background()); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	logger.Info("nautilus-demo started", "version", version, "flush_interval", sys.FlushInterval())

	w := newWorkload(sys.Tracer(), sys.Meter())
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("nautilus-demo stopping")
			return nil
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				logger.Debug("simulated request failed", "error", err)
			}
		}
	}
}

var errSimulated = errors.New("simulated upstream timeout")

type workload struct {
	tracer   *tracing.Tracer
	requests *metric.Counter[int64]
	inflight *metric.Counter[int64]
	bytes    *metric.Histogram[int64]
	started  time.Time
}

func newWorkload(t *tracing.Tracer, m *metric.Meter) *workload {
	w := &workload{
		tracer:   t,
		requests: metric.NewCounter[int64](m, "demo.requests", "{request}", "Completed requests"),
		inflight: metric.NewUpDownCounter[int64](m, "demo.requests.inflight", "{request}", "Requests in progress"),
		bytes: metric.NewHistogram(m, "demo.response.size", "By", "Response sizes",
			[]int64{1024, 2048, 3072, 4096}),
		started: time.Now(),
	}
	metric.NewObservableGauge(m, "demo.uptime", "s", "Seconds since start", func(o *metric.Observable[float64]) {
		o.Observe(time.Since(w.started).Seconds())
	})
	return w
}

func (w *workload) tick(ctx context.Context) error {
	return w.tracer.WithSpan(ctx, "fetch_feed", func(ctx context.Context) error {
		w.inflight.Add(1)
		defer w.inflight.Add(-1)

		size, err := tracing.WithSpanValue(ctx, w.tracer, "download", func(ctx context.Context) (int64, error) {
			time.Sleep(time.Duration(rand.IntN(20)) * time.Millisecond)
			if rand.IntN(10) == 0 {
				return 0, errSimulated
			}
			return rand.Int64N(6000), nil
		}, tracing.WithKind(tracing.KindClient))

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		w.requests.Add(1, attr.String("outcome", outcome))
		if err != nil {
			return err
		}
		w.bytes.Record(size)

		return w.tracer.WithSpan(ctx, "decode", func(context.Context) error {
			return nil
		}, tracing.WithAttributes(attr.Int64("payload.bytes", size)))
	})
}
