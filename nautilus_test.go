package nautilus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/nautilus/attr"
	"github.com/ashita-ai/nautilus/metric"
	"github.com/ashita-ai/nautilus/report"
	"github.com/ashita-ai/nautilus/tracing"
)

type recordingReporter struct {
	interval time.Duration

	mu         sync.Mutex
	spans      []*tracing.Span
	snapshots  []metric.Snapshot
	subscribed int
}

func (r *recordingReporter) FlushInterval() time.Duration { return r.interval }

func (r *recordingReporter) ReportSpans(_ context.Context, spans []*tracing.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, spans...)
}

func (r *recordingReporter) ReportInstruments(_ context.Context, snaps []metric.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snaps...)
}

func (r *recordingReporter) SubscribeToLifecycleEvents() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribed++
}

func (r *recordingReporter) spanNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.spans))
	for i, s := range r.spans {
		out[i] = s.Name()
	}
	return out
}

func (r *recordingReporter) snapshotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func bootstrapForTest(t *testing.T, r report.Reporter) *System {
	t.Helper()
	sys, err := Bootstrap(context.Background(), r)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	return sys
}

func TestGlobalsAreStable(t *testing.T) {
	assert.Same(t, Tracer(), Tracer())
	assert.Same(t, Meter(), Meter())
}

func TestCurrentBeforeBootstrap(t *testing.T) {
	_, err := Current()
	assert.ErrorIs(t, err, ErrNotBootstrapped)
}

func TestBootstrapOnce(t *testing.T) {
	r := &recordingReporter{interval: time.Minute}
	sys := bootstrapForTest(t, r)

	got, err := Current()
	require.NoError(t, err)
	assert.Same(t, sys, got)
	assert.Equal(t, 1, r.subscribed)

	_, err = Bootstrap(context.Background(), &recordingReporter{})
	assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
}

func TestBootstrapRequiresReporter(t *testing.T) {
	_, err := Bootstrap(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoReporter)
}

func TestNonPositiveIntervalBecomesOneSecond(t *testing.T) {
	sys := bootstrapForTest(t, &recordingReporter{interval: 0})
	assert.Equal(t, time.Second, sys.FlushInterval())
	assert.Equal(t, time.Second, Tracer().FlushInterval())
}

func TestFlushDeliversSpansAndInstruments(t *testing.T) {
	r := &recordingReporter{interval: time.Hour}
	sys := bootstrapForTest(t, r)

	err := Tracer().WithSpan(context.Background(), "load", func(ctx context.Context) error {
		return Tracer().WithSpan(ctx, "parse", func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	c := metric.NewCounter[int](Meter(), "nautilus.test.loads", "", "")
	c.Add(1, attr.String("source", "test"))

	require.NoError(t, sys.Flush(context.Background()))
	assert.Equal(t, []string{"parse", "load"}, r.spanNames())
	assert.Equal(t, 1, r.snapshotCount())
	assert.True(t, sys.SamplingEnabled())
}

func TestShutdownFlushesAndAllowsRebootstrap(t *testing.T) {
	r := &recordingReporter{interval: time.Hour}
	sys, err := Bootstrap(context.Background(), r)
	require.NoError(t, err)

	s := Tracer().StartSpan(context.Background(), "pending")
	s.End()

	require.NoError(t, sys.Shutdown(context.Background()))
	require.NoError(t, sys.Shutdown(context.Background()))
	assert.Contains(t, r.spanNames(), "pending")

	_, err = Current()
	assert.ErrorIs(t, err, ErrNotBootstrapped)

	bootstrapForTest(t, &recordingReporter{interval: time.Hour})
}

func TestBootstrapFromEnv(t *testing.T) {
	t.Setenv("NAUTILUS_SAMPLE_RATE", "100")
	t.Setenv("NAUTILUS_FLUSH_INTERVAL", "1h")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SERVICE_NAME", "env-test")

	var (
		mu       sync.Mutex
		payloads []report.Payload
	)
	transport := report.TransportFunc(func(_ context.Context, p report.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		payloads = append(payloads, p)
		return nil
	})

	events := make(chan report.LifecycleEvent)
	sys, err := BootstrapFromEnv(context.Background(), transport,
		WithServiceVersion("9.9.9"),
		WithLifecycleEvents(events),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		close(events)
		_ = sys.Shutdown(context.Background())
	})
	assert.Equal(t, time.Hour, sys.FlushInterval())
	assert.True(t, sys.SamplingEnabled())

	s := Tracer().StartSpan(context.Background(), "from-env")
	s.End()
	require.NoError(t, sys.Flush(context.Background()))

	mu.Lock()
	sent := append([]report.Payload(nil), payloads...)
	mu.Unlock()
	require.Len(t, sent, 1)
	body := string(sent[0].Body)
	assert.Contains(t, body, `"from-env"`)
	assert.Contains(t, body, `"env-test"`)
	assert.Contains(t, body, `"9.9.9"`)

	oldTrace := Tracer().TraceID()
	events <- report.Background
	assert.Eventually(t, func() bool { return Tracer().TraceID() != oldTrace }, time.Second, 5*time.Millisecond)
}

func TestBootstrapFromEnvRejectsBadConfig(t *testing.T) {
	t.Setenv("NAUTILUS_SAMPLE_RATE", "150")
	_, err := BootstrapFromEnv(context.Background(), report.TransportFunc(func(context.Context, report.Payload) error { return nil }))
	assert.Error(t, err)

	_, err = Current()
	assert.ErrorIs(t, err, ErrNotBootstrapped)
}
