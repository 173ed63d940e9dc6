package nautilus

import (
	"github.com/ashita-ai/nautilus/report"
)

// Reporter receives retired spans and instrument snapshots on every flush.
// Implement it to take full control of batching and delivery, then pass it
// to Bootstrap.
type Reporter = report.Reporter

// Transport delivers encoded OTLP/JSON payloads for the reporter built by
// BootstrapFromEnv. Retries, compression and HTTP session settings belong
// to the Transport.
type Transport = report.Transport

// Payload is one encoded OTLP request.
type Payload = report.Payload

// LifecycleEvent is a foreground or background transition of the host
// application.
type LifecycleEvent = report.LifecycleEvent
