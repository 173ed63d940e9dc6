// Package sampling decides whether a session reports telemetry. Decisions
// are stable: the same seed and GUID always give the same answer for a given
// rate, so a device samples consistently across process restarts.
package sampling

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// DefaultSeed is the salt mixed into the hash when none is configured.
const DefaultSeed = "OpenTelemetry"

// Sampler answers whether telemetry should be reported.
type Sampler interface {
	ShouldSample() bool
}

// StableGUIDSampler derives a sampling decision from SHA-256(seed || guid).
// All methods are safe for concurrent use.
type StableGUIDSampler struct {
	mu           sync.Mutex
	sampleRate   float64
	seed         []byte
	guid         []byte
	shouldSample bool
}

// NewStableGUIDSampler returns a sampler for the given rate, in percent.
// A rate outside [0, 100] is a programming error and panics.
func NewStableGUIDSampler(sampleRate float64, seed, guid []byte) *StableGUIDSampler {
	checkRate(sampleRate)
	s := &StableGUIDSampler{
		sampleRate: sampleRate,
		seed:       bytes.Clone(seed),
		guid:       bytes.Clone(guid),
	}
	s.shouldSample = decide(s.sampleRate, s.seed, s.guid)
	return s
}

// ShouldSample returns the cached decision.
func (s *StableGUIDSampler) ShouldSample() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldSample
}

// SampleRate returns the configured rate in percent.
func (s *StableGUIDSampler) SampleRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// GUID returns a copy of the current GUID.
func (s *StableGUIDSampler) GUID() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.guid)
}

// SetSampleRate changes the rate and recomputes the decision if it differs.
func (s *StableGUIDSampler) SetSampleRate(rate float64) {
	checkRate(rate)
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate == s.sampleRate {
		return
	}
	s.sampleRate = rate
	s.shouldSample = decide(s.sampleRate, s.seed, s.guid)
}

// SetGUID changes the GUID and recomputes the decision if it differs.
func (s *StableGUIDSampler) SetGUID(guid []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(guid, s.guid) {
		return
	}
	s.guid = bytes.Clone(guid)
	s.shouldSample = decide(s.sampleRate, s.seed, s.guid)
}

func checkRate(rate float64) {
	if math.IsNaN(rate) || rate < 0 || rate > 100 {
		panic(fmt.Sprintf("sampling: sample rate %v outside [0, 100]", rate))
	}
}

// decide maps the hash onto [0, 100] and samples when it falls below rate.
func decide(rate float64, seed, guid []byte) bool {
	h := sha256.New()
	h.Write(seed)
	h.Write(guid)
	sum := h.Sum(nil)

	v := binary.LittleEndian.Uint32(sum[:4])
	ramp := float64(v) / float64(math.MaxUint32) * 100
	return ramp < rate
}
