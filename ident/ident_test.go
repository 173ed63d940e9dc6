package ident

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestIDLengths(t *testing.T) {
	traceID := NewTraceID()
	spanID := NewSpanID()

	assert.Len(t, traceID, 16)
	assert.Len(t, spanID, 8)
	assert.Len(t, traceID.String(), 32)
	assert.Len(t, spanID.String(), 16)
	assert.True(t, traceID.IsValid())
	assert.True(t, spanID.IsValid())
}

func TestZeroIDsAreInvalid(t *testing.T) {
	assert.False(t, TraceID{}.IsValid())
	assert.False(t, SpanID{}.IsValid())
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	const n = 100

	var (
		mu     sync.Mutex
		traces = make(map[TraceID]struct{}, n)
		spans  = make(map[SpanID]struct{}, n)
	)

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			tid, sid := NewTraceID(), NewSpanID()
			mu.Lock()
			traces[tid] = struct{}{}
			spans[sid] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, traces, n)
	assert.Len(t, spans, n)
}

func TestSessionGUID(t *testing.T) {
	a := NewSessionGUID()
	b := NewSessionGUID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestOTelConversionRoundTrip(t *testing.T) {
	tid := NewTraceID()
	sid := NewSpanID()

	assert.Equal(t, tid.String(), tid.OTel().String())
	assert.Equal(t, sid.String(), sid.OTel().String())
	assert.Equal(t, tid, TraceIDFromOTel(tid.OTel()))
	assert.Equal(t, sid, SpanIDFromOTel(sid.OTel()))
}

func TestHexEncode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"all ones", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, "ffffffffffffffff"},
		{"leading zero", []byte{0x00, 0x01, 0x0a}, "00010a"},
		{"emoji", []byte("📀"), "f09f9380"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HexEncode(tt.in))
			assert.Equal(t, tt.want, hexEncodeSlow(tt.in))
		})
	}
}

func TestHexEncodeMatchesSlowPath(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	assert.Equal(t, hexEncodeSlow(all), HexEncode(all))

	for range 50 {
		id := NewTraceID()
		assert.Equal(t, hexEncodeSlow(id[:]), HexEncode(id[:]))
	}
}

func TestHexDecode(t *testing.T) {
	id := NewSpanID()
	got, err := HexDecode(id.String())
	require.NoError(t, err)
	assert.Equal(t, id[:], got)

	got, err = HexDecode("F09F9380")
	require.NoError(t, err)
	assert.Equal(t, "📀", string(got))

	_, err = HexDecode("abc")
	assert.ErrorIs(t, err, ErrInvalidHex)

	_, err = HexDecode("zz")
	assert.ErrorIs(t, err, ErrInvalidHex)
}
