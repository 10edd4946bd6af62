package proxy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCounterInvariant(t *testing.T) {
	s := NewStats()
	s.recordAllowed()
	s.recordAllowed()
	s.recordBlocked()
	s.recordError()

	snap := s.Snapshot()
	require.Equal(t, snap.Total, snap.Allowed+snap.Blocked+snap.Errors)
	require.Equal(t, uint64(4), snap.Total)
	require.Equal(t, uint64(2), snap.Allowed)
	require.Equal(t, uint64(1), snap.Blocked)
	require.Equal(t, uint64(1), snap.Errors)
}

func TestSampleRates(t *testing.T) {
	s := NewStats()
	base := time.Now()

	s.Sample(base) // seeds the baseline, no rate yet
	require.Zero(t, s.Snapshot().RateIn)

	s.addBytesIn(1000)
	s.addBytesOut(250)
	s.Sample(base.Add(time.Second))

	snap := s.Snapshot()
	require.InDelta(t, 8000, snap.RateIn, 0.1)
	require.InDelta(t, 2000, snap.RateOut, 0.1)
	require.InDelta(t, 8000, snap.AvgRateIn, 0.1)

	// A second idle interval halves the average.
	s.Sample(base.Add(2 * time.Second))
	snap = s.Snapshot()
	require.Zero(t, snap.RateIn)
	require.InDelta(t, 4000, snap.AvgRateIn, 0.1)
}

func TestSampleZeroInterval(t *testing.T) {
	s := NewStats()
	now := time.Now()
	s.Sample(now)
	s.addBytesIn(100)
	s.Sample(now) // dt == 0 must not divide

	require.Zero(t, s.Snapshot().RateIn)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	id := r.Add(&ConnectionInfo{Peer: "127.0.0.1:1234", Domain: "dpi.test", Method: "CONNECT"})
	require.Equal(t, 1, r.Len())

	r.AddBytes(id, 10, 0)
	r.AddBytes(id, 5, 20)

	info, ok := r.Remove(id)
	require.True(t, ok)
	require.Equal(t, uint64(15), info.BytesIn)
	require.Equal(t, uint64(20), info.BytesOut)
	require.Equal(t, 0, r.Len())

	// Second removal reports the entry as gone, so the access log
	// line cannot be emitted twice.
	_, ok = r.Remove(id)
	require.False(t, ok)
}

func TestRegistryDistinctIDsForSamePeer(t *testing.T) {
	r := NewRegistry()
	a := r.Add(&ConnectionInfo{Peer: "127.0.0.1:1234"})
	b := r.Add(&ConnectionInfo{Peer: "127.0.0.1:1234"})
	require.NotEqual(t, a, b)
	require.Equal(t, 2, r.Len())
}
