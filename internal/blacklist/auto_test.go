package blacklist

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAuto(t *testing.T) (*AutoList, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	a, err := NewAuto(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, path
}

func TestObserveResponseMeansAllowed(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden) // any status counts as reachable
	}))
	defer ts.Close()

	a, path := newTestAuto(t)
	host := ts.Listener.Addr().String()

	a.Observe(host)

	require.False(t, a.IsFragmentTarget(host))
	a.allowedMu.Lock()
	_, allowed := a.allowed[Normalize(host)]
	a.allowedMu.Unlock()
	require.True(t, allowed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data, "reachable hosts are not persisted")
}

func TestObserveTimeoutMeansBlocked(t *testing.T) {
	// A listener that accepts and then stays silent stalls the probe
	// the same way an on-path DPI box does.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	a, path := newTestAuto(t)
	a.client.Timeout = 200 * time.Millisecond
	host := ln.Addr().String()

	a.Observe(host)

	require.True(t, a.IsFragmentTarget(host))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Normalize(host)+"\n", string(data))
}

func TestObserveRefusedLeavesStateUntouched(t *testing.T) {
	// Grab a port and close it so the probe gets a refusal, not a stall.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host := ln.Addr().String()
	ln.Close()

	a, path := newTestAuto(t)
	a.Observe(host)

	require.False(t, a.IsFragmentTarget(host))
	a.allowedMu.Lock()
	_, allowed := a.allowed[Normalize(host)]
	a.allowedMu.Unlock()
	require.False(t, allowed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestObserveSkipsKnownHosts(t *testing.T) {
	a, _ := newTestAuto(t)
	a.blockedMu.Lock()
	a.blocked["known.example"] = struct{}{}
	a.blockedMu.Unlock()

	// Would hang on a real probe; the early return makes it instant.
	done := make(chan struct{})
	go func() {
		a.Observe("known.example")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe probed a host that was already classified")
	}

	require.True(t, a.IsFragmentTarget("known.example"))
}
