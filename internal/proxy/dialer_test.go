package proxy

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func acceptOnce(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func TestDialUpstream(t *testing.T) {
	_, port := acceptOnce(t)

	conn, err := dialUpstream(context.Background(), "127.0.0.1", port, "")
	require.NoError(t, err)
	conn.Close()
}

func TestDialUpstreamSourceBinding(t *testing.T) {
	_, port := acceptOnce(t)

	conn, err := dialUpstream(context.Background(), "127.0.0.1", port, "127.0.0.1")
	require.NoError(t, err)
	defer conn.Close()

	local := conn.LocalAddr().(*net.TCPAddr)
	require.Equal(t, "127.0.0.1", local.IP.String())
}

func TestDialUpstreamFamilyMismatch(t *testing.T) {
	// Destination resolves only to IPv6; an IPv4 source skips every
	// candidate without dialing.
	_, err := dialUpstream(context.Background(), "::1", 443, "127.0.0.1")
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestDialUpstreamRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = dialUpstream(context.Background(), "127.0.0.1", port, "")
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestDialUpstreamResolveFailure(t *testing.T) {
	_, err := dialUpstream(context.Background(), "host.invalid", 443, "")
	require.ErrorIs(t, err, ErrUnreachable)
}
