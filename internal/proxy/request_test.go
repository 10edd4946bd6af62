package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConnect(t *testing.T) {
	req, err := parseRequest([]byte("CONNECT dpi.test:443 HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "CONNECT", req.Method)
	require.Equal(t, "dpi.test", req.Host)
	require.Equal(t, 443, req.Port)
}

func TestParseConnectDefaultPort(t *testing.T) {
	req, err := parseRequest([]byte("CONNECT dpi.test HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, 443, req.Port)

	// An unparsable port falls back the same way as a missing one.
	req, err = parseRequest([]byte("CONNECT dpi.test:abc HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "dpi.test", req.Host)
	require.Equal(t, 443, req.Port)
}

func TestParseGetWithHostHeader(t *testing.T) {
	buf := []byte("GET http://example.org/ HTTP/1.1\r\nHost: example.org\r\n\r\n")
	req, err := parseRequest(buf)
	require.NoError(t, err)
	require.Equal(t, "GET", req.Method)
	require.Equal(t, "example.org", req.Host)
	require.Equal(t, 80, req.Port)
	require.Equal(t, buf, req.Raw)
}

func TestParseGetHostWithPort(t *testing.T) {
	req, err := parseRequest([]byte("GET / HTTP/1.1\r\nHost: example.org:8080\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "example.org", req.Host)
	require.Equal(t, 8080, req.Port)
}

func TestParseMissingHostHeader(t *testing.T) {
	_, err := parseRequest([]byte("BREW / HTCPCP/1.0\r\n\r\n"))
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseEmptyHostHeader(t *testing.T) {
	_, err := parseRequest([]byte("GET / HTTP/1.1\r\nHost: \r\n\r\n"))
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseEmptyBuffer(t *testing.T) {
	_, err := parseRequest(nil)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseShortFirstLine(t *testing.T) {
	_, err := parseRequest([]byte("GARBAGE\r\n\r\n"))
	require.ErrorIs(t, err, ErrInvalidRequest)
}
