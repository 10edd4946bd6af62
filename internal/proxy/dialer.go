package proxy

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// dialTimeout bounds a single connect attempt so one dead candidate does
// not stall the whole address list.
const dialTimeout = 10 * time.Second

// dialUpstream resolves host and connects to the first address that
// accepts. When sourceHost is set, its first resolved address is bound as
// the local endpoint (port 0) and destination candidates of the other
// address family are skipped.
func dialUpstream(ctx context.Context, host string, port int, sourceHost string) (net.Conn, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrUnreachable, host, err)
	}

	var source net.IP
	if sourceHost != "" {
		srcAddrs, err := net.DefaultResolver.LookupIPAddr(ctx, sourceHost)
		if err != nil || len(srcAddrs) == 0 {
			return nil, fmt.Errorf("%w: resolving source %s: %v", ErrUnreachable, sourceHost, err)
		}
		source = srcAddrs[0].IP
	}

	var lastErr error
	for _, addr := range addrs {
		dialer := net.Dialer{Timeout: dialTimeout}
		network := "tcp"
		if source != nil {
			if (source.To4() == nil) != (addr.IP.To4() == nil) {
				continue
			}
			if source.To4() != nil {
				network = "tcp4"
			} else {
				network = "tcp6"
			}
			dialer.LocalAddr = &net.TCPAddr{IP: source}
		}
		conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(addr.IP.String(), strconv.Itoa(port)))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no address family candidates for %s", host)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, host, lastErr)
}
