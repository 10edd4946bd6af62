package proxy

import "net"

// pumpBufferSize matches the first-read buffer so a tunnel never holds
// more than one MTU-ish chunk in flight per direction.
const pumpBufferSize = 1500

type direction int

const (
	// dirOut is client → origin (egress).
	dirOut direction = iota
	// dirIn is origin → client (ingress).
	dirIn
)

// pump copies one direction of a tunnel until EOF or the first error on
// either side, crediting every read to the global byte counters and to
// the connection's registry entry. Errors are ordinary tunnel-close
// events and are not propagated.
func (s *Server) pump(src, dst net.Conn, id uint64, dir direction) {
	buf := make([]byte, pumpBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if dir == dirOut {
				s.stats.addBytesOut(uint64(n))
				s.registry.AddBytes(id, 0, uint64(n))
				MetricBytesTotal.WithLabelValues("out").Add(float64(n))
			} else {
				s.stats.addBytesIn(uint64(n))
				s.registry.AddBytes(id, uint64(n), 0)
				MetricBytesTotal.WithLabelValues("in").Add(float64(n))
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				break
			}
		}
		if err != nil {
			break
		}
	}
	// Half-close so the peer sees EOF while its own writes still drain.
	if tc, ok := dst.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
}
