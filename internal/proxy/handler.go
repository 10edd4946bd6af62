package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"nodpi-proxy/internal/config"
	"nodpi-proxy/internal/logging"
)

const (
	// firstReadSize bounds the initial request read.
	firstReadSize = 1500
	// tlsBodySize bounds the ClientHello body read on the tunnel.
	tlsBodySize = 2048
)

const (
	responseEstablished = "HTTP/1.1 200 Connection Established\r\n\r\n"
	responseError       = "HTTP/1.1 500 Internal Server Error\r\n\r\n"
)

// handleConnection runs the full per-client lifecycle: parse, decide,
// respond, connect, fragment, pipe, account, log.
func (s *Server) handleConnection(ctx context.Context, client net.Conn) {
	defer client.Close()

	MetricActiveConns.Inc()
	defer MetricActiveConns.Dec()

	start := time.Now()
	defer func() {
		MetricConnectionDuration.Observe(time.Since(start).Seconds())
	}()

	peer := "unknown"
	if addr := client.RemoteAddr(); addr != nil {
		peer = addr.String()
	}

	buf := make([]byte, firstReadSize)
	n, err := client.Read(buf)
	if err != nil || n == 0 {
		return
	}

	req, err := parseRequest(buf[:n])
	if err != nil {
		client.Write([]byte(responseError))
		s.stats.recordError()
		MetricConnectionsTotal.WithLabelValues(verdictError).Inc()
		s.logger.Error(peer + ": " + err.Error())
		return
	}

	// Auto-learning probes hosts on the CONNECT path only, before the
	// verdict for this very connection is taken.
	if s.cfg.Mode == config.ModeAuto && req.Method == "CONNECT" {
		s.engine.Observe(req.Host)
	}

	info := &ConnectionInfo{
		Peer:    peer,
		Domain:  req.Host,
		Method:  req.Method,
		Started: start.Format(logging.TimeLayout),
	}
	id := s.registry.Add(info)
	defer s.finishConnection(id)

	// The request line itself already traveled toward the origin side.
	s.stats.addBytesOut(uint64(n))

	if req.Method == "CONNECT" {
		s.handleConnect(ctx, client, req, id)
	} else {
		s.handlePlain(ctx, client, req, id)
	}
}

// finishConnection drops the registry entry and emits its single access
// log line.
func (s *Server) finishConnection(id uint64) {
	info, ok := s.registry.Remove(id)
	if !ok {
		return
	}
	s.logger.Access(fmt.Sprintf("%s %s %s %s %d %d",
		info.Started, info.Peer, info.Method, info.Domain, info.BytesIn, info.BytesOut))
}

// handleConnect establishes the tunnel, runs the initial TLS step and
// then pumps both directions until the tunnel dies.
func (s *Server) handleConnect(ctx context.Context, client net.Conn, req *Request, id uint64) {
	if _, err := client.Write([]byte(responseEstablished)); err != nil {
		return
	}
	s.stats.addBytesIn(uint64(len(responseEstablished)))

	upstream, err := dialUpstream(ctx, req.Host, req.Port, s.cfg.SourceHost)
	if err != nil {
		s.logger.Error(req.Host + ": " + err.Error())
		s.stats.recordError()
		MetricConnectionsTotal.WithLabelValues(verdictError).Inc()
		return
	}
	defer upstream.Close()

	s.relayInitialTLS(client, upstream, req.Host)
	s.runPumps(client, upstream, id)
}

// relayInitialTLS reads the client's first TLS record and forwards it
// either verbatim or fragmented, depending on the blacklist verdict.
// Write errors here are logged but not fatal; the pumps still run.
func (s *Server) relayInitialTLS(client, upstream net.Conn, host string) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(client, header); err != nil {
		s.logger.Error(host + ": " + err.Error())
		return
	}
	body := make([]byte, tlsBodySize)
	n, err := client.Read(body)
	if err != nil {
		s.logger.Error(host + ": " + err.Error())
		return
	}
	body = body[:n]

	if !s.engine.IsFragmentTarget(host) {
		s.stats.recordAllowed()
		MetricConnectionsTotal.WithLabelValues(verdictAllowed).Inc()
		if _, err := upstream.Write(append(header, body...)); err != nil {
			s.logger.Error(host + ": " + err.Error())
		}
		return
	}

	s.stats.recordBlocked()
	MetricConnectionsTotal.WithLabelValues(verdictFragmented).Inc()
	if _, err := upstream.Write(s.fragmenter.Fragment(header, body)); err != nil {
		s.logger.Error(host + ": " + err.Error())
	}
}

// handlePlain forwards a non-CONNECT request verbatim and pumps both
// directions.
func (s *Server) handlePlain(ctx context.Context, client net.Conn, req *Request, id uint64) {
	upstream, err := dialUpstream(ctx, req.Host, req.Port, s.cfg.SourceHost)
	if err != nil {
		s.logger.Error(req.Host + ": " + err.Error())
		client.Write([]byte(responseError))
		s.stats.recordError()
		MetricConnectionsTotal.WithLabelValues(verdictError).Inc()
		return
	}
	defer upstream.Close()

	if _, err := upstream.Write(req.Raw); err != nil {
		s.logger.Error(req.Host + ": " + err.Error())
		return
	}

	s.stats.recordAllowed()
	MetricConnectionsTotal.WithLabelValues(verdictAllowed).Inc()
	s.runPumps(client, upstream, id)
}

// runPumps copies both tunnel directions and returns when both are done.
func (s *Server) runPumps(client, upstream net.Conn, id uint64) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(client, upstream, id, dirOut)
	}()
	go func() {
		defer wg.Done()
		s.pump(upstream, client, id, dirIn)
	}()
	wg.Wait()
}
