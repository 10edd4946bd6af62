package proxy

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"nodpi-proxy/internal/blacklist"
	"nodpi-proxy/internal/config"
	"nodpi-proxy/internal/fragment"
	"nodpi-proxy/internal/logging"
	"nodpi-proxy/internal/ui"
)

// Server accepts proxy clients and spawns one handler goroutine per
// connection.
type Server struct {
	cfg        *config.Config
	engine     blacklist.Engine
	fragmenter fragment.Fragmenter
	logger     *logging.Logger

	stats    *Stats
	registry *Registry

	ln       net.Listener
	ready    chan struct{}  // closed once the listener is bound
	wg       sync.WaitGroup // tracks in-flight handlers for draining
	shutdown chan struct{}

	// OnSample, when set, receives the statistics snapshot once per
	// second. The terminal renderer hangs off this hook so the core
	// stays free of presentation concerns.
	OnSample func(Snapshot)
}

// NewServer wires the decision engine, fragmenter and logger into a
// server for the given configuration.
func NewServer(cfg *config.Config, engine blacklist.Engine, fragmenter fragment.Fragmenter, logger *logging.Logger) *Server {
	return &Server{
		cfg:        cfg,
		engine:     engine,
		fragmenter: fragmenter,
		logger:     logger,
		stats:      NewStats(),
		registry:   NewRegistry(),
		ready:      make(chan struct{}),
		shutdown:   make(chan struct{}),
	}
}

// Addr returns the bound listener address, blocking until Start has
// bound it.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.ln.Addr()
}

// Stats exposes the global counters and throughput samples.
func (s *Server) Stats() *Stats { return s.stats }

// Start binds the listener and blocks in the accept loop until the
// context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	var err error
	s.ln, err = net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr(), err)
	}
	close(s.ready)

	go s.watchShutdown(ctx)
	go s.sampleLoop(ctx)

	for {
		select {
		case <-s.shutdown:
			return s.drainConnections()
		default:
		}

		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return s.drainConnections()
			default:
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				return err
			}
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

// watchShutdown closes the listener once the context is cancelled so the
// accept loop unblocks.
func (s *Server) watchShutdown(ctx context.Context) {
	<-ctx.Done()
	close(s.shutdown)
	s.ln.Close()
}

// sampleLoop feeds the 1-Hz statistics sampler and the optional
// presentation hook.
func (s *Server) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.stats.Sample(now)
			if cb := s.OnSample; cb != nil {
				cb(s.stats.Snapshot())
			}
		}
	}
}

// drainConnections waits for in-flight tunnels to end on their own.
// There is no forced cancellation; a tunnel ends when a peer closes.
func (s *Server) drainConnections() error {
	if active := s.registry.Len(); active > 0 && !s.cfg.Quiet {
		ui.LogStatus("info", fmt.Sprintf("Draining %d active connections (30s timeout)...", active))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if !s.cfg.Quiet {
			ui.LogStatus("success", "All connections drained. Goodbye.")
		}
	case <-time.After(30 * time.Second):
		if !s.cfg.Quiet {
			ui.LogStatus("warning", "Drain timeout reached. Forcing shutdown.")
		}
	}

	return nil
}
