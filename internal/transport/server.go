package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/lattice-labs/matchcore/internal/metrics"
	"github.com/lattice-labs/matchcore/internal/protocol"
)

const defaultWorkers = 16

// Server is the WebSocket front door for the matching core: one HTTP
// server exposing /ws for client connections and /metrics for Prometheus
// scraping, lifecycle-supervised with gopkg.in/tomb.v2.
type Server struct {
	addr    string
	hub     *Hub
	metrics *metrics.Metrics
	http    *http.Server
	cancel  context.CancelFunc
}

// New builds a Server bound to addr (host:port) that dispatches decoded
// requests through handler, fanning trade notifications out over
// broadcaster. broadcaster is constructed independently of handler so it
// can exist before the Registry, which binds its TradeSink into every
// OrderBook it creates, and before the Handler that wraps that Registry.
func New(addr string, handler *protocol.Handler, broadcaster *Broadcaster, m *metrics.Metrics) *Server {
	hub := NewHub(handler, broadcaster, m, defaultWorkers)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeHTTP)
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		addr:    addr,
		hub:     hub,
		metrics: m,
		http:    &http.Server{Addr: addr, Handler: mux},
	}
}

// Shutdown tears the server down via its cancel func, set by Run.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Run starts the hub's workers and the HTTP listener, blocking until ctx is
// cancelled, then drains connections with a bounded grace period.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	s.hub.Run(t)

	t.Go(func() error {
		log.Info().Str("addr", s.addr).Msg("websocket server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	t.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down http server")
		}
		return nil
	})

	return t.Wait()
}
