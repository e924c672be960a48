// Package transport implements the WebSocket boundary: connection
// lifecycle, message framing, and broadcast fan-out, all outside the
// matching core's critical section.
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/lattice-labs/matchcore/internal/engine"
	"github.com/lattice-labs/matchcore/internal/metrics"
	"github.com/lattice-labs/matchcore/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Broadcaster owns the set of connected clients and the trade-broadcast
// fan-out. It is constructed before the BookRegistry, because every book
// needs a TradeSink bound at creation time but the registry itself has no
// notion of connections.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client

	queue chan protocol.TradeBroadcast
}

// NewBroadcaster builds an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		queue:   make(chan protocol.TradeBroadcast, 256),
	}
}

// TradeSink returns a TradeSink that hands executed trades to the
// broadcaster. It is called synchronously from inside the matcher, so it
// must never block: the channel is buffered and full sends are dropped
// with a log line rather than stalling the matching core.
func (b *Broadcaster) TradeSink() engine.TradeSink {
	return engine.TradeSinkFunc(func(t engine.Trade) {
		select {
		case b.queue <- protocol.TradeBroadcastFrom(t):
		default:
			log.Warn().Str("symbol", t.Symbol).Int64("trade_id", t.TradeID).
				Msg("broadcast channel full, dropping trade notification")
		}
	})
}

func (b *Broadcaster) run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case trade := <-b.queue:
			data, err := json.Marshal(trade)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal trade broadcast")
				continue
			}
			b.fanOut(data)
		}
	}
}

func (b *Broadcaster) fanOut(data []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("session", c.id).Msg("client send buffer full, dropping frame")
		}
	}
}

func (b *Broadcaster) add(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c.id] = c
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c.id]; ok {
		delete(b.clients, c.id)
		close(c.send)
	}
}

// Hub owns the decoded-message worker pool and the WebSocket upgrade path.
// The matching core underneath it has no notion of connections.
type Hub struct {
	handler     *protocol.Handler
	metrics     *metrics.Metrics
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	pool        *WorkerPool
}

// NewHub builds a Hub bound to handler and broadcaster, optionally
// recording metrics.
func NewHub(handler *protocol.Handler, broadcaster *Broadcaster, m *metrics.Metrics, workers int) *Hub {
	return &Hub{
		handler:     handler,
		metrics:     m,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pool: NewWorkerPool(workers),
	}
}

// Run starts the message-processing workers and the broadcast fan-out
// goroutine under t, until t starts dying.
func (h *Hub) Run(t *tomb.Tomb) {
	h.pool.Setup(t, h.processTask)
	t.Go(func() error {
		return h.broadcaster.run(t)
	})
}

// ServeHTTP upgrades the connection and starts its read/write pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		ws:   ws,
		hub:  h,
		send: make(chan []byte, 64),
	}

	h.broadcaster.add(c)
	if h.metrics != nil {
		h.metrics.ActiveConns.Inc()
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) disconnect(c *client) {
	h.broadcaster.remove(c)
	if h.metrics != nil {
		h.metrics.ActiveConns.Dec()
	}
}

// decodedTask is the unit of work queued by a read pump and drained by the
// worker pool; it carries enough context to shape and deliver exactly one
// response.
type decodedTask struct {
	client *client
	req    protocol.Request
}

// processTask is the WorkerFunction bounding concurrent request handling.
func (h *Hub) processTask(t *tomb.Tomb, task any) error {
	dt, ok := task.(decodedTask)
	if !ok {
		return nil
	}

	resp := h.handler.Handle(dt.req, dt.client.id)
	if resp == nil {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		return nil
	}

	select {
	case dt.client.send <- data:
	default:
		log.Warn().Str("session", dt.client.id).Msg("client send buffer full, dropping response")
	}
	return nil
}
