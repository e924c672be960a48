package protocol

import (
	"github.com/lattice-labs/matchcore/internal/book"
	"github.com/lattice-labs/matchcore/internal/engine"
	"github.com/lattice-labs/matchcore/internal/metrics"
	"github.com/lattice-labs/matchcore/internal/registry"
	"github.com/rs/zerolog/log"
)

// Handler adapts decoded requests into BookRegistry/OrderBook operations
// and shapes the responses. It holds no per-connection state, so one
// Handler is shared by every connection.
type Handler struct {
	registry *registry.Registry
	metrics  *metrics.Metrics
}

// NewHandler builds a Handler bound to reg. m may be nil, in which case no
// counters are recorded.
func NewHandler(reg *registry.Registry, m *metrics.Metrics) *Handler {
	return &Handler{registry: reg, metrics: m}
}

// Handle dispatches req to the matching {OrderAdd, OrderCancel, BookQuery}
// handler and returns exactly one response value for each of those, or an
// order_response error for an unknown type/action. The book "log" action
// only writes a summary to the log and returns nil, so no response is sent
// for it. owner is the caller's session correlation id, not trusted client
// input.
func (h *Handler) Handle(req Request, owner string) any {
	switch req.Type {
	case "order":
		switch req.Action {
		case "add":
			return h.handleOrderAdd(req, owner)
		case "cancel":
			return h.handleCancel(req)
		}
	case "book":
		switch req.Action {
		case "query":
			return h.handleQuery(req.Symbol)
		case "log":
			h.handleLog()
			return nil
		}
	}
	return OrderResponse{Type: "order_response", Success: false, Message: "invalid message type"}
}

func (h *Handler) handleOrderAdd(req Request, owner string) OrderResponse {
	if req.Order == nil {
		return OrderResponse{Type: "order_response", Success: false, Message: "missing order"}
	}
	if err := validateSymbol(req.Symbol); err != nil {
		return OrderResponse{Type: "order_response", Success: false, Message: err.Error()}
	}
	if err := validateQuantity(req.Order.Quantity); err != nil {
		return OrderResponse{Type: "order_response", Success: false, Message: err.Error()}
	}
	price, err := toBookPrice(req.Order.Price)
	if err != nil {
		return OrderResponse{Type: "order_response", Success: false, Message: err.Error()}
	}

	side := book.Sell
	if req.Order.IsBuy {
		side = book.Buy
	}

	b, err := h.registry.GetOrCreate(req.Symbol)
	if err != nil {
		if h.metrics != nil {
			h.metrics.OrdersRejected.WithLabelValues("symbol capacity").Inc()
		}
		return OrderResponse{Type: "order_response", Success: false, Message: "symbol capacity"}
	}

	result := b.Admit(engine.AdmitRequest{
		Symbol:   req.Symbol,
		Owner:    owner,
		Side:     side,
		Price:    price,
		Quantity: req.Order.Quantity,
	})

	if !result.Accepted() {
		if h.metrics != nil {
			h.metrics.OrdersRejected.WithLabelValues(result.Reason.String()).Inc()
		}
		return OrderResponse{
			Type:    "order_response",
			Success: false,
			Message: result.Reason.String(),
		}
	}
	if h.metrics != nil {
		h.metrics.OrdersAdmitted.WithLabelValues(req.Symbol).Inc()
		if len(result.Trades) > 0 {
			h.metrics.TradesExecuted.WithLabelValues(req.Symbol).Add(float64(len(result.Trades)))
		}
	}
	return OrderResponse{
		Type:    "order_response",
		Success: true,
		OrderID: result.Order.ID,
		Message: "accepted",
	}
}

func (h *Handler) handleCancel(req Request) CancelResponse {
	// The request schema does not carry a symbol for cancel, so every
	// registered book is tried until a non-NotFound outcome surfaces.
	for _, b := range h.registry.All() {
		result := b.Cancel(req.OrderID)
		switch result.Status {
		case engine.CancelSuccess:
			if h.metrics != nil {
				h.metrics.OrdersCancelled.WithLabelValues(b.Symbol).Inc()
			}
			return CancelResponse{Type: "cancel_response", Success: true, OrderID: req.OrderID, Message: "cancelled"}
		case engine.CancelAlreadyFilled:
			return CancelResponse{Type: "cancel_response", Success: false, OrderID: req.OrderID, Message: "already filled"}
		}
	}
	return CancelResponse{Type: "cancel_response", Success: false, OrderID: req.OrderID, Message: "not found"}
}

func (h *Handler) handleQuery(symbol string) BookResponse {
	var books []*engine.OrderBook
	if symbol == "" {
		books = h.registry.All()
	} else if b, ok := h.registry.Get(symbol); ok {
		books = []*engine.OrderBook{b}
	}

	resp := BookResponse{Type: "book_response", Symbols: make([]SymbolBook, 0, len(books))}
	for _, b := range books {
		snap := b.Snapshot()
		resp.Symbols = append(resp.Symbols, SymbolBook{
			Symbol:     snap.Symbol,
			BuyOrders:  renderLevels(snap.Bids, true),
			SellOrders: renderLevels(snap.Asks, false),
		})
	}
	return resp
}

func (h *Handler) handleLog() {
	for _, b := range h.registry.All() {
		log.Info().
			Str("symbol", b.Symbol).
			Uint64("total_orders", b.TotalOrders()).
			Msg("book summary")
	}
}

func renderLevels(levels []engine.LevelSnapshot, isBuy bool) []WireLevel {
	out := make([]WireLevel, len(levels))
	for i, l := range levels {
		entries := make([]WireEntry, len(l.Orders))
		for j, o := range l.Orders {
			entries[j] = WireEntry{ID: o.ID, Quantity: o.RemainingQty, IsBuy: isBuy, Owner: o.Owner}
		}
		out[i] = WireLevel{Price: priceFloat(l.Price), Orders: entries}
	}
	return out
}

// TradeBroadcastFrom shapes an executed trade for fan-out over the
// transport boundary.
func TradeBroadcastFrom(t engine.Trade) TradeBroadcast {
	return TradeBroadcast{
		Type:        "trade",
		TradeID:     t.TradeID,
		Symbol:      t.Symbol,
		Price:       priceFloat(t.Price),
		Quantity:    t.Quantity,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Timestamp:   t.Timestamp.Unix(),
	}
}
