// Package protocol implements the JSON wire envelope and the Handler that
// adapts a decoded request into a BookRegistry/OrderBook operation. The
// codec itself is implemented with the standard library's encoding/json.
package protocol

import "github.com/lattice-labs/matchcore/internal/book"

// Request is the inbound envelope. Only the fields relevant to Type/Action
// are populated by the client; the rest are left zero.
type Request struct {
	Type    string     `json:"type"`
	Action  string     `json:"action"`
	Symbol  string     `json:"symbol,omitempty"`
	Order   *WireOrder `json:"order,omitempty"`
	OrderID int64      `json:"order_id,omitempty"`
}

// WireOrder is the order payload of an OrderAdd request.
type WireOrder struct {
	ID       int64   `json:"id"`
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
	IsBuy    bool    `json:"is_buy"`
}

// OrderResponse acknowledges an OrderAdd request.
type OrderResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	OrderID int64  `json:"order_id"`
	Message string `json:"message,omitempty"`
}

// CancelResponse acknowledges an OrderCancel request.
type CancelResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	OrderID int64  `json:"order_id"`
	Message string `json:"message,omitempty"`
}

// BookResponse renders a snapshot of one or all books.
type BookResponse struct {
	Type    string         `json:"type"`
	Symbols []SymbolBook   `json:"symbols"`
}

// SymbolBook is one symbol's rendered book within a BookResponse.
type SymbolBook struct {
	Symbol    string       `json:"symbol"`
	BuyOrders []WireLevel  `json:"buy_orders"`
	SellOrders []WireLevel `json:"sell_orders"`
}

// WireLevel is one price level's worth of resting orders.
type WireLevel struct {
	Price  float64      `json:"price"`
	Orders []WireEntry  `json:"orders"`
}

// WireEntry is one resting order within a WireLevel.
type WireEntry struct {
	ID       int64  `json:"id"`
	Quantity uint64 `json:"quantity"`
	IsBuy    bool   `json:"is_buy"`
	Owner    string `json:"owner,omitempty"`
}

// TradeBroadcast is pushed to every connected client when a match executes.
type TradeBroadcast struct {
	Type        string  `json:"type"`
	TradeID     int64   `json:"trade_id"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Quantity    uint64  `json:"quantity"`
	BuyOrderID  int64   `json:"buy_order_id"`
	SellOrderID int64   `json:"sell_order_id"`
	Timestamp   int64   `json:"timestamp"`
}

func priceFloat(p book.Price) float64 {
	return p.Float64()
}
