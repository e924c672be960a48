package engine

import (
	"time"

	"github.com/lattice-labs/matchcore/internal/book"
)

// Trade is emitted by the matcher for every executed fill. It is never
// stored by the engine; it exists purely to hand off to whatever TradeSink
// was registered on the book.
type Trade struct {
	TradeID    int64
	Symbol     string
	BuyOrderID int64
	SellOrderID int64
	Price      book.Price
	Quantity   uint64
	Timestamp  time.Time
}

// TradeSink is the observer capability bound at book construction.
// Notify is called synchronously, on the matching goroutine, exactly once
// per executed match, in execution order. Implementations must not call
// back into the OrderBook that invoked them, and must not block on I/O;
// they are expected to buffer and hand off to the transport boundary.
type TradeSink interface {
	Notify(trade Trade)
}

// TradeSinkFunc adapts a plain function to the TradeSink interface.
type TradeSinkFunc func(trade Trade)

func (f TradeSinkFunc) Notify(trade Trade) { f(trade) }

// NopTradeSink discards every trade. Used as the default sink so a book can
// always be constructed with a non-nil sink.
type NopTradeSink struct{}

func (NopTradeSink) Notify(Trade) {}
