package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lattice-labs/matchcore/internal/book"
	"github.com/rs/zerolog/log"
)

// idLocation is an optional auxiliary index entry: a non-owning lookup from
// order id to where it currently rests, so Cancel doesn't have to linearly
// scan every level on both sides. It is rebuilt on admission and torn down
// on removal.
type idLocation struct {
	side  book.Side
	price book.Price
}

// OrderBook is the per-symbol book: a pair of price trees, a monotonic
// per-book arrival sequence, and a trade observer. All mutation (admission,
// cancel, tree rebalancing, trade emission) is serialised under mu, so the
// matching core behaves as a single-threaded cooperative loop per symbol.
type OrderBook struct {
	Symbol string

	Bids *book.Tree
	Asks *book.Tree

	mu          sync.Mutex
	idIndex     map[int64]idLocation
	totalOrders uint64
	arrivalSeq  int64
	idSource    *atomic.Int64
	tradeSeq    *atomic.Int64
	sink        TradeSink
}

// NewOrderBook builds an empty book for symbol. idSource and tradeSeq are
// shared across every book in a registry so order ids and trade ids stay
// unique within the whole running engine, not just within one symbol.
func NewOrderBook(symbol string, idSource, tradeSeq *atomic.Int64, sink TradeSink) *OrderBook {
	if sink == nil {
		sink = NopTradeSink{}
	}
	return &OrderBook{
		Symbol:   symbol,
		Bids:     book.NewTree(book.Buy),
		Asks:     book.NewTree(book.Sell),
		idIndex:  make(map[int64]idLocation),
		idSource: idSource,
		tradeSeq: tradeSeq,
		sink:     sink,
	}
}

// AdmitRequest carries the validated, not-yet-stamped fields of a new order.
type AdmitRequest struct {
	Symbol   string
	Owner    string
	Side     book.Side
	Price    book.Price
	Quantity uint64
}

// TotalOrders returns the number of resting orders across both trees.
func (ob *OrderBook) TotalOrders() uint64 {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.totalOrders
}

// Admit is the single entry point for a new limit order. It validates
// preconditions, stamps the order with an engine id and arrival sequence,
// runs the matcher against the opposite side, and rests any remainder on
// its own side.
func (ob *OrderBook) Admit(req AdmitRequest) AdmitResult {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if reason, ok := validateAdmit(req, ob.Symbol); !ok {
		return AdmitResult{Status: Rejected, Reason: reason}
	}

	order := book.Order{
		ID:           ob.idSource.Add(1),
		Owner:        req.Owner,
		Symbol:       req.Symbol,
		Side:         req.Side,
		OrderType:    book.Limit,
		Price:        req.Price,
		Quantity:     req.Quantity,
		RemainingQty: req.Quantity,
		ArrivalSeq:   ob.nextArrivalSeq(),
	}

	trades := ob.match(&order)

	if order.RemainingQty > 0 {
		ob.rest(&order)
	}

	ob.assertNonCrossed()

	status := Accepted
	if len(trades) > 0 {
		status = AcceptedAndMatched
	}
	return AdmitResult{Status: status, Order: order, Trades: trades}
}

func (ob *OrderBook) nextArrivalSeq() int64 {
	ob.arrivalSeq++
	return ob.arrivalSeq
}

// validateAdmit checks the admission preconditions. book.NewPrice rejects
// non-positive values, but the zero Price{} can still be placed in an
// AdmitRequest, so price positivity is re-checked here along with symbol,
// side and quantity.
func validateAdmit(req AdmitRequest, bookSymbol string) (RejectReason, bool) {
	if req.Symbol == "" || req.Symbol != bookSymbol {
		return RejectInvalidSymbol, false
	}
	if req.Side != book.Buy && req.Side != book.Sell {
		return RejectInvalidSide, false
	}
	if req.Price.Cmp(book.Price{}) <= 0 {
		return RejectInvalidPrice, false
	}
	if req.Quantity == 0 {
		return RejectInvalidQuantity, false
	}
	return RejectNone, true
}

// rest inserts the order (with its still-RemainingQty) into its own side's
// tree, and records it in the auxiliary id index.
func (ob *OrderBook) rest(order *book.Order) {
	tree := ob.treeFor(order.Side)
	tree.InsertOrder(order.Price, order)
	ob.idIndex[order.ID] = idLocation{side: order.Side, price: order.Price}
	ob.totalOrders++
}

func (ob *OrderBook) treeFor(side book.Side) *book.Tree {
	if side == book.Buy {
		return ob.Bids
	}
	return ob.Asks
}

func opposite(side book.Side) book.Side {
	if side == book.Buy {
		return book.Sell
	}
	return book.Buy
}

// crosses reports whether an aggressor at aggressorPrice is willing to
// trade against a resting order at restingPrice: for a buy aggressor, iff
// aggressorPrice >= restingPrice; for a sell, iff aggressorPrice <=
// restingPrice. Ties cross.
func crosses(side book.Side, aggressorPrice, restingPrice book.Price) bool {
	cmp := aggressorPrice.Cmp(restingPrice)
	if side == book.Buy {
		return cmp >= 0
	}
	return cmp <= 0
}

// match runs the matching loop against the side opposite to order.Side,
// consuming quantity until order is exhausted or no more crossing level
// exists. It returns the trades in execution order and notifies the sink
// synchronously as each one is produced.
func (ob *OrderBook) match(order *book.Order) []Trade {
	opp := ob.treeFor(opposite(order.Side))
	var trades []Trade

	for order.RemainingQty > 0 {
		level, ok := opp.PeekBestMut()
		if !ok {
			break
		}
		if !crosses(order.Side, order.Price, level.Price) {
			break
		}

		resting := level.Head()
		if resting == nil {
			// An invariant violation: a level in the tree with no orders.
			// This indicates a bug in level bookkeeping, not a client fault.
			log.Fatal().Str("symbol", ob.Symbol).Str("price", level.Price.String()).
				Msg("empty price level still present in tree")
		}

		qty := min(order.RemainingQty, resting.RemainingQty)

		var buyOrderID, sellOrderID int64
		var trade Trade
		if order.Side == book.Buy {
			buyOrderID, sellOrderID = order.ID, resting.ID
		} else {
			buyOrderID, sellOrderID = resting.ID, order.ID
		}
		trade = Trade{
			TradeID:     ob.tradeSeq.Add(1),
			Symbol:      ob.Symbol,
			BuyOrderID:  buyOrderID,
			SellOrderID: sellOrderID,
			Price:       level.Price, // price-improvement: always the resting price
			Quantity:    qty,
			Timestamp:   time.Now(),
		}

		order.RemainingQty -= qty
		resting.RemainingQty -= qty

		ob.sink.Notify(trade)
		trades = append(trades, trade)

		if resting.RemainingQty == 0 {
			level.RemoveHead()
			delete(ob.idIndex, resting.ID)
			ob.totalOrders--
			if level.Empty() {
				opp.PopLevel(level.Price)
			}
		}
	}

	return trades
}

// Cancel searches the auxiliary index for id and removes it from whichever
// tree it rests in.
func (ob *OrderBook) Cancel(id int64) CancelResult {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	loc, ok := ob.idIndex[id]
	if !ok {
		return CancelResult{Status: CancelNotFound}
	}

	tree := ob.treeFor(loc.side)
	level, ok := tree.GetMut(loc.price)
	if !ok {
		// The index and tree disagree; treat as not found rather than panic,
		// since a stale index entry is recoverable by falling back to miss.
		delete(ob.idIndex, id)
		return CancelResult{Status: CancelNotFound}
	}

	var cancelled book.Order
	found := false
	for _, o := range level.Orders {
		if o.ID == id {
			cancelled = *o
			found = true
			break
		}
	}
	if !found {
		delete(ob.idIndex, id)
		return CancelResult{Status: CancelNotFound}
	}
	if cancelled.RemainingQty == 0 {
		delete(ob.idIndex, id)
		return CancelResult{Status: CancelAlreadyFilled}
	}

	tree.RemoveOrder(loc.price, id)
	delete(ob.idIndex, id)
	ob.totalOrders--

	return CancelResult{Status: CancelSuccess, Order: cancelled}
}

// BestBid and BestAsk return the top-of-book price for each side, without
// mutating the book.
func (ob *OrderBook) BestBid() (book.Price, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	level, ok := ob.Bids.PeekBest()
	if !ok {
		return book.Price{}, false
	}
	return level.Price, true
}

func (ob *OrderBook) BestAsk() (book.Price, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	level, ok := ob.Asks.PeekBest()
	if !ok {
		return book.Price{}, false
	}
	return level.Price, true
}

// assertNonCrossed enforces the post-condition that the book is never
// observably crossed between admissions. A violation here means the
// matcher has a bug, not that a client sent a bad order, so it is fatal
// rather than surfaced as a rejection.
func (ob *OrderBook) assertNonCrossed() {
	bestBid, hasBid := ob.Bids.PeekBest()
	bestAsk, hasAsk := ob.Asks.PeekBest()
	if hasBid && hasAsk && bestBid.Price.Cmp(bestAsk.Price) >= 0 {
		log.Fatal().
			Str("symbol", ob.Symbol).
			Str("best_bid", bestBid.Price.String()).
			Str("best_ask", bestAsk.Price.String()).
			Msg("order book is crossed after admission")
	}
}
