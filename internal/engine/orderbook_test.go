package engine

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-labs/matchcore/internal/book"
)

// --- Setup & Helpers --------------------------------------------------------

func newTestBook(t *testing.T) *OrderBook {
	t.Helper()
	var idSource, tradeSeq atomic.Int64
	return NewOrderBook("TEST", &idSource, &tradeSeq, NopTradeSink{})
}

func mustPrice(t *testing.T, f float64) book.Price {
	t.Helper()
	p, err := book.NewPriceFromFloat(f)
	require.NoError(t, err)
	return p
}

// admit places a limit order and fails the test if it isn't accepted.
func admit(t *testing.T, ob *OrderBook, side book.Side, price float64, qty uint64) AdmitResult {
	t.Helper()
	result := ob.Admit(AdmitRequest{
		Symbol:   ob.Symbol,
		Owner:    "owner",
		Side:     side,
		Price:    mustPrice(t, price),
		Quantity: qty,
	})
	require.True(t, result.Accepted(), "expected order to be accepted, got reason %v", result.Reason)
	return result
}

func levelQtys(levels []LevelSnapshot) map[string][]uint64 {
	out := make(map[string][]uint64, len(levels))
	for _, l := range levels {
		qtys := make([]uint64, len(l.Orders))
		for i, o := range l.Orders {
			qtys[i] = o.RemainingQty
		}
		out[l.Price.String()] = qtys
	}
	return out
}

// --- Admission & resting -----------------------------------------------------

func TestAdmit_NonCrossingOrdersRestOnTheirOwnSide(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Buy, 99.0, 100)
	admit(t, ob, book.Buy, 99.0, 90)
	admit(t, ob, book.Sell, 100.0, 100)

	snap := ob.Snapshot()
	assert.Equal(t, map[string][]uint64{"99.0000": {100, 90}}, levelQtys(snap.Bids))
	assert.Equal(t, map[string][]uint64{"100.0000": {100}}, levelQtys(snap.Asks))
	assert.Equal(t, uint64(3), ob.TotalOrders())
}

func TestAdmit_RejectsWrongSymbol(t *testing.T) {
	ob := newTestBook(t)
	result := ob.Admit(AdmitRequest{Symbol: "OTHER", Side: book.Buy, Price: mustPrice(t, 1), Quantity: 1})
	assert.False(t, result.Accepted())
	assert.Equal(t, RejectInvalidSymbol, result.Reason)
}

func TestAdmit_RejectsZeroQuantity(t *testing.T) {
	ob := newTestBook(t)
	result := ob.Admit(AdmitRequest{Symbol: ob.Symbol, Side: book.Buy, Price: mustPrice(t, 1), Quantity: 0})
	assert.False(t, result.Accepted())
	assert.Equal(t, RejectInvalidQuantity, result.Reason)
}

// --- Matching: crossing, price-time priority, partial fills -----------------

func TestAdmit_ExactCrossFullyFillsBoth(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 100.0, 50)
	result := admit(t, ob, book.Buy, 100.0, 50)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, uint64(50), trade.Quantity)
	assert.Equal(t, "100.0000", trade.Price.String())

	snap := ob.Snapshot()
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
	assert.Equal(t, uint64(0), ob.TotalOrders())
}

func TestAdmit_PriceImprovement_ExecutesAtRestingPrice(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 99.0, 50) // resting ask better than the buy's limit
	result := admit(t, ob, book.Buy, 101.0, 50)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "99.0000", result.Trades[0].Price.String(), "trade prints at the resting price, not the aggressor's limit")
}

func TestAdmit_PartialFill_LeavesRemainderResting(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 100.0, 30)
	result := admit(t, ob, book.Buy, 100.0, 50)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, uint64(30), result.Trades[0].Quantity)
	assert.Equal(t, uint64(20), result.Order.RemainingQty)

	snap := ob.Snapshot()
	assert.Empty(t, snap.Asks)
	assert.Equal(t, map[string][]uint64{"100.0000": {20}}, levelQtys(snap.Bids))
}

func TestAdmit_PricePriority_BestAskFilledFirst(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 101.0, 20)
	admit(t, ob, book.Sell, 100.0, 20) // better price, inserted second

	result := admit(t, ob, book.Buy, 101.0, 20)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "100.0000", result.Trades[0].Price.String())

	snap := ob.Snapshot()
	assert.Equal(t, map[string][]uint64{"101.0000": {20}}, levelQtys(snap.Asks))
}

func TestAdmit_TimePriority_WithinLevelIsFIFO(t *testing.T) {
	ob := newTestBook(t)

	first := admit(t, ob, book.Sell, 100.0, 20)
	admit(t, ob, book.Sell, 100.0, 20)

	result := admit(t, ob, book.Buy, 100.0, 20)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, first.Order.ID, result.Trades[0].SellOrderID, "the order resting first at a level fills first")
}

func TestAdmit_MultiLevelSweep(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 100.0, 100)
	admit(t, ob, book.Sell, 101.0, 20)

	result := admit(t, ob, book.Buy, 101.0, 120)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "100.0000", result.Trades[0].Price.String())
	assert.Equal(t, "101.0000", result.Trades[1].Price.String())
	assert.Equal(t, uint64(100), result.Trades[0].Quantity)
	assert.Equal(t, uint64(20), result.Trades[1].Quantity)

	snap := ob.Snapshot()
	assert.Empty(t, snap.Asks)
}

func TestAdmit_DeepSweepLeavesTopOfBookPartiallyFilled(t *testing.T) {
	ob := newTestBook(t)

	admit(t, ob, book.Sell, 100.0, 100)
	admit(t, ob, book.Sell, 101.0, 20)

	admit(t, ob, book.Buy, 100.0, 120) // first sweep: fills all of 100; 101 is above the limit, so 20 rest as a bid
	admit(t, ob, book.Buy, 103.0, 10)  // deeper sweep: takes 10 of the 20 at 101

	snap := ob.Snapshot()
	assert.Equal(t, map[string][]uint64{"101.0000": {10}}, levelQtys(snap.Asks))
}

func TestAdmit_BookNeverObservablyCrossed(t *testing.T) {
	ob := newTestBook(t)
	admit(t, ob, book.Buy, 99.0, 10)
	admit(t, ob, book.Sell, 101.0, 10)

	bestBid, hasBid := ob.BestBid()
	bestAsk, hasAsk := ob.BestAsk()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.Equal(t, -1, bestBid.Cmp(bestAsk))
}

// --- Cancellation ------------------------------------------------------------

func TestCancel_RestingOrderSucceeds(t *testing.T) {
	ob := newTestBook(t)
	result := admit(t, ob, book.Buy, 99.0, 10)

	cancel := ob.Cancel(result.Order.ID)
	assert.Equal(t, CancelSuccess, cancel.Status)
	assert.Equal(t, uint64(0), ob.TotalOrders())
}

func TestCancel_UnknownIDNotFound(t *testing.T) {
	ob := newTestBook(t)
	cancel := ob.Cancel(999)
	assert.Equal(t, CancelNotFound, cancel.Status)
}

func TestCancel_FullyFilledOrderIsNotFound(t *testing.T) {
	ob := newTestBook(t)
	resting := admit(t, ob, book.Sell, 100.0, 10)
	admit(t, ob, book.Buy, 100.0, 10) // fully fills resting

	cancel := ob.Cancel(resting.Order.ID)
	assert.Equal(t, CancelNotFound, cancel.Status)
}

func TestCancel_ThenReAdmitIsIndependent(t *testing.T) {
	ob := newTestBook(t)
	first := admit(t, ob, book.Buy, 99.0, 10)
	ob.Cancel(first.Order.ID)

	second := admit(t, ob, book.Buy, 99.0, 20)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, uint64(1), ob.TotalOrders())
}

// --- Conservation invariant ---------------------------------------------------

func TestAdmit_QuantityConservedAcrossPartialMatch(t *testing.T) {
	ob := newTestBook(t)
	admit(t, ob, book.Sell, 100.0, 30)
	result := admit(t, ob, book.Buy, 100.0, 50)

	var traded uint64
	for _, tr := range result.Trades {
		traded += tr.Quantity
	}
	assert.Equal(t, uint64(30), traded)
	assert.Equal(t, uint64(20), result.Order.RemainingQty)
}

func TestEmptyBook_BestBidAndAskAreAbsent(t *testing.T) {
	ob := newTestBook(t)
	_, hasBid := ob.BestBid()
	_, hasAsk := ob.BestAsk()
	assert.False(t, hasBid)
	assert.False(t, hasAsk)
}
