package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrice(t *testing.T, f float64) Price {
	t.Helper()
	p, err := NewPriceFromFloat(f)
	require.NoError(t, err)
	return p
}

func testOrder(t *testing.T, id int64, side Side, price float64, qty uint64, seq int64) *Order {
	t.Helper()
	p := mustPrice(t, price)
	return &Order{
		ID:           id,
		Symbol:       "TEST",
		Side:         side,
		OrderType:    Limit,
		Price:        p,
		Quantity:     qty,
		RemainingQty: qty,
		ArrivalSeq:   seq,
	}
}

func TestTree_BidsOrderedHighestFirst(t *testing.T) {
	tr := NewTree(Buy)
	tr.InsertOrder(mustPrice(t, 99.0), testOrder(t, 1, Buy, 99.0, 10, 1))
	tr.InsertOrder(mustPrice(t, 101.0), testOrder(t, 2, Buy, 101.0, 10, 2))
	tr.InsertOrder(mustPrice(t, 100.0), testOrder(t, 3, Buy, 100.0, 10, 3))

	best, ok := tr.PeekBest()
	require.True(t, ok)
	assert.Equal(t, "101.0000", best.Price.String())

	levels := tr.Levels()
	assert.Equal(t, []string{"101.0000", "100.0000", "99.0000"}, priceStrings(levels))
}

func TestTree_AsksOrderedLowestFirst(t *testing.T) {
	tr := NewTree(Sell)
	tr.InsertOrder(mustPrice(t, 99.0), testOrder(t, 1, Sell, 99.0, 10, 1))
	tr.InsertOrder(mustPrice(t, 101.0), testOrder(t, 2, Sell, 101.0, 10, 2))
	tr.InsertOrder(mustPrice(t, 100.0), testOrder(t, 3, Sell, 100.0, 10, 3))

	best, ok := tr.PeekBest()
	require.True(t, ok)
	assert.Equal(t, "99.0000", best.Price.String())

	levels := tr.Levels()
	assert.Equal(t, []string{"99.0000", "100.0000", "101.0000"}, priceStrings(levels))
}

func TestTree_InsertOrder_AppendsAtSamePriceInArrivalOrder(t *testing.T) {
	tr := NewTree(Buy)
	price := mustPrice(t, 100.0)
	tr.InsertOrder(price, testOrder(t, 1, Buy, 100.0, 10, 1))
	tr.InsertOrder(price, testOrder(t, 2, Buy, 100.0, 20, 2))

	level, ok := tr.GetMut(price)
	require.True(t, ok)
	require.Len(t, level.Orders, 2)
	assert.Equal(t, int64(1), level.Orders[0].ID)
	assert.Equal(t, int64(2), level.Orders[1].ID)
}

func TestTree_RemoveOrder_PopsEmptyLevel(t *testing.T) {
	tr := NewTree(Buy)
	price := mustPrice(t, 100.0)
	tr.InsertOrder(price, testOrder(t, 1, Buy, 100.0, 10, 1))

	removed := tr.RemoveOrder(price, 1)
	assert.True(t, removed)
	assert.False(t, tr.Contains(price))
	assert.Equal(t, 0, tr.Len())
}

func TestTree_RemoveOrder_MissingReturnsFalse(t *testing.T) {
	tr := NewTree(Buy)
	assert.False(t, tr.RemoveOrder(mustPrice(t, 100.0), 999))
}

func priceStrings(levels []*Level) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.Price.String()
	}
	return out
}
