package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel_FIFOOrder(t *testing.T) {
	price := mustPrice(t, 100.0)
	l := NewLevel(price, testOrder(t, 1, Buy, 100.0, 10, 1))
	l.Append(testOrder(t, 2, Buy, 100.0, 20, 2))
	l.Append(testOrder(t, 3, Buy, 100.0, 30, 3))

	assert.Equal(t, int64(1), l.Head().ID)
	l.RemoveHead()
	assert.Equal(t, int64(2), l.Head().ID)
	assert.Equal(t, 2, l.Count())
}

func TestLevel_RemoveID_FromMiddle(t *testing.T) {
	price := mustPrice(t, 100.0)
	l := NewLevel(price, testOrder(t, 1, Buy, 100.0, 10, 1))
	l.Append(testOrder(t, 2, Buy, 100.0, 20, 2))
	l.Append(testOrder(t, 3, Buy, 100.0, 30, 3))

	assert.True(t, l.RemoveID(2))
	assert.Equal(t, []int64{1, 3}, ids(l))
	assert.False(t, l.RemoveID(2), "already removed")
}

func TestLevel_Empty(t *testing.T) {
	price := mustPrice(t, 100.0)
	l := NewLevel(price, testOrder(t, 1, Buy, 100.0, 10, 1))
	assert.False(t, l.Empty())
	l.RemoveHead()
	assert.True(t, l.Empty())
	assert.Nil(t, l.Head())
}

func ids(l *Level) []int64 {
	out := make([]int64, len(l.Orders))
	for i, o := range l.Orders {
		out[i] = o.ID
	}
	return out
}
