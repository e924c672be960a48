package engine

import "github.com/lattice-labs/matchcore/internal/book"

// LevelSnapshot is a read-only view of one price level, safe to hold after
// the book's lock has been released (it copies the order slice).
type LevelSnapshot struct {
	Price  book.Price
	Orders []book.Order
}

// Snapshot is a point-in-time view of one book, walked inorder on both
// sides. Taking a snapshot does not mutate the book.
type Snapshot struct {
	Symbol string
	Bids   []LevelSnapshot
	Asks   []LevelSnapshot
}

// Snapshot renders the current state of the book under the same exclusive
// lock used for mutation, so a snapshot never observes a book mid-match.
func (ob *OrderBook) Snapshot() Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return Snapshot{
		Symbol: ob.Symbol,
		Bids:   snapshotLevels(ob.Bids),
		Asks:   snapshotLevels(ob.Asks),
	}
}

func snapshotLevels(tree *book.Tree) []LevelSnapshot {
	levels := tree.Levels()
	out := make([]LevelSnapshot, len(levels))
	for i, l := range levels {
		orders := make([]book.Order, len(l.Orders))
		for j, o := range l.Orders {
			orders[j] = *o
		}
		out[i] = LevelSnapshot{Price: l.Price, Orders: orders}
	}
	return out
}
