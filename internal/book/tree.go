package book

import "github.com/tidwall/btree"

// Tree is a balanced, ordered map from price to Level for one side of one
// symbol's book. Bid trees are ordered so that Best returns the maximum
// price; ask trees so that Best returns the minimum. Both directions are
// O(log n) on github.com/tidwall/btree's underlying B-tree.
type Tree struct {
	side Side
	t    *btree.BTreeG[*Level]
}

// NewTree builds an empty tree for the given side.
func NewTree(side Side) *Tree {
	var less func(a, b *Level) bool
	switch side {
	case Buy:
		// Sorted greatest-first so the tree's "first" item is the best bid.
		less = func(a, b *Level) bool { return a.Price.Cmp(b.Price) > 0 }
	default:
		less = func(a, b *Level) bool { return a.Price.Cmp(b.Price) < 0 }
	}
	return &Tree{side: side, t: btree.NewBTreeG(less)}
}

// InsertOrder appends order to the level at price, creating the level if
// this is the first order at that price.
func (tr *Tree) InsertOrder(price Price, order *Order) {
	if level, ok := tr.t.Get(&Level{Price: price}); ok {
		level.Append(order)
		return
	}
	tr.t.Set(NewLevel(price, order))
}

// PeekBest returns the best-priced level without mutating the tree.
func (tr *Tree) PeekBest() (*Level, bool) {
	return tr.t.Min()
}

// PeekBestMut returns the best-priced level for in-place mutation (the
// matcher reduces RemainingQty and pops filled orders through it).
func (tr *Tree) PeekBestMut() (*Level, bool) {
	return tr.t.MinMut()
}

// PopLevel removes the level at price entirely, wherever it sits in the
// tree. Used once a level's last order has departed.
func (tr *Tree) PopLevel(price Price) {
	tr.t.Delete(&Level{Price: price})
}

// Contains reports whether a level exists at price.
func (tr *Tree) Contains(price Price) bool {
	_, ok := tr.t.Get(&Level{Price: price})
	return ok
}

// GetMut returns the level at price for in-place mutation.
func (tr *Tree) GetMut(price Price) (*Level, bool) {
	return tr.t.GetMut(&Level{Price: price})
}

// RemoveOrder locates the order with the given id at price and removes it.
// It is O(log n) to find the level and O(k) within the level; per-order
// constant-time removal is not required. If removal empties the level, the
// level is popped from the tree.
func (tr *Tree) RemoveOrder(price Price, id int64) bool {
	level, ok := tr.t.GetMut(&Level{Price: price})
	if !ok {
		return false
	}
	if !level.RemoveID(id) {
		return false
	}
	if level.Empty() {
		tr.t.Delete(&Level{Price: price})
	}
	return true
}

// Len returns the number of distinct price levels.
func (tr *Tree) Len() int {
	return tr.t.Len()
}

// Levels walks the tree inorder (best price first) and returns a snapshot
// slice of the levels. Used by book-query rendering; it never mutates the
// tree.
func (tr *Tree) Levels() []*Level {
	levels := make([]*Level, 0, tr.t.Len())
	tr.t.Scan(func(l *Level) bool {
		levels = append(levels, l)
		return true
	})
	return levels
}
