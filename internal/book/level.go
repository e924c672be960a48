package book

// Level is a FIFO queue of live orders sharing one price, one side, one
// symbol. Orders are appended on arrival and consumed from the head, so
// index 0 is always the order with the smallest ArrivalSeq.
type Level struct {
	Price  Price
	Orders []*Order
}

// NewLevel creates a level seeded with a single order.
func NewLevel(price Price, order *Order) *Level {
	return &Level{Price: price, Orders: []*Order{order}}
}

// Head returns the FIFO head order, or nil if the level is empty.
func (l *Level) Head() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// Append adds an order to the tail of the level, preserving arrival order.
func (l *Level) Append(order *Order) {
	l.Orders = append(l.Orders, order)
}

// RemoveHead drops the FIFO head. Callers must only do this once the head's
// RemainingQty has reached zero.
func (l *Level) RemoveHead() {
	if len(l.Orders) == 0 {
		return
	}
	l.Orders = l.Orders[1:]
}

// RemoveID removes the order with the given id wherever it sits in the
// level (used by cancel, which is not restricted to the FIFO head). Returns
// true if an order was removed.
func (l *Level) RemoveID(id int64) bool {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether the level has no resting orders left.
func (l *Level) Empty() bool {
	return len(l.Orders) == 0
}

// Count returns the number of resting orders in the level.
func (l *Level) Count() int {
	return len(l.Orders)
}
