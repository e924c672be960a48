// Package book implements the price-level tree that backs one side of one
// symbol's order book: a balanced map from price to a FIFO queue of resting
// orders at that price.
package book

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ticks is the number of decimal places a price is rounded to on ingestion.
// Rounding at the boundary, rather than comparing raw decimals, is what
// makes price equality well-defined.
const Ticks = 4

// Price is a fixed-point price on the tick grid. It wraps decimal.Decimal
// instead of float64 so that two prices that print the same always compare
// equal, regardless of how they were parsed off the wire.
type Price struct {
	d decimal.Decimal
}

// NewPriceFromFloat rounds f to the tick grid and rejects non-positive values.
func NewPriceFromFloat(f float64) (Price, error) {
	return NewPrice(decimal.NewFromFloat(f))
}

// NewPrice rounds d to the tick grid and rejects non-positive values.
func NewPrice(d decimal.Decimal) (Price, error) {
	rounded := d.Round(Ticks)
	if rounded.Sign() <= 0 {
		return Price{}, fmt.Errorf("price must be strictly positive, got %s", rounded.String())
	}
	return Price{d: rounded}, nil
}

// Cmp returns -1, 0 or 1 as p is less than, equal to, or greater than other.
func (p Price) Cmp(other Price) int {
	return p.d.Cmp(other.d)
}

func (p Price) Float64() float64 {
	f, _ := p.d.Float64()
	return f
}

func (p Price) String() string {
	return p.d.StringFixed(Ticks)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.d.StringFixed(Ticks)), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	price, err := NewPrice(d)
	if err != nil {
		return err
	}
	*p = price
	return nil
}
