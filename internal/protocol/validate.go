package protocol

import (
	"errors"
	"fmt"

	"github.com/lattice-labs/matchcore/internal/book"
)

const (
	minSymbolLen = 1
	maxSymbolLen = 15
	minPrice     = 0.0001
	maxPrice     = 1_000_000
	minQuantity  = 1
	maxQuantity  = 1_000_000
)

var (
	ErrInvalidSymbol   = errors.New("symbol must be 1-15 uppercase letters")
	ErrInvalidPrice    = errors.New("price must be between 0.0001 and 1000000")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 1000000")
)

// validateSymbol enforces 1-15 uppercase letters.
func validateSymbol(symbol string) error {
	if len(symbol) < minSymbolLen || len(symbol) > maxSymbolLen {
		return ErrInvalidSymbol
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return ErrInvalidSymbol
		}
	}
	return nil
}

// toBookPrice validates the wire price against the admissible bounds and
// rounds it onto the tick grid.
func toBookPrice(price float64) (book.Price, error) {
	if price < minPrice || price > maxPrice {
		return book.Price{}, ErrInvalidPrice
	}
	p, err := book.NewPriceFromFloat(price)
	if err != nil {
		return book.Price{}, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	return p, nil
}

func validateQuantity(qty uint64) error {
	if qty < minQuantity || qty > maxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
