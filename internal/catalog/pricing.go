package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPriceMismatch means a submitted line or total disagrees with the catalog.
var ErrPriceMismatch = errors.New("price mismatch")

// Mode selects how order prices are checked.
type Mode string

const (
	// ModeEnforce requires catalog prices on every line; the order repository
	// also replaces line names, descriptions and categories with the menu's.
	ModeEnforce Mode = "enforce"
	// ModeTrust accepts client prices and only checks the total is their sum.
	ModeTrust Mode = "trust"
)

// Line is a priced order line as submitted by a client.
type Line struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
}

// Total returns Σ price×quantity computed in decimal.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Check verifies lines and total under mode. In enforce mode each line must name
// a known item at its catalog price. In both modes the total must be the sum
// of the lines.
func Check(mode Mode, lines []Line, total float64) error {
	if mode == ModeEnforce {
		for _, l := range lines {
			it, ok := Lookup(l.ID)
			if !ok {
				return fmt.Errorf("%w: unknown item %q", ErrPriceMismatch, l.ID)
			}
			if !decimal.NewFromFloat(l.Price).Equal(decimal.NewFromFloat(it.Price)) {
				return fmt.Errorf("%w: %s costs %s, got %s", ErrPriceMismatch, it.Name,
					decimal.NewFromFloat(it.Price), decimal.NewFromFloat(l.Price))
			}
		}
	}
	sum := Total(lines)
	if !sum.Equal(decimal.NewFromFloat(total)) {
		return fmt.Errorf("%w: items sum %s != total %s", ErrPriceMismatch, sum, decimal.NewFromFloat(total))
	}
	return nil
}
