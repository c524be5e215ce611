// Package oddsmath provides pure conversions between American odds prices,
// decimal odds, and implied probabilities.
package oddsmath

import (
	"fmt"
	"math"

	"github.com/yourusername/sharpline/internal/models"
)

// ValidatePrice checks that a price is inside the representable American-odds
// domain. Zero is undefined, and magnitudes below 100 have no meaning in the
// convention (a -100/+100 price is the even-money boundary).
func ValidatePrice(price int) error {
	if price == 0 || (price > -100 && price < 100) {
		return fmt.Errorf("%w: %d", models.ErrInvalidPrice, price)
	}
	return nil
}

// ImpliedProbability converts an American odds price to the win probability
// it encodes, ignoring vig.
//
//	+150 → 100/250  = 0.40
//	-150 → 150/250  = 0.60
func ImpliedProbability(price int) (float64, error) {
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	if price > 0 {
		return 100.0 / float64(price+100), nil
	}
	return float64(-price) / float64(-price+100), nil
}

// DecimalOdds converts an American odds price to its decimal-odds equivalent
// (total return per unit staked).
//
//	+150 → 2.50
//	-150 → 1.67
func DecimalOdds(price int) (float64, error) {
	if err := ValidatePrice(price); err != nil {
		return 0, err
	}
	if price > 0 {
		return float64(price)/100.0 + 1.0, nil
	}
	return 100.0/float64(-price) + 1.0, nil
}

// AmericanFromDecimal converts decimal odds to the nearest American odds
// price. Sources quoting decimal or fractional formats are converted through
// this before a quote enters the engine.
func AmericanFromDecimal(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("decimal odds must be > 1.0, got %f", dec)
	}
	if dec >= 2.0 {
		return int(math.Round((dec - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (dec - 1.0))), nil
}

// AmericanFromProbability converts a probability back to the nearest
// American odds price.
func AmericanFromProbability(p float64) (int, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("probability must be in (0,1), got %f", p)
	}
	return AmericanFromDecimal(1.0 / p)
}
