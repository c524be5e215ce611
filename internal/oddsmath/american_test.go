package oddsmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name  string
		price int
		want  float64
	}{
		{"positive underdog", +150, 0.40},
		{"negative favorite", -150, 0.60},
		{"even money positive", +100, 0.50},
		{"even money negative", -100, 0.50},
		{"heavy favorite", -400, 0.80},
		{"long shot", +400, 0.20},
		{"standard vig price", -110, 110.0 / 210.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImpliedProbability(tt.price)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestImpliedProbabilityInvalidPrices(t *testing.T) {
	for _, price := range []int{0, 50, -50, 99, -99, 1, -1} {
		_, err := ImpliedProbability(price)
		require.Error(t, err, "price %d", price)
		assert.ErrorIs(t, err, models.ErrInvalidPrice)
	}
}

func TestDecimalOdds(t *testing.T) {
	tests := []struct {
		price int
		want  float64
	}{
		{+150, 2.50},
		{-150, 1.0 + 100.0/150.0},
		{+100, 2.00},
		{-100, 2.00},
		{-110, 1.0 + 100.0/110.0},
		{+250, 3.50},
	}

	for _, tt := range tests {
		got, err := DecimalOdds(tt.price)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "price %d", tt.price)
	}
}

func TestDecimalOddsMatchesImpliedProbability(t *testing.T) {
	// Decimal odds and implied probability are reciprocal views of the
	// same price.
	for _, price := range []int{-500, -250, -110, -100, 100, 120, 300, 1000} {
		dec, err := DecimalOdds(price)
		require.NoError(t, err)
		prob, err := ImpliedProbability(price)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, dec*prob, 1e-9, "price %d", price)
	}
}

func TestAmericanFromDecimal(t *testing.T) {
	tests := []struct {
		dec  float64
		want int
	}{
		{2.50, +150},
		{2.00, +100},
		{1.6666666667, -150},
		{3.00, +200},
		{1.50, -200},
		{1.9090909091, -110},
	}

	for _, tt := range tests {
		got, err := AmericanFromDecimal(tt.dec)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "decimal %f", tt.dec)
	}
}

func TestAmericanFromDecimalRejectsNonPositiveReturn(t *testing.T) {
	for _, dec := range []float64{1.0, 0.5, 0, -2} {
		_, err := AmericanFromDecimal(dec)
		assert.Error(t, err, "decimal %f", dec)
	}
}

func TestAmericanFromProbabilityRoundTrip(t *testing.T) {
	for _, price := range []int{-300, -150, -110, 100, 150, 220, 500} {
		prob, err := ImpliedProbability(price)
		require.NoError(t, err)
		back, err := AmericanFromProbability(prob)
		require.NoError(t, err)
		assert.Equal(t, price, back, "price %d", price)
	}
}
