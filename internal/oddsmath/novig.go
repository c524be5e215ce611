package oddsmath

import "fmt"

// RemoveVig derives fair probabilities from two complementary implied
// probabilities using the multiplicative method: each probability is divided
// by their sum, so the results sum to exactly 1.
//
//	-110 / -110 → 0.5238 / 0.5238 → fair 0.50 / 0.50
func RemoveVig(prob1, prob2 float64) (fair1, fair2 float64, err error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be in (0,1): %f, %f", prob1, prob2)
	}
	total := prob1 + prob2
	return prob1 / total, prob2 / total, nil
}

// Vig returns the overround of a set of complementary implied probabilities:
// the amount by which they exceed 1. Zero or negative vig means the prices
// themselves contain an arbitrage.
func Vig(probabilities ...float64) float64 {
	total := 0.0
	for _, p := range probabilities {
		total += p
	}
	return total - 1.0
}

// Edge is the advantage of a quote's implied probability against a fair
// baseline: positive when the price pays better than fair.
func Edge(fairProbability, impliedProbability float64) (float64, error) {
	if fairProbability <= 0 || fairProbability >= 1 {
		return 0, fmt.Errorf("fair probability must be in (0,1), got %f", fairProbability)
	}
	if impliedProbability <= 0 || impliedProbability >= 1 {
		return 0, fmt.Errorf("implied probability must be in (0,1), got %f", impliedProbability)
	}
	return fairProbability - impliedProbability, nil
}
