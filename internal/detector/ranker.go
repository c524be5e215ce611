package detector

import (
	"sort"

	"github.com/yourusername/sharpline/internal/models"
)

// RankArbitrages deduplicates by fingerprint and sorts best-first:
// guaranteed return rate descending, then source count descending, then
// most recent observation, then fingerprint so full ties still order the
// same way on every scan. Of duplicate fingerprints the best-ranked
// survives.
func RankArbitrages(opps []models.ArbitrageOpportunity) []models.ArbitrageOpportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.GuaranteedReturnRate != b.GuaranteedReturnRate {
			return a.GuaranteedReturnRate > b.GuaranteedReturnRate
		}
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		if !a.ObservedAt().Equal(b.ObservedAt()) {
			return a.ObservedAt().After(b.ObservedAt())
		}
		return a.Fingerprint() < b.Fingerprint()
	})

	seen := make(map[string]struct{}, len(opps))
	out := opps[:0]
	for _, opp := range opps {
		fp := opp.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, opp)
	}
	return out
}

// RankMiddles deduplicates by fingerprint and sorts best-first: edge ratio
// descending, then source count descending, then most recent observation,
// then fingerprint for fully tied entries.
func RankMiddles(opps []models.MiddleOpportunity) []models.MiddleOpportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.EdgeRatio != b.EdgeRatio {
			return a.EdgeRatio > b.EdgeRatio
		}
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		if !a.ObservedAt().Equal(b.ObservedAt()) {
			return a.ObservedAt().After(b.ObservedAt())
		}
		return a.Fingerprint() < b.Fingerprint()
	})

	seen := make(map[string]struct{}, len(opps))
	out := opps[:0]
	for _, opp := range opps {
		fp := opp.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, opp)
	}
	return out
}
