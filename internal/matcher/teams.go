// Package matcher correlates quotes from independent sources into canonical
// events and market groups. Sources never share an event ID scheme, so
// correlation is by normalized team pair and start-time proximity.
package matcher

import (
	"strings"
)

// teamAliases maps common short forms and nicknames to the canonical key a
// full name normalizes to. Sources disagree on team naming constantly
// ("Buffalo Bills", "Bills", "BUF"); anything not covered here falls back to
// nickname matching.
var teamAliases = map[string]string{
	"la chargers":   "los angeles chargers",
	"la rams":       "los angeles rams",
	"ny giants":     "new york giants",
	"ny jets":       "new york jets",
	"jax":           "jacksonville jaguars",
	"jax jaguars":   "jacksonville jaguars",
	"ne patriots":   "new england patriots",
	"tb buccaneers": "tampa bay buccaneers",
	"bucs":          "tampa bay buccaneers",
	"niners":        "san francisco 49ers",
	"sf 49ers":      "san francisco 49ers",
	"kc chiefs":     "kansas city chiefs",
	"la clippers":   "los angeles clippers",
	"la lakers":     "los angeles lakers",
	"gs warriors":   "golden state warriors",
	"okc thunder":   "oklahoma city thunder",
	"ny knicks":     "new york knicks",
	"sixers":        "philadelphia 76ers",
	"blazers":       "portland trail blazers",
	"wolves":        "minnesota timberwolves",
	"mavs":          "dallas mavericks",
	"cavs":          "cleveland cavaliers",
	"habs":          "montreal canadiens",
	"leafs":         "toronto maple leafs",
	"caps":          "washington capitals",
	"pens":          "pittsburgh penguins",
	"bolts":         "tampa bay lightning",
	"preds":         "nashville predators",
	"canes":         "carolina hurricanes",
	"avs":           "colorado avalanche",
	"isles":         "new york islanders",
}

// NormalizeTeam converts any team reference to a canonical lowercase key.
func NormalizeTeam(name string) string {
	key := clean(name)
	if canonical, ok := teamAliases[key]; ok {
		return canonical
	}
	return key
}

// Nickname returns the last token of a normalized team key. Sources that
// disagree on city prefixes ("LA Rams" vs "Los Angeles Rams") still agree on
// the nickname, so it serves as a secondary correlation key.
func Nickname(normalized string) string {
	if idx := strings.LastIndexByte(normalized, ' '); idx >= 0 {
		return normalized[idx+1:]
	}
	return normalized
}

// clean lowercases, trims, strips periods, and collapses interior whitespace.
func clean(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, ".", "")
	return strings.Join(strings.Fields(name), " ")
}
