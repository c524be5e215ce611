package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

// OddsAPIAdapter pulls aggregated bookmaker odds from an Odds API-compatible
// provider. One fetch returns quotes for every bookmaker the provider
// carries; each bookmaker becomes a distinct source in the engine so the
// detectors can combine them.
type OddsAPIAdapter struct {
	name      string
	baseURL   string
	apiKey    string
	sports    []string
	enabled   bool
	client    *RateLimitedHTTPClient
	logger    *logrus.Entry
	timeout   time.Duration
	remaining string // provider quota, tracked from response headers
}

// oddsAPIEvent mirrors the provider's event payload.
type oddsAPIEvent struct {
	ID           string             `json:"id"`
	SportKey     string             `json:"sport_key"`
	CommenceTime time.Time          `json:"commence_time"`
	HomeTeam     string             `json:"home_team"`
	AwayTeam     string             `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate time.Time       `json:"last_update"`
	Markets    []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// providerMarketKinds maps provider market keys to canonical kinds.
var providerMarketKinds = map[string]models.MarketKind{
	"h2h":     models.MarketMoneyline,
	"spreads": models.MarketSpread,
	"totals":  models.MarketTotal,
}

// NewOddsAPIAdapter creates an adapter from source configuration.
func NewOddsAPIAdapter(cfg config.SourceConfig, logger *logrus.Entry) *OddsAPIAdapter {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimit > 0 {
		httpCfg.RateLimit = cfg.RateLimit
	}

	sports := cfg.Sports
	if len(sports) == 0 {
		sports = []string{"americanfootball_nfl"}
	}

	return &OddsAPIAdapter{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		sports:  sports,
		enabled: cfg.Enabled,
		client:  NewRateLimitedHTTPClient(httpCfg, logger),
		logger:  logger,
		timeout: httpCfg.Timeout,
	}
}

// Name returns the source identifier.
func (a *OddsAPIAdapter) Name() string { return a.name }

// IsEnabled returns whether this source is currently enabled.
func (a *OddsAPIAdapter) IsEnabled() bool { return a.enabled }

// FetchQuotes retrieves and normalizes the provider's current odds for all
// configured sports. Malformed records are dropped and counted, never
// coerced. Fetch latency and failure counters belong to the caller, which
// times every adapter kind uniformly.
func (a *OddsAPIAdapter) FetchQuotes(ctx context.Context) ([]QuoteRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var records []QuoteRecord
	for _, sport := range a.sports {
		events, err := a.fetchSport(ctx, sport)
		if err != nil {
			return nil, err
		}
		records = append(records, a.normalize(sport, events)...)
	}

	if rem := a.QuotaRemaining(); rem != "" {
		if v, err := strconv.ParseFloat(rem, 64); err == nil {
			metrics.SetProviderQuota(a.name, v)
		}
		a.logger.WithField("requests_remaining", rem).Debug("provider quota updated")
	}

	return records, nil
}

// fetchSport requests odds for one sport key.
func (a *OddsAPIAdapter) fetchSport(ctx context.Context, sport string) ([]oddsAPIEvent, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", a.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":     {a.apiKey},
		"regions":    {"us"},
		"markets":    {"h2h,spreads,totals"},
		"oddsFormat": {"american"},
	}.Encode())

	resp, err := a.client.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewSourceError(a.name, ErrCodeTimeout, "fetch timed out", ctx.Err())
		}
		return nil, NewSourceError(a.name, ErrCodeNetworkError, "fetch failed", err)
	}
	defer resp.Body.Close()

	// Provider quota rides on response headers.
	if rem := resp.Header.Get("x-requests-remaining"); rem != "" {
		a.remaining = rem
	}

	switch {
	case resp.StatusCode == 401:
		return nil, NewSourceError(a.name, ErrCodeAuthenticationFailed, "invalid or exhausted API key", nil)
	case resp.StatusCode == 429:
		return nil, NewSourceError(a.name, ErrCodeRateLimitExceeded, "provider rate limit exceeded", nil)
	case resp.StatusCode != 200:
		return nil, NewSourceError(a.name, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var events []oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, NewSourceError(a.name, ErrCodeInvalidData, "failed to decode response", err)
	}

	return events, nil
}

// normalize converts provider events into canonical quote records, dropping
// malformed outcomes. Events that already started are skipped: their lines
// are no longer bettable.
func (a *OddsAPIAdapter) normalize(sport string, events []oddsAPIEvent) []QuoteRecord {
	now := time.Now().UTC()
	var records []QuoteRecord

	for _, ev := range events {
		if ev.HomeTeam == "" || ev.AwayTeam == "" {
			metrics.RecordQuoteRejected(a.name, "missing_team")
			continue
		}
		if !ev.CommenceTime.After(now) {
			continue
		}

		for _, book := range ev.Bookmakers {
			for _, market := range book.Markets {
				kind, ok := providerMarketKinds[market.Key]
				if !ok {
					continue
				}
				for _, outcome := range market.Outcomes {
					rec, reason := a.normalizeOutcome(sport, ev, book, kind, outcome, now)
					if reason != "" {
						metrics.RecordQuoteRejected(book.Key, reason)
						continue
					}
					records = append(records, rec)
				}
			}
		}
	}

	return records
}

// normalizeOutcome maps one provider outcome to a quote record, returning a
// rejection reason for anything malformed.
func (a *OddsAPIAdapter) normalizeOutcome(
	sport string,
	ev oddsAPIEvent,
	book oddsAPIBookmaker,
	kind models.MarketKind,
	outcome oddsAPIOutcome,
	now time.Time,
) (QuoteRecord, string) {
	price, err := normalizePrice(outcome.Price)
	if err != nil {
		return QuoteRecord{}, "invalid_price"
	}

	side, reason := resolveSide(kind, outcome.Name, ev.HomeTeam, ev.AwayTeam)
	if reason != "" {
		return QuoteRecord{}, reason
	}

	var line *float64
	switch kind {
	case models.MarketMoneyline:
		// moneylines never carry a line
	case models.MarketSpread:
		if outcome.Point == nil {
			return QuoteRecord{}, "missing_line"
		}
		line = outcome.Point
	case models.MarketTotal:
		if outcome.Point == nil || *outcome.Point <= 0 {
			return QuoteRecord{}, "missing_line"
		}
		line = outcome.Point
	}

	observed := book.LastUpdate
	if observed.IsZero() {
		observed = now
	}

	return QuoteRecord{
		Source:     book.Key,
		Sport:      sport,
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		StartTime:  ev.CommenceTime,
		MarketKind: kind,
		Side:       side,
		Line:       line,
		Price:      price,
		ObservedAt: observed,
	}, ""
}

// resolveSide maps a provider outcome name onto a canonical side.
func resolveSide(kind models.MarketKind, name, home, away string) (models.Side, string) {
	switch kind {
	case models.MarketTotal:
		switch strings.ToLower(name) {
		case "over":
			return models.SideOver, ""
		case "under":
			return models.SideUnder, ""
		}
		return "", "unknown_outcome"
	default:
		switch {
		case strings.EqualFold(name, home):
			return models.SideHome, ""
		case strings.EqualFold(name, away):
			return models.SideAway, ""
		case strings.EqualFold(name, "draw"):
			return models.SideDraw, ""
		}
		return "", "unknown_outcome"
	}
}

// normalizePrice accepts a provider price in American or decimal convention
// and returns American odds. Integers are taken as American; a fractional
// value can only be decimal odds. Integer decimal prices are rejected as
// ambiguous rather than guessed at.
func normalizePrice(price float64) (int, error) {
	if price == 0 {
		return 0, models.ErrInvalidPrice
	}
	if price == math.Trunc(price) {
		p := int(price)
		if err := oddsmath.ValidatePrice(p); err != nil {
			return 0, err
		}
		return p, nil
	}
	if price > 1.0 {
		return oddsmath.AmericanFromDecimal(price)
	}
	return 0, models.ErrInvalidPrice
}

// QuotaRemaining reports the provider's remaining request quota, if the
// provider exposes one.
func (a *OddsAPIAdapter) QuotaRemaining() string { return a.remaining }
