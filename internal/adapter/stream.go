package adapter

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

// StreamAdapter consumes a websocket quote feed from a source that pushes
// line updates instead of serving them over a pull API. Pushed records
// accumulate in a buffer; FetchQuotes drains it, so the engine's polling
// model stays uniform across adapter kinds.
type StreamAdapter struct {
	name      string
	url       string
	sport     string
	enabled   bool
	logger    *logrus.Entry
	reconnect ReconnectConfig

	mu        sync.Mutex
	buffer    []QuoteRecord
	connected bool
}

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns reconnection defaults.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        0, // unlimited
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// streamMessage is the wire format pushed by streaming sources. The price is
// a string because these feeds quote in whatever convention the book uses:
// American ("-110"), decimal ("1.91"), or fractional ("10/11").
type streamMessage struct {
	Sport     string   `json:"sport"`
	HomeTeam  string   `json:"home_team"`
	AwayTeam  string   `json:"away_team"`
	StartTime string   `json:"start_time"`
	Market    string   `json:"market"`
	Side      string   `json:"side"`
	Line      *float64 `json:"line,omitempty"`
	Price     string   `json:"price"`
}

// NewStreamAdapter creates a push adapter from source configuration.
func NewStreamAdapter(cfg config.SourceConfig, logger *logrus.Entry) *StreamAdapter {
	sport := ""
	if len(cfg.Sports) > 0 {
		sport = cfg.Sports[0]
	}
	return &StreamAdapter{
		name:      cfg.Name,
		url:       cfg.BaseURL,
		sport:     sport,
		enabled:   cfg.Enabled,
		logger:    logger,
		reconnect: DefaultReconnectConfig(),
	}
}

// Name returns the source identifier.
func (s *StreamAdapter) Name() string { return s.name }

// IsEnabled returns whether this source is currently enabled.
func (s *StreamAdapter) IsEnabled() bool { return s.enabled }

// Run maintains the websocket connection until the context is cancelled,
// reconnecting with exponential backoff. Call it from its own goroutine.
func (s *StreamAdapter) Run(ctx context.Context) {
	backoff := s.reconnect.InitialBackoff
	retries := 0

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}

		s.setConnected(false)
		metrics.RecordSourceFailure(s.name)
		retries++
		if s.reconnect.MaxRetries > 0 && retries > s.reconnect.MaxRetries {
			s.logger.WithError(err).Error("stream reconnect retries exhausted")
			return
		}

		s.logger.WithError(err).Warnf("stream disconnected, reconnecting in %s", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.reconnect.BackoffMultiplier)
		if backoff > s.reconnect.MaxBackoff {
			backoff = s.reconnect.MaxBackoff
		}
	}
}

// consume dials the feed and buffers messages until the connection drops.
func (s *StreamAdapter) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return NewSourceError(s.name, ErrCodeNetworkError, "dial failed", err)
	}
	defer conn.Close()

	s.setConnected(true)
	s.logger.Info("stream connected")

	// The closer exits when this connection ends, not when the process
	// does; otherwise every reconnect would leave one goroutine behind.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return NewSourceError(s.name, ErrCodeNetworkError, "read failed", err)
		}

		rec, reason := s.normalizeMessage(msg)
		if reason != "" {
			metrics.RecordQuoteRejected(s.name, reason)
			continue
		}

		s.mu.Lock()
		s.buffer = append(s.buffer, rec)
		s.mu.Unlock()
	}
}

// FetchQuotes drains the push buffer. It never errors while the feed is up;
// a dead connection surfaces as SourceUnavailable so the scheduler treats
// pull and push sources alike.
func (s *StreamAdapter) FetchQuotes(ctx context.Context) ([]QuoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected && len(s.buffer) == 0 {
		return nil, NewSourceError(s.name, ErrCodeNetworkError, "stream not connected", nil)
	}

	records := s.buffer
	s.buffer = nil
	return records, nil
}

// normalizeMessage converts a wire message into a canonical quote record.
func (s *StreamAdapter) normalizeMessage(msg streamMessage) (QuoteRecord, string) {
	if msg.HomeTeam == "" || msg.AwayTeam == "" {
		return QuoteRecord{}, "missing_team"
	}

	start, err := time.Parse(time.RFC3339, msg.StartTime)
	if err != nil {
		return QuoteRecord{}, "bad_start_time"
	}

	kind := models.MarketKind(msg.Market)
	if !kind.Valid() {
		return QuoteRecord{}, "unknown_market"
	}

	side := models.Side(msg.Side)
	switch side {
	case models.SideHome, models.SideAway, models.SideDraw, models.SideOver, models.SideUnder:
	default:
		return QuoteRecord{}, "unknown_outcome"
	}

	price, err := ParsePrice(msg.Price)
	if err != nil {
		return QuoteRecord{}, "invalid_price"
	}

	var line *float64
	if kind != models.MarketMoneyline {
		if msg.Line == nil {
			return QuoteRecord{}, "missing_line"
		}
		if kind == models.MarketTotal && *msg.Line <= 0 {
			return QuoteRecord{}, "missing_line"
		}
		line = msg.Line
	}

	sport := msg.Sport
	if sport == "" {
		sport = s.sport
	}

	return QuoteRecord{
		Source:     s.name,
		Sport:      sport,
		HomeTeam:   msg.HomeTeam,
		AwayTeam:   msg.AwayTeam,
		StartTime:  start,
		MarketKind: kind,
		Side:       side,
		Line:       line,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}, ""
}

func (s *StreamAdapter) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// ParsePrice parses a price string in American, decimal, or fractional
// convention and returns American odds.
func ParsePrice(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, models.ErrInvalidPrice
	}

	// Fractional: "10/11" means profit 10 on a stake of 11.
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
			return 0, models.ErrInvalidPrice
		}
		return oddsmath.AmericanFromDecimal(n/d + 1.0)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, models.ErrInvalidPrice
	}
	return normalizePrice(v)
}
