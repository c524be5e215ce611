// Package quotes holds the live quote set. It is the single shared mutable
// resource in the engine: each adapter writes only its own per-source slot,
// and scan cycles read everything in one consistent pass.
package quotes

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/sharpline/internal/adapter"
)

// Store retains the most recent quote record per (source, event, market,
// side, line) slot. Records are immutable; newer observations replace older
// ones, they never mutate them.
type Store struct {
	mu    sync.RWMutex
	slots map[string]map[string]adapter.QuoteRecord // source -> slot key -> record
}

// NewStore creates an empty quote store.
func NewStore() *Store {
	return &Store{slots: make(map[string]map[string]adapter.QuoteRecord)}
}

// Apply merges a fetch's records into the source's slot. A record only
// replaces the prior occupant of its slot if it is at least as recent, so
// out-of-order delivery cannot roll a price back.
func (s *Store) Apply(source string, records []adapter.QuoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[source]
	if !ok {
		slot = make(map[string]adapter.QuoteRecord)
		s.slots[source] = slot
	}

	for _, rec := range records {
		key := slotKey(rec)
		if prev, exists := slot[key]; exists && prev.ObservedAt.After(rec.ObservedAt) {
			continue
		}
		slot[key] = rec
	}
}

// Snapshot returns a consistent copy of every record across all sources,
// in deterministic order. The copy is of references only; records are
// immutable so the snapshot can be scanned without further locking.
func (s *Store) Snapshot() []adapter.QuoteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []adapter.QuoteRecord
	for _, slot := range s.slots {
		for _, rec := range slot {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Source != records[j].Source {
			return records[i].Source < records[j].Source
		}
		return slotKey(records[i]) < slotKey(records[j])
	})

	return records
}

// Prune drops records older than maxAge relative to now. Stale quotes are
// already excluded from scans by the freshness guard; pruning only bounds
// memory. A failed source's quotes age out here naturally, they are never
// deleted aggressively on fetch failure.
func (s *Store) Prune(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for source, slot := range s.slots {
		for key, rec := range slot {
			if now.Sub(rec.ObservedAt) > maxAge {
				delete(slot, key)
				removed++
			}
		}
		if len(slot) == 0 {
			delete(s.slots, source)
		}
	}
	return removed
}

// Len returns the total number of retained records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, slot := range s.slots {
		n += len(slot)
	}
	return n
}

// slotKey identifies the slot a record occupies within its source.
func slotKey(rec adapter.QuoteRecord) string {
	line := "-"
	if rec.Line != nil {
		line = fmt.Sprintf("%.1f", *rec.Line)
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s|%s|%s",
		rec.Sport, rec.HomeTeam, rec.AwayTeam, rec.StartTime.Unix(), rec.MarketKind, rec.Side, line)
}
