// Package repository persists published opportunities for later review.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/models"
)

// AuditRecord is one persisted opportunity as read back from the audit log.
type AuditRecord struct {
	ID          int64           `json:"id"`
	Cycle       uint64          `json:"cycle"`
	Kind        string          `json:"kind"`
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// AuditRepository appends published opportunity sets to the audit table.
// It implements the engine's sink interface.
type AuditRepository struct {
	db  *database.DB
	log *logrus.Logger
}

// NewAuditRepository creates an audit repository over the given database.
func NewAuditRepository(db *database.DB, log *logrus.Logger) *AuditRepository {
	return &AuditRepository{db: db, log: log}
}

const insertAudit = `
INSERT INTO opportunity_audit (cycle, kind, fingerprint, payload, published_at)
VALUES ($1, $2, $3, $4, $5)`

// Publish records every opportunity in the set. Individual insert failures
// abort the batch; the audit log is best effort and the caller only logs
// the error.
func (r *AuditRepository) Publish(ctx context.Context, set models.OpportunitySet) error {
	for _, opp := range set.Arbitrages {
		payload, err := json.Marshal(opp)
		if err != nil {
			return fmt.Errorf("marshal arbitrage: %w", err)
		}
		if _, err := r.db.Exec(ctx, insertAudit, set.Cycle, "arbitrage", opp.Fingerprint(), payload, set.PublishedAt); err != nil {
			return fmt.Errorf("insert arbitrage audit row: %w", err)
		}
	}

	for _, opp := range set.Middles {
		payload, err := json.Marshal(opp)
		if err != nil {
			return fmt.Errorf("marshal middle: %w", err)
		}
		if _, err := r.db.Exec(ctx, insertAudit, set.Cycle, "middle", opp.Fingerprint(), payload, set.PublishedAt); err != nil {
			return fmt.Errorf("insert middle audit row: %w", err)
		}
	}

	r.log.WithFields(logrus.Fields{
		"cycle":      set.Cycle,
		"arbitrages": len(set.Arbitrages),
		"middles":    len(set.Middles),
	}).Debug("opportunity set recorded to audit log")

	return nil
}

// Recent returns the most recently recorded opportunities, newest first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, cycle, kind, fingerprint, payload, published_at, recorded_at
		FROM opportunity_audit
		ORDER BY recorded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Cycle, &rec.Kind, &rec.Fingerprint, &rec.Payload, &rec.PublishedAt, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// History returns every recorded occurrence of one opportunity fingerprint,
// oldest first, showing how long the opportunity survived across cycles.
func (r *AuditRepository) History(ctx context.Context, fingerprint string) ([]AuditRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cycle, kind, fingerprint, payload, published_at, recorded_at
		FROM opportunity_audit
		WHERE fingerprint = $1
		ORDER BY cycle ASC`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Cycle, &rec.Kind, &rec.Fingerprint, &rec.Payload, &rec.PublishedAt, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, models.ErrNotFound
	}
	return records, rows.Err()
}
