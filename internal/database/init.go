package database

import (
	"context"
	"fmt"

	"github.com/yourusername/sharpline/internal/config"
)

// auditSchema is applied at startup. The table is append-only; one row per
// opportunity per cycle.
const auditSchema = `
CREATE TABLE IF NOT EXISTS opportunity_audit (
	id           BIGSERIAL PRIMARY KEY,
	cycle        BIGINT      NOT NULL,
	kind         TEXT        NOT NULL,
	fingerprint  TEXT        NOT NULL,
	payload      JSONB       NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_opportunity_audit_cycle ON opportunity_audit (cycle);
CREATE INDEX IF NOT EXISTS idx_opportunity_audit_fingerprint ON opportunity_audit (fingerprint);
`

// Initialize opens the audit database and ensures the schema exists.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(ctx, auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}

	return db, nil
}
