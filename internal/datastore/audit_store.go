package datastore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/errorwrapper"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS classification_audit (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id    TEXT NOT NULL,
	url           TEXT NOT NULL,
	result_type   TEXT NOT NULL,
	campaign_type TEXT NOT NULL,
	platform      TEXT NOT NULL DEFAULT '',
	matched_rule  TEXT NOT NULL DEFAULT '',
	probe_score   INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_classification_audit_created_at
	ON classification_audit (created_at);
`

// AuditStore persists one row per classification decision to a local SQLite
// database for offline review. Recording is best effort and never blocks a
// response.
type AuditStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewAuditStore opens (or creates) the audit database and ensures its
// schema.
func NewAuditStore(cfg config.AuditConfig, logger zerolog.Logger) (*AuditStore, error) {
	dbPath := cfg.SQLiteDBPath
	if dbPath == "" {
		dbPath = config.DefaultAuditSQLitePath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create audit database directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to open audit database")
	}

	// SQLite serializes writers; a single connection avoids lock contention
	// errors under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, errorwrapper.WrapError(err, "failed to ensure audit schema")
	}

	return &AuditStore{
		db:     db,
		logger: logger.With().Str("component", "AuditStore").Logger(),
	}, nil
}

// Record writes one audit row. Failures are logged and swallowed.
func (s *AuditStore) Record(ctx context.Context, requestID string, result classifier.Result, duration time.Duration) {
	if s == nil {
		return
	}

	platform := result.Platform
	if platform == "" && result.Details != nil {
		platform = result.Details.StorePlatform
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO classification_audit
			(request_id, url, result_type, campaign_type, platform, matched_rule, probe_score, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		result.URL,
		string(result.Type),
		string(result.SuggestedCampaignType),
		platform,
		result.MatchedRule,
		result.ProbeScore,
		duration.Milliseconds(),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("Failed to record audit row")
	}
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
