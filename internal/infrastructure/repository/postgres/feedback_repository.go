package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// FeedbackRepository stores per-document relevance boost factors
// accumulated from user feedback. A factor of 1.0 is neutral; boosts
// multiply into the combined score after fusion.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS feedback_boosts (
	document_id TEXT PRIMARY KEY,
	boost DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) BoostFactors(ctx context.Context, documentIDs []string) (map[string]float64, error) {
	if len(documentIDs) == 0 {
		return map[string]float64{}, nil
	}

	placeholders := make([]string, len(documentIDs))
	args := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT document_id, boost
FROM feedback_boosts
WHERE document_id IN (%s)
`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback boosts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(documentIDs))
	for rows.Next() {
		var id string
		var boost float64
		if err := rows.Scan(&id, &boost); err != nil {
			return nil, fmt.Errorf("scan feedback boost: %w", err)
		}
		out[id] = boost
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback boosts: %w", err)
	}
	return out, nil
}

// RecordFeedback nudges a document's boost by delta, clamped server-side
// to [0.5, 2.0] so feedback can never bury or pin a document outright.
func (r *FeedbackRepository) RecordFeedback(ctx context.Context, documentID string, delta float64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback_boosts (document_id, boost, updated_at)
VALUES ($1, LEAST(GREATEST(1.0 + $2, 0.5), 2.0), $3)
ON CONFLICT (document_id)
DO UPDATE SET boost = LEAST(GREATEST(feedback_boosts.boost + $2, 0.5), 2.0), updated_at = $3
`, documentID, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}
