package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/cardroom/tabled/internal/game"
)

// PostgresStore persists hand records in a single table with the variable
// parts (cards, winners, actions, seat results) as JSONB columns.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens and pings a Postgres connection, creates the schema if
// missing, and returns a store bound to it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection without migrating. Intended
// for tests and callers that manage the schema themselves.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS hands (
	id              TEXT PRIMARY KEY,
	table_id        TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	ended_at        TIMESTAMPTZ NOT NULL,
	dealer_position INTEGER NOT NULL,
	pot             INTEGER NOT NULL,
	community_cards JSONB NOT NULL,
	winners         JSONB NOT NULL,
	actions         JSONB NOT NULL,
	results         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS hands_table_idx ON hands (table_id, ended_at DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveHand implements Store.
func (s *PostgresStore) SaveHand(ctx context.Context, rec game.HandRecord) error {
	community, err := json.Marshal(rec.Community)
	if err != nil {
		return fmt.Errorf("marshal community: %w", err)
	}
	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	actions, err := json.Marshal(rec.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	results, err := json.Marshal(rec.Seats)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	const insert = `
INSERT INTO hands (id, table_id, started_at, ended_at, dealer_position, pot,
	community_cards, winners, actions, results)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, insert,
		rec.HandID, rec.TableID, rec.StartedAt, rec.EndedAt, rec.Dealer, rec.Pot,
		community, winners, actions, results)
	if err != nil {
		return fmt.Errorf("insert hand record: %w", err)
	}
	return nil
}

// Hands implements Store. limit <= 0 returns everything.
func (s *PostgresStore) Hands(ctx context.Context, tableID string, limit int) ([]game.HandRecord, error) {
	query := `
SELECT id, table_id, started_at, ended_at, dealer_position, pot,
	community_cards, winners, actions, results
FROM hands WHERE table_id = $1 ORDER BY ended_at DESC`
	args := []any{tableID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hand records: %w", err)
	}
	defer rows.Close()

	var out []game.HandRecord
	for rows.Next() {
		var rec game.HandRecord
		var community, winners, actions, results []byte
		if err := rows.Scan(&rec.HandID, &rec.TableID, &rec.StartedAt, &rec.EndedAt,
			&rec.Dealer, &rec.Pot, &community, &winners, &actions, &results); err != nil {
			return nil, fmt.Errorf("scan hand record: %w", err)
		}
		if err := json.Unmarshal(community, &rec.Community); err != nil {
			return nil, fmt.Errorf("decode community: %w", err)
		}
		if err := json.Unmarshal(winners, &rec.Winners); err != nil {
			return nil, fmt.Errorf("decode winners: %w", err)
		}
		if err := json.Unmarshal(actions, &rec.Actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		if err := json.Unmarshal(results, &rec.Seats); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hand records: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
