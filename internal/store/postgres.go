package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ooh-planner/internal/db"
	"github.com/sells-group/ooh-planner/internal/reservation"
)

const reservationsTable = "reservations"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that share the
// connection, such as the geocode cache.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reservations (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	proposal_id       TEXT NOT NULL,
	inventory_item_id TEXT NOT NULL,
	face              TEXT NOT NULL DEFAULT '',
	period_ordinal    INTEGER,
	period_year       INTEGER,
	group_id          TEXT,
	rate              NUMERIC(14,2) NOT NULL DEFAULT 0,
	discount          NUMERIC(5,2) NOT NULL DEFAULT 0,
	units             INTEGER NOT NULL DEFAULT 1,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reservations_proposal ON reservations(proposal_id);
CREATE INDEX IF NOT EXISTS idx_reservations_group ON reservations(group_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Create bulk-inserts records with COPY.
func (s *PostgresStore) Create(ctx context.Context, records []reservation.Record) error {
	_, err := db.CopyFrom(ctx, s.pool, reservationsTable, recordColumns, recordRows(records))
	return eris.Wrap(err, "postgres: create reservations")
}

// Save upserts records by id.
func (s *PostgresStore) Save(ctx context.Context, records []reservation.Record) error {
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        reservationsTable,
		Columns:      recordColumns,
		ConflictKeys: []string{"id"},
	}, recordRows(records))
	return eris.Wrap(err, "postgres: save reservations")
}

func recordRows(records []reservation.Record) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = recordArgs(r)
	}
	return rows
}

// Update overwrites the stored record with the same id.
func (s *PostgresStore) Update(ctx context.Context, r reservation.Record) error {
	args := recordArgs(r)
	tag, err := s.pool.Exec(ctx,
		`UPDATE reservations SET proposal_id = $2, inventory_item_id = $3, face = $4, period_ordinal = $5, period_year = $6, group_id = $7, rate = $8::numeric, discount = $9::numeric, units = $10, updated_at = now() WHERE id = $1`,
		args...,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update reservation")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "reservation %s", r.ID)
	}
	return nil
}

// Delete removes one record. Group siblings are left in place.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: delete reservation")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "reservation %s", id)
	}
	return nil
}

// ListByProposal returns the proposal's records oldest first.
func (s *PostgresStore) ListByProposal(ctx context.Context, proposalID string) ([]reservation.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, proposal_id, inventory_item_id, face, COALESCE(period_ordinal, 0), COALESCE(period_year, 0), COALESCE(group_id, ''), rate::text, discount::text, units
		FROM reservations WHERE proposal_id = $1 ORDER BY created_at, id`, proposalID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reservations")
	}
	defer rows.Close()

	var out []reservation.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan reservation")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list reservations")
}
