package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ooh-planner/internal/reservation"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reservations (
	id                TEXT PRIMARY KEY,
	proposal_id       TEXT NOT NULL,
	inventory_item_id TEXT NOT NULL,
	face              TEXT NOT NULL DEFAULT '',
	period_ordinal    INTEGER,
	period_year       INTEGER,
	group_id          TEXT,
	rate              TEXT NOT NULL DEFAULT '0',
	discount          TEXT NOT NULL DEFAULT '0',
	units             INTEGER NOT NULL DEFAULT 1,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reservations_proposal ON reservations(proposal_id);
CREATE INDEX IF NOT EXISTS idx_reservations_group ON reservations(group_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsert = `INSERT INTO reservations (id, proposal_id, inventory_item_id, face, period_ordinal, period_year, group_id, rate, discount, units)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Create inserts records in one transaction.
func (s *SQLiteStore) Create(ctx context.Context, records []reservation.Record) error {
	return s.exec(ctx, sqliteInsert, records, "sqlite: create reservations")
}

// Save inserts records or overwrites the stored ones with the same id.
func (s *SQLiteStore) Save(ctx context.Context, records []reservation.Record) error {
	const q = sqliteInsert + `
ON CONFLICT(id) DO UPDATE SET
	proposal_id = excluded.proposal_id,
	inventory_item_id = excluded.inventory_item_id,
	face = excluded.face,
	period_ordinal = excluded.period_ordinal,
	period_year = excluded.period_year,
	group_id = excluded.group_id,
	rate = excluded.rate,
	discount = excluded.discount,
	units = excluded.units,
	updated_at = datetime('now')`
	return s.exec(ctx, q, records, "sqlite: save reservations")
}

func (s *SQLiteStore) exec(ctx context.Context, query string, records []reservation.Record, op string) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, op)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, op)
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(r)...); err != nil {
			return eris.Wrapf(err, "%s: %s", op, r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), op)
}

// Update overwrites the stored record with the same id.
func (s *SQLiteStore) Update(ctx context.Context, r reservation.Record) error {
	args := recordArgs(r)
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET proposal_id = ?, inventory_item_id = ?, face = ?, period_ordinal = ?, period_year = ?, group_id = ?, rate = ?, discount = ?, units = ?, updated_at = datetime('now') WHERE id = ?`,
		append(args[1:], r.ID)...,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update reservation")
	}
	return checkRowsAffected(res, "reservation", r.ID)
}

// Delete removes one record. Group siblings are left in place.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete reservation")
	}
	return checkRowsAffected(res, "reservation", id)
}

// ListByProposal returns the proposal's records in insertion order.
func (s *SQLiteStore) ListByProposal(ctx context.Context, proposalID string) ([]reservation.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, proposal_id, inventory_item_id, face, COALESCE(period_ordinal, 0), COALESCE(period_year, 0), COALESCE(group_id, ''), rate, discount, units
		FROM reservations WHERE proposal_id = ? ORDER BY rowid`, proposalID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reservations")
	}
	defer rows.Close() //nolint:errcheck

	var out []reservation.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan reservation")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list reservations")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
