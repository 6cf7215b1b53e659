// Package store persists reservation records in SQLite or Postgres.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/reservation"
)

// ErrNotFound is returned when an update or delete matches no record.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence boundary for reservation records. Deleting a
// record never touches the records sharing its group.
type Store interface {
	Create(ctx context.Context, records []reservation.Record) error
	Update(ctx context.Context, record reservation.Record) error
	Save(ctx context.Context, records []reservation.Record) error
	Delete(ctx context.Context, id string) error
	ListByProposal(ctx context.Context, proposalID string) ([]reservation.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// recordColumns is the column order shared by inserts and COPY.
var recordColumns = []string{
	"id", "proposal_id", "inventory_item_id", "face",
	"period_ordinal", "period_year", "group_id",
	"rate", "discount", "units",
}

// recordArgs flattens r in recordColumns order. Absent periods and groups are
// stored as NULL; amounts are passed as decimal strings.
func recordArgs(r reservation.Record) []any {
	var ordinal, year, group any
	if r.Period != nil {
		ordinal, year = r.Period.Ordinal, r.Period.Year
	}
	if r.GroupID != "" {
		group = r.GroupID
	}
	return []any{
		r.ID, r.ProposalID, r.InventoryItemID, string(r.Face),
		ordinal, year, group,
		r.Rate.String(), r.Discount.String(), r.Units,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRecord reads a row selected with selectRecord.
func scanRecord(row scannable) (reservation.Record, error) {
	var (
		r              reservation.Record
		face           string
		ordinal, year  int
		rate, discount string
	)
	if err := row.Scan(&r.ID, &r.ProposalID, &r.InventoryItemID, &face,
		&ordinal, &year, &r.GroupID, &rate, &discount, &r.Units); err != nil {
		return r, err
	}
	r.Face = inventory.Face(face)
	if ordinal > 0 {
		r.Period = &reservation.Period{Ordinal: ordinal, Year: year}
	}
	var err error
	if r.Rate, err = decimal.NewFromString(rate); err != nil {
		return r, eris.Wrapf(err, "parse rate of %s", r.ID)
	}
	if r.Discount, err = decimal.NewFromString(discount); err != nil {
		return r, eris.Wrapf(err, "parse discount of %s", r.ID)
	}
	return r, nil
}
