// Package report groups reserved inventory for proposal reports.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/reservation"
)

// Row is one reserved item joined with its inventory attributes.
type Row struct {
	ItemID        string              `json:"item_id"`
	ReservationID string              `json:"reservation_id"`
	Code          string              `json:"code"`
	Plaza         string              `json:"plaza"`
	Municipality  string              `json:"municipality"`
	Location      string              `json:"location"`
	Type          string              `json:"type"`
	Face          inventory.Face      `json:"face"`
	Period        *reservation.Period `json:"period,omitempty"`
	Units         int                 `json:"units"`
	Rate          decimal.Decimal     `json:"rate"`
	Discount      decimal.Decimal     `json:"discount"`
}

// Net returns the row's rate after discount.
func (r Row) Net() decimal.Decimal {
	return reservation.Record{Rate: r.Rate, Discount: r.Discount}.Net()
}

// RowsFrom joins records with items, in record order. Records whose item is
// unknown still produce a row, with empty descriptive fields.
func RowsFrom(items []inventory.Item, records []reservation.Record) []Row {
	byID := inventory.Index(items)
	rows := make([]Row, len(records))
	for i, rec := range records {
		it := byID[rec.InventoryItemID]
		rows[i] = Row{
			ItemID:        rec.InventoryItemID,
			ReservationID: rec.ID,
			Code:          it.Code,
			Plaza:         it.Plaza,
			Municipality:  it.Municipality,
			Location:      it.Location,
			Type:          it.Type,
			Face:          rec.Face,
			Period:        rec.Period,
			Units:         rec.Units,
			Rate:          rec.Rate,
			Discount:      rec.Discount,
		}
	}
	return rows
}

// ItemRows returns one unreserved row per item, for grouping inventory
// before anything is booked.
func ItemRows(items []inventory.Item) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{
			ItemID:       it.ID,
			Code:         it.Code,
			Plaza:        it.Plaza,
			Municipality: it.Municipality,
			Location:     it.Location,
			Type:         it.Type,
			Face:         it.Face,
			Rate:         decimal.Zero,
			Discount:     decimal.Zero,
		}
	}
	return rows
}
