package reservation

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/ooh-planner/internal/inventory"
)

var hundred = decimal.NewFromInt(100)

// Record assigns one inventory item to a proposal. GroupID is a weak link
// between the paired faces of one site; it never owns the records it names.
type Record struct {
	ID              string          `json:"id"`
	ProposalID      string          `json:"proposal_id"`
	InventoryItemID string          `json:"inventory_item_id"`
	Face            inventory.Face  `json:"face"`
	Period          *Period         `json:"period,omitempty"`
	GroupID         string          `json:"group_id,omitempty"`
	Rate            decimal.Decimal `json:"rate"`
	Discount        decimal.Decimal `json:"discount"` // percent, 0..100
	Units           int             `json:"units"`
}

// Net returns the rate after discount.
func (r Record) Net() decimal.Decimal {
	return r.Rate.Mul(hundred.Sub(r.Discount)).Div(hundred)
}
