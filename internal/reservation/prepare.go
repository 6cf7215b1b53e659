package reservation

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/inventory"
)

// Errors returned by Prepare.
var (
	ErrAlreadyReserved = eris.New("reservation: item already reserved elsewhere")
	ErrNoProposal      = eris.New("reservation: proposal id is required")
	ErrInvalidAmount   = eris.New("reservation: invalid amount")
)

var newID = uuid.NewString

// Request describes one assignment batch.
type Request struct {
	ProposalID     string
	Items          []inventory.Item
	Period         *Period
	Rate           decimal.Decimal
	Discount       decimal.Decimal
	Units          int // per record; 0 means 1
	AllowConflicts bool
}

// Prepare builds one record per item. Flujo and Contraflujo items of the same
// site that are both in the batch share a new GroupID. Bonificacion items are
// recorded at a zero rate. Records are returned in item order and nothing is
// persisted.
func Prepare(req Request) ([]Record, error) {
	if req.ProposalID == "" {
		return nil, ErrNoProposal
	}
	if req.Rate.IsNegative() {
		return nil, eris.Wrapf(ErrInvalidAmount, "rate %s", req.Rate)
	}
	if req.Discount.IsNegative() || req.Discount.GreaterThan(hundred) {
		return nil, eris.Wrapf(ErrInvalidAmount, "discount %s", req.Discount)
	}
	if req.Period != nil && !req.Period.Valid() {
		return nil, eris.Wrapf(ErrInvalidPeriod, "%s", req.Period.Label())
	}
	if !req.AllowConflicts {
		for _, it := range req.Items {
			if it.ReservedElsewhere {
				return nil, eris.Wrapf(ErrAlreadyReserved, "item %s", it.ID)
			}
		}
	}

	units := req.Units
	if units <= 0 {
		units = 1
	}

	groups := pairGroups(req.Items)
	out := make([]Record, 0, len(req.Items))
	for _, it := range req.Items {
		rec := Record{
			ID:              newID(),
			ProposalID:      req.ProposalID,
			InventoryItemID: it.ID,
			Face:            it.Face,
			Period:          req.Period,
			Rate:            req.Rate,
			Discount:        req.Discount,
			Units:           units,
		}
		if it.Face == inventory.FaceBonificacion {
			rec.Rate = decimal.Zero
		}
		if p, ok := it.LocatablePosition(); ok && directional(it.Face) {
			rec.GroupID = groups[inventory.KeyFor(p)]
		}
		out = append(out, rec)
	}

	zap.L().Debug("reservation: prepared batch",
		zap.String("proposal_id", req.ProposalID),
		zap.Int("records", len(out)),
		zap.Int("groups", len(groups)),
	)
	return out, nil
}

// pairGroups assigns a group id to every location where the batch holds both
// directional faces.
func pairGroups(items []inventory.Item) map[inventory.LocationKey]string {
	sites := inventory.GroupByLocation(items)
	groups := make(map[inventory.LocationKey]string)
	for _, it := range items {
		p, ok := it.LocatablePosition()
		if !ok {
			continue
		}
		k := inventory.KeyFor(p)
		if _, done := groups[k]; done || !sites[k].Complete() {
			continue
		}
		groups[k] = newID()
	}
	return groups
}

func directional(f inventory.Face) bool {
	return f == inventory.FaceFlujo || f == inventory.FaceContraflujo
}
