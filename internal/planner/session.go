// Package planner holds one proposal-editing session: the inventory snapshot,
// the proximity zones, and the selection, and derives every item's display
// decision from them.
package planner

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/reservation"
	"github.com/sells-group/ooh-planner/internal/selection"
)

// ErrUnknownItem is returned when an id is not in the session's inventory.
var ErrUnknownItem = eris.New("planner: unknown item")

// states lists display states in precedence order.
var states = []selection.State{
	selection.StateSelected,
	selection.StateAlreadyReserved,
	selection.StateOutOfRange,
	selection.StateByFace,
}

// ItemView is the derived display data for one item.
type ItemView struct {
	Item        inventory.Item     `json:"item"`
	DisplayFace inventory.Face     `json:"display_face"`
	InRange     bool               `json:"in_range"`
	Decision    selection.Decision `json:"decision"`
}

// Summary counts items per display state.
type Summary struct {
	Total    int                     `json:"total"`
	ByState  map[selection.State]int `json:"by_state"`
	Selected int                     `json:"selected"`
	Zones    int                     `json:"zones"`
	Filtered bool                    `json:"filtered"`
}

// Option configures a Session.
type Option func(*Session)

// WithPalette overrides the marker colors.
func WithPalette(p selection.Palette) Option {
	return func(s *Session) { s.palette = p }
}

// WithMetrics records recomputations on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is a single-user editing session. It is not safe for concurrent use.
type Session struct {
	items    []inventory.Item
	byID     map[string]inventory.Item
	zones    *geo.ZoneSet
	selected *selection.Set
	palette  selection.Palette
	metrics  *Metrics
	log      *zap.Logger
}

// New starts a session over items. The slice is copied; items are never
// modified.
func New(items []inventory.Item, opts ...Option) *Session {
	snapshot := make([]inventory.Item, len(items))
	copy(snapshot, items)

	s := &Session{
		items:    snapshot,
		byID:     inventory.Index(snapshot),
		zones:    &geo.ZoneSet{},
		selected: selection.New(),
		palette:  selection.DefaultPalette,
		log:      zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "planner"))
	return s
}

// Items returns the inventory snapshot in input order.
func (s *Session) Items() []inventory.Item {
	out := make([]inventory.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Zones returns the session's zones in insertion order.
func (s *Session) Zones() []geo.Zone { return s.zones.Zones() }

// AddZone validates and adds z.
func (s *Session) AddZone(z geo.Zone) error {
	if err := s.zones.Add(z); err != nil {
		return err
	}
	s.zonesChanged()
	return nil
}

// AddZones adds every zone or none of them.
func (s *Session) AddZones(zs []geo.Zone) error {
	if err := s.zones.AddAll(zs); err != nil {
		return err
	}
	s.zonesChanged()
	return nil
}

// RemoveZone deletes a zone by id and reports whether it existed.
func (s *Session) RemoveZone(id string) bool {
	ok := s.zones.Remove(id)
	if ok {
		s.zonesChanged()
	}
	return ok
}

// ClearZones removes every zone, turning proximity filtering off.
func (s *Session) ClearZones() {
	s.zones.Clear()
	s.zonesChanged()
}

func (s *Session) zonesChanged() {
	s.log.Debug("zones changed", zap.Int("zones", s.zones.Len()))
	if s.metrics != nil {
		s.metrics.Zones.Set(float64(s.zones.Len()))
	}
}

// Click toggles one item's selection.
func (s *Session) Click(id string) error {
	if _, ok := s.byID[id]; !ok {
		return eris.Wrapf(ErrUnknownItem, "%s", id)
	}
	s.selected.Toggle(id)
	return nil
}

// ToggleGroup applies the all-or-none rule to ids. Unknown ids are rejected
// before anything changes.
func (s *Session) ToggleGroup(ids []string) error {
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			return eris.Wrapf(ErrUnknownItem, "%s", id)
		}
	}
	s.selected.ToggleGroup(ids)
	return nil
}

// ToggleSite toggles every item sharing id's location as one group.
func (s *Session) ToggleSite(id string) error {
	it, ok := s.byID[id]
	if !ok {
		return eris.Wrapf(ErrUnknownItem, "%s", id)
	}
	p, ok := it.LocatablePosition()
	if !ok {
		s.selected.Toggle(id)
		return nil
	}
	key := inventory.KeyFor(p)
	var ids []string
	for _, other := range s.items {
		if op, ok := other.LocatablePosition(); ok && inventory.KeyFor(op) == key {
			ids = append(ids, other.ID)
		}
	}
	s.selected.ToggleGroup(ids)
	return nil
}

// SelectAll selects every item in the snapshot.
func (s *Session) SelectAll() {
	s.selected.SelectAll(inventory.IDs(s.items))
}

// SelectInRange selects the items inside the current zones. With no zones it
// behaves like SelectAll.
func (s *Session) SelectInRange() {
	m := geo.Classify(s.items, s.zones.Zones())
	if !m.Active {
		s.SelectAll()
		return
	}
	var ids []string
	for _, it := range s.items {
		if m.IsInRange(it.ID) {
			ids = append(ids, it.ID)
		}
	}
	s.selected.SelectAll(ids)
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.selected.Clear()
}

// Selected returns the selected ids, sorted.
func (s *Session) Selected() []string { return s.selected.IDs() }

// Selection returns a copy of the selection set.
func (s *Session) Selection() *selection.Set { return s.selected.Clone() }

// Views recomputes membership, sites, display faces, and decisions for
// every item, in input order. Equal session state yields equal views.
func (s *Session) Views() []ItemView {
	start := time.Now()

	m := geo.Classify(s.items, s.zones.Zones())
	sites := inventory.GroupByLocation(s.items)

	views := make([]ItemView, len(s.items))
	counts := make(map[selection.State]int, len(states))
	for i, it := range s.items {
		face := inventory.DeriveDisplayFace(it, sites)
		d := selection.ResolveWith(s.palette, it, s.selected, m, face)
		views[i] = ItemView{
			Item:        it,
			DisplayFace: face,
			InRange:     m.IsInRange(it.ID),
			Decision:    d,
		}
		counts[d.State]++
	}

	if s.metrics != nil {
		s.metrics.observe(counts, time.Since(start).Seconds())
	}
	return views
}

// Summary recomputes the views and counts them per state.
func (s *Session) Summary() Summary {
	sum := Summary{
		ByState:  make(map[selection.State]int, len(states)),
		Selected: s.selected.Len(),
		Zones:    s.zones.Len(),
		Filtered: s.zones.Len() > 0,
	}
	for _, v := range s.Views() {
		sum.Total++
		sum.ByState[v.Decision.State]++
	}
	return sum
}

// Assign prepares reservation records for the selected items, in inventory
// order. req.Items is ignored. Nothing is persisted.
func (s *Session) Assign(req reservation.Request) ([]reservation.Record, error) {
	if s.selected.Len() == 0 {
		return nil, eris.New("planner: nothing selected")
	}
	req.Items = nil
	for _, it := range s.items {
		if s.selected.Contains(it.ID) {
			req.Items = append(req.Items, it)
		}
	}

	recs, err := reservation.Prepare(req)
	if err != nil {
		return nil, err
	}
	s.log.Info("assignment prepared",
		zap.String("proposal_id", req.ProposalID),
		zap.Int("records", len(recs)),
	)
	return recs, nil
}
