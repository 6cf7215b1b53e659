package planner

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/reservation"
	"github.com/sells-group/ooh-planner/internal/selection"
)

func pos(lat, lng float64) *geo.Position { return &geo.Position{Lat: lat, Lng: lng} }

// sampleItems has a complete site at the Zócalo, a lone face on Reforma, a
// reserved item in Guadalajara, and an item with no coordinates.
func sampleItems() []inventory.Item {
	return []inventory.Item{
		{ID: "z-f", Code: "CDMX-001", Position: pos(19.4326, -99.1332), Face: inventory.FaceFlujo},
		{ID: "z-c", Code: "CDMX-002", Position: pos(19.4326, -99.1332), Face: inventory.FaceContraflujo},
		{ID: "ref", Code: "CDMX-010", Position: pos(19.4270, -99.1677), Face: inventory.FaceContraflujo},
		{ID: "gdl", Code: "GDL-001", Position: pos(20.6597, -103.3496), Face: inventory.FaceFlujo, ReservedElsewhere: true},
		{ID: "nopos", Code: "CDMX-099", Face: inventory.FaceFlujo},
	}
}

func zocalo(t *testing.T) geo.Zone {
	t.Helper()
	z, err := geo.NewZone(geo.OriginManualPin, "Zócalo", geo.Position{Lat: 19.4326, Lng: -99.1332}, 500)
	require.NoError(t, err)
	return z
}

func viewsByID(views []ItemView) map[string]ItemView {
	m := make(map[string]ItemView, len(views))
	for _, v := range views {
		m[v.Item.ID] = v
	}
	return m
}

func TestSession_ViewsWithoutZones(t *testing.T) {
	s := New(sampleItems())
	v := viewsByID(s.Views())

	assert.Equal(t, inventory.FaceCompleto, v["z-f"].DisplayFace)
	assert.Equal(t, selection.DefaultPalette.Composite, v["z-f"].Decision.Color)
	assert.Equal(t, inventory.FaceContraflujo, v["ref"].DisplayFace)
	assert.Equal(t, selection.StateAlreadyReserved, v["gdl"].Decision.State)
	assert.Equal(t, selection.StateByFace, v["nopos"].Decision.State, "no zones means no proximity filtering")
	assert.False(t, v["z-f"].InRange)
}

func TestSession_ZonesAndSelection(t *testing.T) {
	s := New(sampleItems())
	z := zocalo(t)
	require.NoError(t, s.AddZone(z))

	v := viewsByID(s.Views())
	assert.True(t, v["z-f"].InRange)
	assert.Equal(t, selection.StateByFace, v["z-f"].Decision.State)
	assert.Equal(t, selection.StateOutOfRange, v["ref"].Decision.State)
	assert.Equal(t, selection.StateByFace, v["nopos"].Decision.State, "no position means no proximity decision")
	assert.Equal(t, selection.StateAlreadyReserved, v["gdl"].Decision.State, "reservation outranks range")

	require.NoError(t, s.Click("ref"))
	assert.Equal(t, selection.StateSelected, viewsByID(s.Views())["ref"].Decision.State)

	assert.True(t, s.RemoveZone(z.ID))
	assert.False(t, s.RemoveZone(z.ID))
	assert.Equal(t, selection.StateByFace, viewsByID(s.Views())["nopos"].Decision.State)
}

func TestSession_NoPositionWithZones(t *testing.T) {
	s := New(sampleItems())
	require.NoError(t, s.AddZone(zocalo(t)))

	v := viewsByID(s.Views())["nopos"]
	assert.False(t, v.InRange)
	assert.Equal(t, selection.StateByFace, v.Decision.State)
	assert.Equal(t, selection.DefaultPalette.Primary, v.Decision.Color)

	s.SelectInRange()
	assert.NotContains(t, s.Selected(), "nopos")

	require.NoError(t, s.Click("nopos"))
	assert.Equal(t, selection.StateSelected, viewsByID(s.Views())["nopos"].Decision.State)
}

func TestSession_ViewsStable(t *testing.T) {
	s := New(sampleItems())
	require.NoError(t, s.AddZone(zocalo(t)))
	require.NoError(t, s.Click("z-f"))

	assert.Equal(t, s.Views(), s.Views())
}

func TestSession_Click_Unknown(t *testing.T) {
	s := New(sampleItems())
	err := s.Click("missing")
	assert.True(t, errors.Is(err, ErrUnknownItem))
}

func TestSession_ToggleGroup(t *testing.T) {
	s := New(sampleItems())
	require.NoError(t, s.Click("z-f"))

	require.NoError(t, s.ToggleGroup([]string{"z-f", "z-c"}))
	assert.Equal(t, []string{"z-c", "z-f"}, s.Selected())

	require.NoError(t, s.ToggleGroup([]string{"z-f", "z-c"}))
	assert.Empty(t, s.Selected())

	err := s.ToggleGroup([]string{"z-f", "nope"})
	assert.True(t, errors.Is(err, ErrUnknownItem))
	assert.Empty(t, s.Selected(), "rejected toggles change nothing")
}

func TestSession_ToggleSite(t *testing.T) {
	s := New(sampleItems())
	require.NoError(t, s.ToggleSite("z-c"))
	assert.Equal(t, []string{"z-c", "z-f"}, s.Selected())

	require.NoError(t, s.ToggleSite("nopos"))
	assert.Equal(t, []string{"nopos", "z-c", "z-f"}, s.Selected())
}

func TestSession_SelectAllAndInRange(t *testing.T) {
	s := New(sampleItems())
	s.SelectInRange()
	assert.Len(t, s.Selected(), 5, "no zones selects everything")

	s.ClearSelection()
	assert.Empty(t, s.Selected())

	require.NoError(t, s.AddZone(zocalo(t)))
	s.SelectInRange()
	assert.Equal(t, []string{"z-c", "z-f"}, s.Selected())

	s.SelectAll()
	assert.Len(t, s.Selected(), 5)
}

func TestSession_AddZones_AllOrNothing(t *testing.T) {
	s := New(sampleItems())
	bad := geo.Zone{ID: "bad", Center: geo.Position{Lat: 19, Lng: -99}, RadiusMeters: -1, Origin: geo.OriginManualPin}

	err := s.AddZones([]geo.Zone{zocalo(t), bad})
	require.Error(t, err)
	assert.Empty(t, s.Zones())

	require.NoError(t, s.AddZones([]geo.Zone{zocalo(t)}))
	assert.Len(t, s.Zones(), 1)
	s.ClearZones()
	assert.Empty(t, s.Zones())
}

func TestSession_Summary(t *testing.T) {
	s := New(sampleItems())
	require.NoError(t, s.AddZone(zocalo(t)))
	require.NoError(t, s.Click("z-f"))

	sum := s.Summary()
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 1, sum.Selected)
	assert.Equal(t, 1, sum.Zones)
	assert.True(t, sum.Filtered)
	assert.Equal(t, 1, sum.ByState[selection.StateSelected])
	assert.Equal(t, 1, sum.ByState[selection.StateAlreadyReserved])
	assert.Equal(t, 1, sum.ByState[selection.StateOutOfRange])
	assert.Equal(t, 2, sum.ByState[selection.StateByFace])
}

func TestSession_Assign(t *testing.T) {
	s := New(sampleItems())

	_, err := s.Assign(reservation.Request{ProposalID: "p"})
	require.Error(t, err)

	require.NoError(t, s.ToggleSite("z-f"))
	require.NoError(t, s.Click("ref"))

	recs, err := s.Assign(reservation.Request{
		ProposalID: "p",
		Period:     &reservation.Period{Ordinal: 3, Year: 2025},
		Rate:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "z-f", recs[0].InventoryItemID)
	assert.Equal(t, recs[0].GroupID, recs[1].GroupID)
	assert.NotEmpty(t, recs[0].GroupID)
	assert.Empty(t, recs[2].GroupID)

	require.NoError(t, s.Click("gdl"))
	_, err = s.Assign(reservation.Request{ProposalID: "p"})
	assert.True(t, errors.Is(err, reservation.ErrAlreadyReserved))
}

func TestSession_ItemsSnapshot(t *testing.T) {
	items := sampleItems()
	s := New(items)
	items[0].Code = "changed"
	assert.Equal(t, "CDMX-001", s.Items()[0].Code)
}

func TestSession_WithPalette(t *testing.T) {
	p := selection.DefaultPalette
	p.Selected = "#123456"
	s := New(sampleItems(), WithPalette(p))
	require.NoError(t, s.Click("ref"))
	assert.Equal(t, "#123456", viewsByID(s.Views())["ref"].Decision.Color)
}
