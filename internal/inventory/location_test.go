package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ooh-planner/internal/geo"
)

func pos(lat, lng float64) *geo.Position {
	return &geo.Position{Lat: lat, Lng: lng}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name string
		p    geo.Position
		want LocationKey
	}{
		{"exact", geo.Position{Lat: 19.4326, Lng: -99.1332}, "19.43260,-99.13320"},
		{"rounds down", geo.Position{Lat: 19.432604, Lng: -99.133204}, "19.43260,-99.13320"},
		{"rounds up", geo.Position{Lat: 19.432596, Lng: -99.133196}, "19.43260,-99.13320"},
		{"negative zero", geo.Position{Lat: -0.000001, Lng: 0}, "0.00000,0.00000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFor(tt.p))
		})
	}
}

func TestGroupByLocation_DetectsCoLocatedPair(t *testing.T) {
	items := []Item{
		{ID: "f", Position: pos(19.43260, -99.13320), Face: FaceFlujo},
		{ID: "c", Position: pos(19.432601, -99.133201), Face: FaceContraflujo},
		{ID: "solo", Position: pos(19.5, -99.2), Face: FaceFlujo},
		{ID: "nopos", Face: FaceContraflujo},
	}

	sites := GroupByLocation(items)
	require.Len(t, sites, 2)

	pair := sites["19.43260,-99.13320"]
	assert.True(t, pair.HasFlujo)
	assert.True(t, pair.HasContraflujo)
	assert.True(t, pair.Complete())

	solo := sites["19.50000,-99.20000"]
	assert.True(t, solo.HasFlujo)
	assert.False(t, solo.Complete())
}

func TestDeriveDisplayFace(t *testing.T) {
	items := []Item{
		{ID: "f", Position: pos(19.43260, -99.13320), Face: FaceFlujo},
		{ID: "c", Position: pos(19.43260, -99.13320), Face: FaceContraflujo},
		{ID: "solo-c", Position: pos(19.5, -99.2), Face: FaceContraflujo},
		{ID: "stored-completo", Position: pos(19.6, -99.3), Face: FaceCompleto},
		{ID: "bonus", Position: pos(19.7, -99.4), Face: FaceBonificacion},
		{ID: "nopos", Face: FaceFlujo},
	}
	sites := GroupByLocation(items)

	want := map[string]Face{
		"f":               FaceCompleto,
		"c":               FaceCompleto,
		"solo-c":          FaceContraflujo,
		"stored-completo": FaceCompleto,
		"bonus":           FaceBonificacion,
		"nopos":           FaceFlujo,
	}
	for _, it := range items {
		assert.Equal(t, want[it.ID], DeriveDisplayFace(it, sites), it.ID)
	}

	// Derivation is an annotation only.
	assert.Equal(t, FaceFlujo, items[0].Face)
	assert.Len(t, items, 6)
}

func TestGroupByLocation_Deterministic(t *testing.T) {
	items := []Item{
		{ID: "f", Position: pos(19.4326, -99.1332), Face: FaceFlujo},
		{ID: "c", Position: pos(19.4326, -99.1332), Face: FaceContraflujo},
	}
	assert.Equal(t, GroupByLocation(items), GroupByLocation(items))
}
