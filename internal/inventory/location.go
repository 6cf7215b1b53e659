package inventory

import (
	"strconv"

	"github.com/sells-group/ooh-planner/internal/geo"
)

// locationPrecision is the number of decimals a LocationKey keeps (~1.1m).
const locationPrecision = 5

// LocationKey identifies items presumed to share a physical site.
type LocationKey string

// KeyFor rounds p to 5 decimal degrees, e.g. "19.43260,-99.13320".
func KeyFor(p geo.Position) LocationKey {
	return LocationKey(formatCoord(p.Lat) + "," + formatCoord(p.Lng))
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', locationPrecision, 64)
	if s == "-0.00000" {
		return "0.00000"
	}
	return s
}

// Site summarises which directional faces exist at one location.
type Site struct {
	HasFlujo       bool `json:"has_flujo"`
	HasContraflujo bool `json:"has_contraflujo"`
}

// Complete reports whether both directional faces share the site.
func (s Site) Complete() bool { return s.HasFlujo && s.HasContraflujo }

// GroupByLocation builds the site map for items. Items without a valid
// position are skipped.
func GroupByLocation(items []Item) map[LocationKey]Site {
	sites := make(map[LocationKey]Site)
	for _, it := range items {
		p, ok := it.LocatablePosition()
		if !ok {
			continue
		}
		k := KeyFor(p)
		s := sites[k]
		switch it.Face {
		case FaceFlujo:
			s.HasFlujo = true
		case FaceContraflujo:
			s.HasContraflujo = true
		}
		sites[k] = s
	}
	return sites
}

// SiteOf returns the site info for it and whether it has a position.
func SiteOf(it Item, sites map[LocationKey]Site) (Site, bool) {
	p, ok := it.LocatablePosition()
	if !ok {
		return Site{}, false
	}
	s, ok := sites[KeyFor(p)]
	return s, ok
}

// DeriveDisplayFace returns the face used for display. A stored Completo is
// kept; an item whose site has both faces displays as Completo; otherwise the
// stored face is returned. The item itself is not modified.
func DeriveDisplayFace(it Item, sites map[LocationKey]Site) Face {
	if it.Face == FaceCompleto {
		return FaceCompleto
	}
	if s, ok := SiteOf(it, sites); ok && s.Complete() {
		return FaceCompleto
	}
	return it.Face
}
