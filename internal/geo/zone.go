package geo

import (
	"math"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ZoneOrigin records which user action produced a zone.
type ZoneOrigin string

// Zone origins.
const (
	OriginSearchResult     ZoneOrigin = "search_result"
	OriginManualPin        ZoneOrigin = "manual_pin"
	OriginResolvedAddress  ZoneOrigin = "resolved_address"
	OriginImportedBoundary ZoneOrigin = "imported_boundary"
)

// Valid reports whether o is one of the known origins.
func (o ZoneOrigin) Valid() bool {
	switch o {
	case OriginSearchResult, OriginManualPin, OriginResolvedAddress, OriginImportedBoundary:
		return true
	}
	return false
}

// ErrInvalidRadius is returned for zones with a non-positive radius.
var ErrInvalidRadius = eris.New("geo: zone radius must be positive")

// Zone is a circular proximity boundary. Each zone carries its own radius.
type Zone struct {
	ID           string     `json:"id" yaml:"id"`
	Center       Position   `json:"center" yaml:"center"`
	RadiusMeters float64    `json:"radius_m" yaml:"radius_m"`
	Label        string     `json:"label" yaml:"label"`
	Origin       ZoneOrigin `json:"origin" yaml:"origin"`
}

// NewZone validates the inputs and returns a zone with a fresh id.
func NewZone(origin ZoneOrigin, label string, center Position, radiusMeters float64) (Zone, error) {
	z := Zone{
		ID:           uuid.NewString(),
		Center:       center,
		RadiusMeters: radiusMeters,
		Label:        label,
		Origin:       origin,
	}
	if err := z.Validate(); err != nil {
		return Zone{}, err
	}
	return z, nil
}

// Validate checks the center, radius, and origin of z.
func (z Zone) Validate() error {
	if !z.Center.Valid() {
		return eris.Wrapf(ErrInvalidCoordinate, "geo: zone %q center", z.Label)
	}
	if !(z.RadiusMeters > 0) {
		return eris.Wrapf(ErrInvalidRadius, "geo: zone %q radius %v", z.Label, z.RadiusMeters)
	}
	if !z.Origin.Valid() {
		return eris.Errorf("geo: zone %q has unknown origin %q", z.Label, z.Origin)
	}
	return nil
}

// usable reports whether z has a valid center and a finite positive radius.
// Zones built by hand may skip NewZone's checks; unusable ones match nothing.
func (z Zone) usable() bool {
	return z.Center.Valid() && z.RadiusMeters > 0 && !math.IsInf(z.RadiusMeters, 1)
}

// Contains reports whether p lies within the zone radius (boundary inclusive).
// Invalid positions are never contained.
func (z Zone) Contains(p Position) bool {
	if !p.Valid() || !z.usable() {
		return false
	}
	return haversine(z.Center, p) <= z.RadiusMeters
}

// ZoneSet is the ordered list of zones owned by one editing session.
// It is not safe for concurrent use.
type ZoneSet struct {
	zones []Zone
}

// NewZoneSet returns a set seeded with zones. Invalid zones are rejected.
func NewZoneSet(zones ...Zone) (*ZoneSet, error) {
	s := &ZoneSet{}
	if err := s.AddAll(zones); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends z. A zone whose id is already present replaces the existing entry.
func (s *ZoneSet) Add(z Zone) error {
	if err := z.Validate(); err != nil {
		return err
	}
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	for i := range s.zones {
		if s.zones[i].ID == z.ID {
			s.zones[i] = z
			return nil
		}
	}
	s.zones = append(s.zones, z)
	return nil
}

// AddAll validates every zone before adding any of them.
func (s *ZoneSet) AddAll(zones []Zone) error {
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return err
		}
	}
	for _, z := range zones {
		if err := s.Add(z); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the zone with the given id and reports whether it existed.
func (s *ZoneSet) Remove(id string) bool {
	for i := range s.zones {
		if s.zones[i].ID == id {
			s.zones = append(s.zones[:i], s.zones[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every zone.
func (s *ZoneSet) Clear() { s.zones = nil }

// Len returns the number of zones.
func (s *ZoneSet) Len() int { return len(s.zones) }

// Zones returns a copy of the zones in insertion order.
func (s *ZoneSet) Zones() []Zone {
	out := make([]Zone, len(s.zones))
	copy(out, s.zones)
	return out
}
