package geo

// gridThreshold is the zone count from which Classify buckets zones into a grid.
const gridThreshold = 16

// Locatable is anything that has a stable id and an optional position.
type Locatable interface {
	LocatableID() string
	LocatablePosition() (Position, bool)
}

// Membership is the result of a proximity classification. When Active is
// false no zones were defined and both sets are empty.
type Membership struct {
	Active     bool
	InRange    map[string]struct{}
	OutOfRange map[string]struct{}
}

// IsInRange reports whether id was inside at least one zone.
func (m Membership) IsInRange(id string) bool {
	_, ok := m.InRange[id]
	return ok
}

// IsOutOfRange reports whether id was positioned and outside every zone.
func (m Membership) IsOutOfRange(id string) bool {
	_, ok := m.OutOfRange[id]
	return ok
}

// Equal compares two memberships by value.
func (m Membership) Equal(other Membership) bool {
	return m.Active == other.Active &&
		sameKeys(m.InRange, other.InRange) &&
		sameKeys(m.OutOfRange, other.OutOfRange)
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Classify splits items into in-range and out-of-range sets against zones
// (union across zones). Items without a valid position are in neither set.
// An empty zone list returns an inactive, empty membership.
func Classify[T Locatable](items []T, zones []Zone) Membership {
	m := Membership{
		InRange:    make(map[string]struct{}),
		OutOfRange: make(map[string]struct{}),
	}
	if len(zones) == 0 {
		return m
	}
	m.Active = true

	contains := func(p Position) bool {
		for _, z := range zones {
			if z.Contains(p) {
				return true
			}
		}
		return false
	}
	if len(zones) >= gridThreshold {
		contains = newZoneGrid(zones).within
	}

	for _, it := range items {
		p, ok := it.LocatablePosition()
		if !ok || !p.Valid() {
			continue
		}
		if contains(p) {
			m.InRange[it.LocatableID()] = struct{}{}
		} else {
			m.OutOfRange[it.LocatableID()] = struct{}{}
		}
	}
	return m
}
