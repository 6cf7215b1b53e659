// Package inventory models display units supplied by the inventory provider
// and derives read-only annotations from them (co-located sites, display face).
package inventory

import (
	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/textnorm"
)

// Face is the directional variant of a display face.
type Face string

// Directional faces. FaceNone is used when the provider gives no face.
const (
	FaceFlujo        Face = "Flujo"
	FaceContraflujo  Face = "Contraflujo"
	FaceCompleto     Face = "Completo"
	FaceBonificacion Face = "Bonificacion"
	FaceNone         Face = ""
)

// ParseFace maps provider text to a Face, ignoring case and accents.
// Unknown values map to FaceNone.
func ParseFace(s string) Face {
	switch textnorm.Fold(s) {
	case "flujo":
		return FaceFlujo
	case "contraflujo", "contra flujo":
		return FaceContraflujo
	case "completo":
		return FaceCompleto
	case "bonificacion":
		return FaceBonificacion
	default:
		return FaceNone
	}
}

// Item is one display unit. Items are owned by the inventory provider and are
// never mutated by this module.
type Item struct {
	ID                string        `json:"id"`
	Code              string        `json:"code"`
	Position          *geo.Position `json:"position,omitempty"`
	Face              Face          `json:"face"`
	ReservedElsewhere bool          `json:"reserved_elsewhere"`

	Plaza        string `json:"plaza,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Location     string `json:"location,omitempty"`
	Type         string `json:"type,omitempty"`
}

// LocatableID implements geo.Locatable.
func (it Item) LocatableID() string { return it.ID }

// LocatablePosition implements geo.Locatable.
func (it Item) LocatablePosition() (geo.Position, bool) {
	if it.Position == nil || !it.Position.Valid() {
		return geo.Position{}, false
	}
	return *it.Position, true
}

// IDs returns the ids of items in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Index maps item ids to items. Later duplicates win.
func Index(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
