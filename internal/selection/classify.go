package selection

import (
	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/inventory"
)

// State is the resolved display state of an item.
type State string

// Display states, in precedence order.
const (
	StateSelected        State = "selected"
	StateAlreadyReserved State = "already_reserved"
	StateOutOfRange      State = "out_of_range"
	StateByFace          State = "by_face"
)

// Palette maps display states and faces to marker colors.
type Palette struct {
	Selected        string `yaml:"selected" mapstructure:"selected"`
	AlreadyReserved string `yaml:"already_reserved" mapstructure:"already_reserved"`
	OutOfRange      string `yaml:"out_of_range" mapstructure:"out_of_range"`
	Composite       string `yaml:"composite" mapstructure:"composite"`
	Secondary       string `yaml:"secondary" mapstructure:"secondary"`
	Primary         string `yaml:"primary" mapstructure:"primary"`
}

// DefaultPalette is used by Resolve.
var DefaultPalette = Palette{
	Selected:        "#22c55e",
	AlreadyReserved: "#ef4444",
	OutOfRange:      "#9ca3af",
	Composite:       "#8b5cf6",
	Secondary:       "#f97316",
	Primary:         "#3b82f6",
}

// Decision is the display outcome for one item.
type Decision struct {
	State State  `json:"state"`
	Color string `json:"color"`
}

// Resolve is ResolveWith using DefaultPalette.
func Resolve(it inventory.Item, set *Set, m geo.Membership, displayFace inventory.Face) Decision {
	return ResolveWith(DefaultPalette, it, set, m, displayFace)
}

// ResolveWith picks the first matching rule:
//  1. selected
//  2. reserved elsewhere
//  3. positioned outside every active zone (items without a position skip this rule)
//  4. color by display face (Completo, Contraflujo, everything else)
//
// Do not reorder: selection must dominate conflicts, which dominate proximity.
func ResolveWith(p Palette, it inventory.Item, set *Set, m geo.Membership, displayFace inventory.Face) Decision {
	switch {
	case set.Contains(it.ID):
		return Decision{State: StateSelected, Color: p.Selected}
	case it.ReservedElsewhere:
		return Decision{State: StateAlreadyReserved, Color: p.AlreadyReserved}
	case m.IsOutOfRange(it.ID):
		return Decision{State: StateOutOfRange, Color: p.OutOfRange}
	}

	switch displayFace {
	case inventory.FaceCompleto:
		return Decision{State: StateByFace, Color: p.Composite}
	case inventory.FaceContraflujo:
		return Decision{State: StateByFace, Color: p.Secondary}
	default:
		return Decision{State: StateByFace, Color: p.Primary}
	}
}
