package report

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/ooh-planner/internal/textnorm"
)

// Unassigned labels an empty dimension value.
const Unassigned = "(sin asignar)"

// ErrUnknownDimension is returned by DimensionsByName.
var ErrUnknownDimension = eris.New("report: unknown dimension")

// Dimension extracts one grouping value from a row.
type Dimension struct {
	Name  string
	Title string
	Key   func(Row) string
}

// Value returns the dimension's value for r, or Unassigned when empty.
func (d Dimension) Value(r Row) string {
	if v := d.Key(r); v != "" {
		return v
	}
	return Unassigned
}

// Built-in dimensions.
var (
	Catorcena = Dimension{Name: "catorcena", Title: "Catorcena", Key: func(r Row) string {
		if r.Period == nil {
			return ""
		}
		return r.Period.Label()
	}}
	Plaza        = Dimension{Name: "plaza", Title: "Plaza", Key: func(r Row) string { return r.Plaza }}
	Municipality = Dimension{Name: "municipio", Title: "Municipio", Key: func(r Row) string { return r.Municipality }}
	Type         = Dimension{Name: "tipo", Title: "Tipo", Key: func(r Row) string { return r.Type }}
	Face         = Dimension{Name: "cara", Title: "Cara", Key: func(r Row) string { return string(r.Face) }}
	Location     = Dimension{Name: "ubicacion", Title: "Ubicación", Key: func(r Row) string { return r.Location }}
	Code         = Dimension{Name: "codigo", Title: "Código", Key: func(r Row) string { return r.Code }}
)

var builtins = map[string]Dimension{}

func init() {
	for _, d := range []Dimension{Catorcena, Plaza, Municipality, Type, Face, Location, Code} {
		builtins[textnorm.Key(d.Name)] = d
	}
}

// DimensionsByName resolves built-in dimension names in order. Names are
// matched ignoring case and accents.
func DimensionsByName(names []string) ([]Dimension, error) {
	dims := make([]Dimension, 0, len(names))
	for _, n := range names {
		d, ok := builtins[textnorm.Key(n)]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownDimension, "%q", n)
		}
		dims = append(dims, d)
	}
	return dims, nil
}
