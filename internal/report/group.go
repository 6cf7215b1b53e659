package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/ooh-planner/internal/selection"
	"github.com/sells-group/ooh-planner/internal/textnorm"
)

// KeySeparator joins dimension values into a group key.
const KeySeparator = " | "

// AllKey is the key of the single group produced without dimensions.
const AllKey = "(todos)"

// Group is a set of rows sharing the same dimension values.
type Group struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
	Rows   []Row    `json:"rows"`
}

// Totals aggregates a set of rows.
type Totals struct {
	Count int             `json:"count"`
	Units int             `json:"units"`
	Net   decimal.Decimal `json:"net"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{Count: t.Count + o.Count, Units: t.Units + o.Units, Net: t.Net.Add(o.Net)}
}

// Totals recomputes the group's aggregates from its rows.
func (g Group) Totals() Totals {
	t := Totals{Count: len(g.Rows), Net: decimal.Zero}
	for _, r := range g.Rows {
		t.Units += r.Units
		t.Net = t.Net.Add(r.Net())
	}
	return t
}

// ItemIDs returns the inventory ids of the group's rows.
func (g Group) ItemIDs() []string {
	ids := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		ids[i] = r.ItemID
	}
	return ids
}

// Result is the output of GroupRows.
type Result struct {
	Dimensions []Dimension `json:"-"`
	Groups     []Group     `json:"groups"`
}

// Total aggregates every group.
func (res Result) Total() Totals {
	t := Totals{Net: decimal.Zero}
	for _, g := range res.Groups {
		t = t.add(g.Totals())
	}
	return t
}

// Rows returns the rows of every group in group order.
func (res Result) Rows() []Row {
	var out []Row
	for _, g := range res.Groups {
		out = append(out, g.Rows...)
	}
	return out
}

// Find returns the group whose display key equals key, ignoring case and
// accents.
func (res Result) Find(key string) (Group, bool) {
	want := textnorm.Fold(key)
	for _, g := range res.Groups {
		if textnorm.Fold(g.Key) == want {
			return g, true
		}
	}
	return Group{}, false
}

// Option configures GroupRows.
type Option func(*options)

type options struct {
	filter func(Row) bool
	less   func(a, b Row) bool
}

// WithFilter keeps only rows for which pred is true. It is applied before
// sorting and grouping.
func WithFilter(pred func(Row) bool) Option {
	return func(o *options) { o.filter = pred }
}

// WithComparator stable-sorts the filtered rows before grouping, which
// determines group order.
func WithComparator(less func(a, b Row) bool) Option {
	return func(o *options) { o.less = less }
}

// MatchText returns a predicate matching rows whose code, plaza, or location
// contains query, ignoring case and accents. An empty query matches all rows.
func MatchText(query string) func(Row) bool {
	q := textnorm.Fold(query)
	return func(r Row) bool {
		if q == "" {
			return true
		}
		for _, field := range []string{r.Code, r.Plaza, r.Location} {
			if strings.Contains(textnorm.Fold(field), q) {
				return true
			}
		}
		return false
	}
}

// GroupRows filters, sorts, and partitions rows by dims. Groups appear in order
// of first appearance; every surviving row lands in exactly one group. With
// no dims a single AllKey group holds every row. rows is not modified.
func GroupRows(rows []Row, dims []Dimension, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	filtered := make([]Row, 0, len(rows))
	for _, r := range rows {
		if o.filter == nil || o.filter(r) {
			filtered = append(filtered, r)
		}
	}
	if o.less != nil {
		sort.SliceStable(filtered, func(i, j int) bool { return o.less(filtered[i], filtered[j]) })
	}

	res := Result{Dimensions: dims}
	if len(dims) == 0 {
		if len(filtered) > 0 {
			res.Groups = []Group{{Key: AllKey, Rows: filtered}}
		}
		return res
	}

	index := make(map[string]int)
	for _, r := range filtered {
		values := make([]string, len(dims))
		for i, d := range dims {
			values[i] = d.Value(r)
		}
		// Values may contain KeySeparator, so the index uses NUL.
		id := strings.Join(values, "\x00")
		i, ok := index[id]
		if !ok {
			i = len(res.Groups)
			index[id] = i
			res.Groups = append(res.Groups, Group{Key: strings.Join(values, KeySeparator), Values: values})
		}
		res.Groups[i].Rows = append(res.Groups[i].Rows, r)
	}
	return res
}

// ToggleGroup applies the all-or-none selection rule to the group's items.
func ToggleGroup(set *selection.Set, g Group) {
	set.ToggleGroup(g.ItemIDs())
}
