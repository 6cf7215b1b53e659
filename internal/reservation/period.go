// Package reservation turns a selection into reservation records, tracks the
// weak group links between paired faces, and maps dates onto catorcenas.
package reservation

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// PeriodDays is the length of one catorcena.
const PeriodDays = 14

// maxOrdinal is the largest ordinal a year can hold. Most years hold 26.
const maxOrdinal = 27

// ErrInvalidPeriod is returned for periods outside the calendar.
var ErrInvalidPeriod = eris.New("reservation: invalid period")

// Period identifies a catorcena by its ordinal within a year.
type Period struct {
	Ordinal int `json:"ordinal" yaml:"ordinal"`
	Year    int `json:"year" yaml:"year"`
}

// Label renders the period as "Catorcena N / YYYY".
func (p Period) Label() string {
	return fmt.Sprintf("Catorcena %d / %d", p.Ordinal, p.Year)
}

// Valid reports whether the ordinal and year are in range.
func (p Period) Valid() bool {
	return p.Ordinal >= 1 && p.Ordinal <= maxOrdinal && p.Year >= 2000
}

// Calendar maps dates to catorcenas: consecutive 14-day windows starting at
// the anchor. Ordinals restart at 1 with the first window that starts in a new
// calendar year.
type Calendar struct {
	anchor int64 // days since the Unix epoch
}

// NewCalendar returns a calendar anchored at the date of anchor (time of day
// and zone are ignored).
func NewCalendar(anchor time.Time) Calendar {
	return Calendar{anchor: epochDay(anchor)}
}

// PeriodFor returns the period whose window contains t.
func (c Calendar) PeriodFor(t time.Time) Period {
	k := floorDiv(epochDay(t)-c.anchor, PeriodDays)
	start := c.windowStart(k)
	year := time.Unix(start*86400, 0).UTC().Year()
	return Period{Ordinal: int(k-c.firstWindow(year)) + 1, Year: year}
}

// Range returns the window of p as [start, end).
func (c Calendar) Range(p Period) (time.Time, time.Time, error) {
	if !p.Valid() {
		return time.Time{}, time.Time{}, eris.Wrapf(ErrInvalidPeriod, "%s", p.Label())
	}
	k := c.firstWindow(p.Year) + int64(p.Ordinal) - 1
	start := time.Unix(c.windowStart(k)*86400, 0).UTC()
	if start.Year() != p.Year {
		return time.Time{}, time.Time{}, eris.Wrapf(ErrInvalidPeriod, "%s does not exist", p.Label())
	}
	return start, start.AddDate(0, 0, PeriodDays), nil
}

func (c Calendar) windowStart(k int64) int64 {
	return c.anchor + k*PeriodDays
}

// firstWindow returns the index of the first window starting on or after
// Jan 1 of year.
func (c Calendar) firstWindow(year int) int64 {
	jan1 := epochDay(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	return -floorDiv(c.anchor-jan1, PeriodDays)
}

func epochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
