// Package geo provides great-circle distance, zone definitions, and proximity
// classification of positioned inventory against those zones.
package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadiusMeters is the mean Earth radius (IUGG) used for haversine distance.
const EarthRadiusMeters = 6371008.8

// ErrInvalidCoordinate is returned when a coordinate is non-finite or outside
// the valid latitude/longitude range.
var ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

// Position is a WGS84 latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether p can be used in distance computations.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// String formats the position with 5 decimals, e.g. "19.43260,-99.13320".
func (p Position) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Position) (float64, error) {
	if !a.Valid() {
		return 0, eris.Wrapf(ErrInvalidCoordinate, "geo: distance from %v", a)
	}
	if !b.Valid() {
		return 0, eris.Wrapf(ErrInvalidCoordinate, "geo: distance to %v", b)
	}
	return haversine(a, b), nil
}

// haversine assumes both positions are valid.
func haversine(a, b Position) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}
