// Package zones normalizes every zone source (place search, manual pins,
// geocoded addresses, boundary files, saved zone lists) into geo.Zone.
package zones

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/pkg/geocode"
)

// FromSearchResult builds a zone from a place-search hit.
func FromSearchResult(name string, lat, lng, radiusMeters float64) (geo.Zone, error) {
	return geo.NewZone(geo.OriginSearchResult, name, geo.Position{Lat: lat, Lng: lng}, radiusMeters)
}

// FromManualPin builds a zone from a typed or clicked coordinate. The label
// is the formatted coordinate.
func FromManualPin(lat, lng, radiusMeters float64) (geo.Zone, error) {
	p := geo.Position{Lat: lat, Lng: lng}
	return geo.NewZone(geo.OriginManualPin, p.String(), p, radiusMeters)
}

// FromResolvedAddress builds a zone from a matched geocode result. The label
// is the formatted address when the provider returned one.
func FromResolvedAddress(address string, r *geocode.Result, radiusMeters float64) (geo.Zone, error) {
	if r == nil || !r.Matched {
		return geo.Zone{}, eris.Errorf("zones: address %q was not matched", address)
	}
	label := address
	if r.FormattedAddress != "" {
		label = r.FormattedAddress
	}
	return geo.NewZone(geo.OriginResolvedAddress, label, geo.Position{Lat: r.Latitude, Lng: r.Longitude}, radiusMeters)
}
