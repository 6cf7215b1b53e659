package planner

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/ooh-planner/internal/geo"
)

// FeatureCollection renders views and zones as GeoJSON points. Items without
// a position are left out. Zone features carry kind "zone" and their radius.
func FeatureCollection(views []ItemView, zones []geo.Zone) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for _, z := range zones {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       z.ID,
			Geometry: point(z.Center),
			Properties: map[string]interface{}{
				"kind":     "zone",
				"label":    z.Label,
				"origin":   string(z.Origin),
				"radius_m": z.RadiusMeters,
			},
		})
	}
	for _, v := range views {
		p, ok := v.Item.LocatablePosition()
		if !ok {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       v.Item.ID,
			Geometry: point(p),
			Properties: map[string]interface{}{
				"kind":         "item",
				"code":         v.Item.Code,
				"face":         string(v.Item.Face),
				"display_face": string(v.DisplayFace),
				"state":        string(v.Decision.State),
				"color":        v.Decision.Color,
				"in_range":     v.InRange,
			},
		})
	}
	return fc
}

// WriteGeoJSON writes the session's current map as a GeoJSON FeatureCollection.
func (s *Session) WriteGeoJSON(w io.Writer) error {
	data, err := json.Marshal(FeatureCollection(s.Views(), s.Zones()))
	if err != nil {
		return eris.Wrap(err, "planner: encode geojson")
	}
	_, err = w.Write(data)
	return eris.Wrap(err, "planner: write geojson")
}

func point(p geo.Position) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(4326)
}
