package geo

import "math"

// degreesPerKM converts kilometers to latitude degrees. It is slightly larger
// than 1/111 so zone envelopes always over-cover their circle.
const degreesPerKM = 1.0 / 110.0

// maxCellsPerZone bounds how many cells a single zone may be bucketed into;
// larger zones are kept in the always-checked list.
const maxCellsPerZone = 1024

type cellKey struct {
	row, col int
}

// zoneGrid buckets zones by the lat/lng cells their envelope overlaps. It
// only narrows the candidate list; containment is always decided by haversine.
type zoneGrid struct {
	cellDeg float64
	cells   map[cellKey][]int
	always  []int
	zones   []Zone
}

func newZoneGrid(zones []Zone) *zoneGrid {
	maxRadius := 0.0
	for _, z := range zones {
		if z.usable() && z.RadiusMeters > maxRadius {
			maxRadius = z.RadiusMeters
		}
	}
	cellDeg := math.Max(maxRadius/1000*degreesPerKM, 0.001)

	g := &zoneGrid{
		cellDeg: cellDeg,
		cells:   make(map[cellKey][]int),
		zones:   zones,
	}
	for i, z := range zones {
		g.insert(i, z)
	}
	return g
}

func (g *zoneGrid) insert(idx int, z Zone) {
	if !z.usable() {
		return
	}
	dLat := z.RadiusMeters / 1000 * degreesPerKM
	maxAbsLat := math.Abs(z.Center.Lat) + dLat
	if maxAbsLat >= 89 {
		g.always = append(g.always, idx)
		return
	}
	dLng := dLat / math.Cos(maxAbsLat*math.Pi/180)
	minLng, maxLng := z.Center.Lng-dLng, z.Center.Lng+dLng
	if minLng < -180 || maxLng > 180 {
		g.always = append(g.always, idx)
		return
	}

	lo := g.key(Position{Lat: z.Center.Lat - dLat, Lng: minLng})
	hi := g.key(Position{Lat: z.Center.Lat + dLat, Lng: maxLng})
	if (hi.row-lo.row+1)*(hi.col-lo.col+1) > maxCellsPerZone {
		g.always = append(g.always, idx)
		return
	}
	for r := lo.row; r <= hi.row; r++ {
		for c := lo.col; c <= hi.col; c++ {
			k := cellKey{row: r, col: c}
			g.cells[k] = append(g.cells[k], idx)
		}
	}
}

func (g *zoneGrid) key(p Position) cellKey {
	return cellKey{
		row: int(math.Floor(p.Lat / g.cellDeg)),
		col: int(math.Floor(p.Lng / g.cellDeg)),
	}
}

// within reports whether p falls inside any indexed zone.
func (g *zoneGrid) within(p Position) bool {
	for _, idx := range g.always {
		if g.zones[idx].Contains(p) {
			return true
		}
	}
	for _, idx := range g.cells[g.key(p)] {
		if g.zones[idx].Contains(p) {
			return true
		}
	}
	return false
}
