package zones

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/geo"
)

// ImportBoundaryFile reads an ESRI shapefile (.shp, or a .zip holding one)
// in WGS84 degrees and returns one zone per shape. Points become zones at the
// point; lines and polygons become zones at their bounding-box center. The
// label comes from labelField when present, otherwise "<file> #n". Shapes
// with coordinates outside lat/lng range are skipped.
func ImportBoundaryFile(path string, radiusMeters float64, labelField string) ([]geo.Zone, error) {
	if !(radiusMeters > 0) {
		return nil, eris.Wrapf(geo.ErrInvalidRadius, "zones: radius %v", radiusMeters)
	}

	shpPath := path
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
	case ".zip":
		dir, err := os.MkdirTemp("", "zones-shp-*")
		if err != nil {
			return nil, eris.Wrap(err, "zones: create extract dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		if err := extractZIP(path, dir); err != nil {
			return nil, eris.Wrap(err, "zones: extract shapefile zip")
		}
		if shpPath, err = findFileByExt(dir, ".shp"); err != nil {
			return nil, eris.Wrap(err, "zones: find .shp file")
		}
	default:
		return nil, eris.Errorf("zones: unsupported boundary file %q", filepath.Ext(path))
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrap(err, "zones: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	log := zap.L().With(zap.String("component", "zones.shapefile"), zap.String("file", filepath.Base(path)))

	labelIdx := -1
	if labelField != "" {
		if labelIdx = fieldIndex(reader, labelField); labelIdx < 0 {
			return nil, eris.Errorf("zones: field %q not found in shapefile", labelField)
		}
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var out []geo.Zone
	skipped := 0
	for reader.Next() {
		n, shape := reader.Shape()
		center, ok := shapeCenter(shape)
		if !ok {
			skipped++
			continue
		}

		label := fmt.Sprintf("%s #%d", base, n+1)
		if labelIdx >= 0 {
			if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(labelIdx), "\x00")); v != "" {
				label = v
			}
		}

		z, err := geo.NewZone(geo.OriginImportedBoundary, label, center, radiusMeters)
		if err != nil {
			log.Warn("zones: skipping shape", zap.Int("shape", n), zap.Error(err))
			skipped++
			continue
		}
		out = append(out, z)
	}

	if len(out) == 0 {
		return nil, eris.Errorf("zones: no usable shapes in %s (%d skipped)", filepath.Base(path), skipped)
	}
	log.Info("zones: boundary file imported", zap.Int("zones", len(out)), zap.Int("skipped", skipped))
	return out, nil
}

// shapeCenter returns the point of a point shape or the bounding-box center
// of any other shape.
func shapeCenter(shape shp.Shape) (geo.Position, bool) {
	switch s := shape.(type) {
	case nil, *shp.Null:
		return geo.Position{}, false
	case *shp.Point:
		return geo.Position{Lat: s.Y, Lng: s.X}, true
	case *shp.PointZ:
		return geo.Position{Lat: s.Y, Lng: s.X}, true
	case *shp.PointM:
		return geo.Position{Lat: s.Y, Lng: s.X}, true
	}

	g := shapeToGeom(shape)
	if g == nil {
		box := shape.BBox()
		return geo.Position{Lat: (box.MinY + box.MaxY) / 2, Lng: (box.MinX + box.MaxX) / 2}, true
	}
	b := g.Bounds()
	if b.IsEmpty() {
		return geo.Position{}, false
	}
	return geo.Position{
		Lat: (b.Min(1) + b.Max(1)) / 2,
		Lng: (b.Min(0) + b.Max(0)) / 2,
	}, true
}

// shapeToGeom converts line, polygon, and multipoint shapes to go-geom. It
// returns nil for other shape types.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.PolyLine:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiLineStringFlat(geom.XY, flatPoints(s.Points), partEnds(s.Parts, len(s.Points)))
	case *shp.Polygon:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewPolygonFlat(geom.XY, flatPoints(s.Points), partEnds(s.Parts, len(s.Points)))
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, flatPoints(s.Points))
	default:
		return nil
	}
}

func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// partEnds converts shapefile part start offsets to go-geom flat ends.
func partEnds(parts []int32, numPoints int) []int {
	if len(parts) == 0 {
		return []int{numPoints * 2}
	}
	ends := make([]int, len(parts))
	for i := range parts {
		end := numPoints
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		ends[i] = end * 2
	}
	return ends
}

// extractZIP extracts a ZIP archive's files (flattened) into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", destPath)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return out.Close()
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
