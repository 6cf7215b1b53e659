package zones

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ooh-planner/internal/geo"
)

// writePointShapefile writes a POINT shapefile with a NAME field.
func writePointShapefile(t *testing.T, dir string, points []shp.Point, names []string) string {
	t.Helper()
	path := filepath.Join(dir, "sucursales.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 40)}))
	for i := range points {
		p := points[i]
		n := w.Write(&p)
		require.NoError(t, w.WriteAttribute(int(n), 0, names[i]))
	}
	w.Close()

	// go-shp names the attribute table without the dot before "dbf".
	base := filepath.Join(dir, "sucursales")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	return path
}

func TestImportBoundaryFile_Points(t *testing.T) {
	path := writePointShapefile(t, t.TempDir(),
		[]shp.Point{{X: -99.1332, Y: 19.4326}, {X: -103.3496, Y: 20.6597}},
		[]string{"Zocalo", ""},
	)

	got, err := ImportBoundaryFile(path, 500, "name")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Zocalo", got[0].Label)
	assert.InDelta(t, 19.4326, got[0].Center.Lat, 1e-9)
	assert.InDelta(t, -99.1332, got[0].Center.Lng, 1e-9)
	assert.Equal(t, geo.OriginImportedBoundary, got[0].Origin)
	assert.Equal(t, 500.0, got[0].RadiusMeters)
	assert.Equal(t, "sucursales #2", got[1].Label, "blank label falls back to the file name")
}

func TestImportBoundaryFile_Zip(t *testing.T) {
	dir := t.TempDir()
	writePointShapefile(t, dir, []shp.Point{{X: -100.3098, Y: 25.6694}}, []string{"Macroplaza"})

	zipPath := filepath.Join(t.TempDir(), "sucursales.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		src, err := os.Open(filepath.Join(dir, "sucursales"+ext))
		require.NoError(t, err)
		dst, err := zw.Create("data/sucursales" + ext)
		require.NoError(t, err)
		_, err = io.Copy(dst, src)
		require.NoError(t, err)
		require.NoError(t, src.Close())
	}
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	got, err := ImportBoundaryFile(zipPath, 300, "NAME")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Macroplaza", got[0].Label)
}

func TestImportBoundaryFile_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writePointShapefile(t, dir, []shp.Point{{X: -99.1, Y: 19.4}}, []string{"a"})

	_, err := ImportBoundaryFile(path, 0, "")
	assert.Error(t, err)

	_, err = ImportBoundaryFile(path, 100, "MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")

	_, err = ImportBoundaryFile(filepath.Join(dir, "zones.kml"), 100, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestImportBoundaryFile_ProjectedCoordinatesRejected(t *testing.T) {
	path := writePointShapefile(t, t.TempDir(), []shp.Point{{X: 486000, Y: 2148000}}, []string{"utm"})

	_, err := ImportBoundaryFile(path, 100, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable shapes")
}

func TestShapeCenter(t *testing.T) {
	square := shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: -100.0, Y: 20.0},
			{X: -100.0, Y: 21.0},
			{X: -99.0, Y: 21.0},
			{X: -99.0, Y: 20.0},
			{X: -100.0, Y: 20.0},
		},
	}
	line := shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 2},
		Points: []shp.Point{
			{X: -99.2, Y: 19.3}, {X: -99.1, Y: 19.4},
			{X: -99.0, Y: 19.5}, {X: -98.9, Y: 19.6},
		},
	}
	multi := shp.MultiPoint{Points: []shp.Point{{X: 1, Y: 1}, {X: 3, Y: 5}}}

	tests := []struct {
		name  string
		shape shp.Shape
		want  geo.Position
		ok    bool
	}{
		{"point", &shp.Point{X: -99.1, Y: 19.4}, geo.Position{Lat: 19.4, Lng: -99.1}, true},
		{"polygon", &square, geo.Position{Lat: 20.5, Lng: -99.5}, true},
		{"polyline", &line, geo.Position{Lat: 19.45, Lng: -99.05}, true},
		{"multipoint", &multi, geo.Position{Lat: 3, Lng: 2}, true},
		{"null", &shp.Null{}, geo.Position{}, false},
		{"nil", nil, geo.Position{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := shapeCenter(tt.shape)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, got.Lng, 1e-9)
		})
	}
}

func TestPartEnds(t *testing.T) {
	assert.Equal(t, []int{4, 8}, partEnds([]int32{0, 2}, 4))
	assert.Equal(t, []int{6}, partEnds(nil, 3))
}
