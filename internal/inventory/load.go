package inventory

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/internal/textnorm"
)

// column aliases, matched against textnorm.Key of each header cell.
var columnAliases = map[string][]string{
	"id":        {"id", "id_inventario", "inventario_id"},
	"code":      {"codigo", "code", "codigo_unico", "clave"},
	"lat":       {"latitud", "lat", "latitude"},
	"lng":       {"longitud", "lng", "lon", "longitude"},
	"face":      {"cara", "tipo_de_cara", "face"},
	"plaza":     {"plaza", "ciudad"},
	"municipio": {"municipio", "alcaldia"},
	"location":  {"ubicacion", "location", "direccion"},
	"type":      {"tipo", "tipo_de_mueble", "mueble"},
	"reserved":  {"reservado", "reserved", "apartado"},
}

// LoadOptions configures LoadFile.
type LoadOptions struct {
	Charset   string // CSV input charset, e.g. "windows-1252"; empty means UTF-8
	Delimiter rune   // CSV delimiter; 0 means ','
	Sheet     string // XLSX sheet name; empty means the first sheet
}

// LoadFile reads an inventory sheet (.csv or .xlsx) whose first row is a header.
func LoadFile(ctx context.Context, path string, opts LoadOptions) ([]Item, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		rows, err = readCSVFile(ctx, path, opts)
	case ".xlsx":
		rows, err = readXLSXFile(path, opts.Sheet)
	default:
		return nil, eris.Errorf("inventory: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("inventory: %s is empty", path)
	}
	return FromRows(rows[0], rows[1:])
}

func readCSVFile(ctx context.Context, path string, opts LoadOptions) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: open csv")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(ctx, f, opts)
}

// ReadCSV reads every record from r, decoding opts.Charset when set.
func ReadCSV(ctx context.Context, r io.Reader, opts LoadOptions) ([][]string, error) {
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "inventory: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "inventory: read csv row")
		}
		rows = append(rows, record)
	}
}

func readXLSXFile(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: open xlsx")
	}

	var sheet *xlsx.Sheet
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("inventory: sheet %q not found", sheetName)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.New("inventory: workbook has no sheets")
		}
		sheet = f.Sheets[0]
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// FromRows maps a header row and data rows to items. Either an id or a code
// column is required; when only code is present it doubles as the id. Rows
// without an id are skipped. Blank or unparseable coordinates leave the item
// without a position.
func FromRows(header []string, rows [][]string) ([]Item, error) {
	cols := resolveColumns(header)
	_, hasID := cols["id"]
	_, hasCode := cols["code"]
	if !hasID && !hasCode {
		return nil, eris.New("inventory: header needs an id or codigo column")
	}

	log := zap.L().With(zap.String("component", "inventory.load"))

	items := make([]Item, 0, len(rows))
	var skipped, unpositioned int
	for n, row := range rows {
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		it := Item{
			ID:                get("id"),
			Code:              get("code"),
			Face:              ParseFace(get("face")),
			ReservedElsewhere: parseBool(get("reserved")),
			Plaza:             get("plaza"),
			Municipality:      get("municipio"),
			Location:          get("location"),
			Type:              get("type"),
		}
		if it.ID == "" {
			it.ID = it.Code
		}
		if it.ID == "" {
			skipped++
			log.Debug("skipping row without id", zap.Int("row", n+2))
			continue
		}

		if p, ok := parsePosition(get("lat"), get("lng")); ok {
			it.Position = &p
		} else {
			unpositioned++
		}
		items = append(items, it)
	}

	log.Debug("inventory rows mapped",
		zap.Int("items", len(items)),
		zap.Int("skipped", skipped),
		zap.Int("without_position", unpositioned),
	)
	return items, nil
}

func resolveColumns(header []string) map[string]int {
	byKey := make(map[string]int, len(header))
	for i, h := range header {
		k := textnorm.Key(h)
		if _, dup := byKey[k]; !dup {
			byKey[k] = i
		}
	}
	cols := make(map[string]int)
	for name, aliases := range columnAliases {
		for _, a := range aliases {
			if idx, ok := byKey[a]; ok {
				cols[name] = idx
				break
			}
		}
	}
	return cols
}

func parsePosition(lat, lng string) (geo.Position, bool) {
	la, err := parseCoord(lat)
	if err != nil {
		return geo.Position{}, false
	}
	ln, err := parseCoord(lng)
	if err != nil {
		return geo.Position{}, false
	}
	p := geo.Position{Lat: la, Lng: ln}
	if !p.Valid() || (la == 0 && ln == 0) {
		return geo.Position{}, false
	}
	return p, true
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, eris.New("empty coordinate")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) bool {
	switch textnorm.Fold(s) {
	case "1", "si", "s", "true", "yes", "y", "x", "reservado":
		return true
	}
	return false
}
