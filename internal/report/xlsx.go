package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
)

const (
	sheetName   = "Reporte"
	moneyFormat = "#,##0.00"
)

var columnTitles = []string{
	"Código", "Plaza", "Municipio", "Ubicación", "Tipo", "Cara", "Catorcena",
	"Unidades", "Tarifa", "Descuento %", "Neto",
}

// WriteXLSX writes res as one sheet: a header, then per group a title row,
// its member rows, and a subtotal row, and finally a grand total.
func WriteXLSX(w io.Writer, res Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for _, title := range columnTitles {
		c := header.AddCell()
		c.SetString(title)
		c.SetStyle(bold)
	}

	for _, g := range res.Groups {
		title := sheet.AddRow().AddCell()
		title.SetString(g.Key)
		title.SetStyle(bold)

		for _, r := range g.Rows {
			writeRow(sheet.AddRow(), r)
		}
		writeTotals(sheet.AddRow(), "Subtotal", g.Totals(), bold)
	}
	writeTotals(sheet.AddRow(), "Total", res.Total(), bold)

	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func writeRow(row *xlsx.Row, r Row) {
	for _, v := range []string{
		r.Code, r.Plaza, r.Municipality, r.Location, r.Type, string(r.Face), Catorcena.Value(r),
	} {
		row.AddCell().SetString(v)
	}
	row.AddCell().SetInt(r.Units)
	setMoney(row.AddCell(), r.Rate)
	setMoney(row.AddCell(), r.Discount)
	setMoney(row.AddCell(), r.Net())
}

func writeTotals(row *xlsx.Row, label string, t Totals, style *xlsx.Style) {
	c := row.AddCell()
	c.SetString(label)
	c.SetStyle(style)
	// Pad to the Unidades column.
	for i := 1; i < 7; i++ {
		row.AddCell()
	}
	row.AddCell().SetInt(t.Units)
	row.AddCell()
	row.AddCell()
	setMoney(row.AddCell(), t.Net)
}

func setMoney(c *xlsx.Cell, d decimal.Decimal) {
	c.SetFloatWithFormat(d.InexactFloat64(), moneyFormat)
}
