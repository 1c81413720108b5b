package merge

import (
	"fmt"
	"math"
	"strings"

	"caddis_price_sync/internal/pricelist"
)

// Fixed columns that precede the per-list price columns.
var baseHeader = []string{"Código", "Tipo", "Artículo", "Grupo", "Marca", "IVA"}

// Table renders rows into the spreadsheet payload: a header row, then one
// row per product. Price columns follow listOrder, which is the configured
// sequence, not numeric ID order. Missing prices render as empty strings,
// never zero: a blank cell means "no price", a zero would mean "free".
func Table(rows []Row, listOrder []int) [][]interface{} {
	header := make([]interface{}, 0, len(baseHeader)+len(listOrder))
	for _, h := range baseHeader {
		header = append(header, h)
	}
	for _, listID := range listOrder {
		header = append(header, pricelist.ColumnName(listID))
	}

	table := make([][]interface{}, 0, len(rows)+1)
	table = append(table, header)

	for _, row := range rows {
		cells := make([]interface{}, 0, len(header))
		cells = append(cells,
			string(row.SKU),
			row.Type,
			row.Name,
			row.Group,
			row.Brand,
			ivaDisplay(row, listOrder),
		)
		for _, listID := range listOrder {
			if cell, ok := row.Prices[listID]; ok {
				cells = append(cells, round2(cell.UnitPrice))
			} else {
				cells = append(cells, "")
			}
		}
		table = append(table, cells)
	}

	return table
}

// ivaDisplay formats the tax rate of the first configured price list as a
// percentage with a comma decimal, 0.105 rendering as "10,5". The rate is
// uniform across lists for a SKU, so one column covers them all. Rows
// without that list's entry get an empty cell.
func ivaDisplay(row Row, listOrder []int) string {
	if len(listOrder) == 0 {
		return ""
	}
	cell, ok := row.Prices[listOrder[0]]
	if !ok {
		return ""
	}
	percent := fmt.Sprintf("%.1f", cell.TaxRate*100)
	return strings.ReplaceAll(percent, ".", ",")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
