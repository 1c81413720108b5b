// Package pricelist carries the static catalog of vendor price lists. IDs
// are fixed, non-contiguous vendor identifiers; the output column order is
// whatever the configuration says, not numeric ID order.
package pricelist

import "fmt"

var columnNames = map[int]string{
	1:  "Minorista Ars",
	2:  "Dealer Ars",
	3:  "Dealer 1 Ars",
	5:  "Dealer 30d Ars",
	7:  "Nautica Dealer Usd",
	8:  "Dealer 60d Ars",
	9:  "Mino Ml Premium Ars",
	10: "Sub Distribuidor Usd",
	11: "Dealer 55mkup Ars",
	12: "Dealer 50mkup Ars",
	13: "Anterior Mino Ars",
	14: "Mixta Ars",
	15: "Grouping 70mkup Ars",
	16: "Dealer Cencosud Ars",
	17: "Nautica Dealer 1 Usd",
	18: "Nautica Dealer Ars",
	19: "Nautica Dealer 1 Ars",
	20: "Fob Standard Usd",
	21: "Dealer Golf Ars",
	22: "Gpsmundo Srl",
	23: "Dealer Meli Ars",
	24: "Dealer 5g Ars",
	25: "Fob Supplier Llc",
	33: "Dealer Diggit Ars",
}

var defaultOrder = []int{
	1, 2, 3, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 33,
}

// ColumnName returns the spreadsheet column name for a price list. Lists the
// catalog does not know yet still get a usable name.
func ColumnName(id int) string {
	if name, ok := columnNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Lista %d", id)
}

// DefaultOrder returns the built-in extraction order covering every known
// price list. Callers get their own copy.
func DefaultOrder() []int {
	return append([]int(nil), defaultOrder...)
}
