// Package merge joins the catalog and the price lists into the unified rows
// that become the spreadsheet.
package merge

import (
	"sort"

	"caddis_price_sync/internal/caddis"

	"github.com/rs/zerolog/log"
)

// Cell is one price list's contribution to a row.
type Cell struct {
	UnitPrice float64
	TaxRate   float64
}

// Row is one product with whatever price cells its SKU collected, keyed by
// price-list ID.
type Row struct {
	SKU    caddis.SKU
	Type   string
	Name   string
	Group  string
	Brand  string
	Prices map[int]Cell
}

// Stats counts the anomalies the join resolved. None of them abort a run;
// they exist for logs and metrics.
type Stats struct {
	DuplicateArticles int // same SKU seen again in the catalog, first kept
	DuplicatePrices   int // same (SKU, list) seen again, last kept
	OrphanPrices      int // price entries whose SKU is not in the catalog
	BlankSKUs         int // records dropped for having no SKU at all
}

// Merge joins articles and price entries by SKU. Row order follows article
// order: row i is the i-th distinct SKU of the catalog. A SKU repeating in
// the catalog keeps its first occurrence; a (SKU, list) pair repeating in
// the price data keeps the last entry. Prices whose SKU never appeared in
// the catalog are dropped.
func Merge(articles []caddis.Article, prices []caddis.PriceEntry) ([]Row, Stats) {
	var stats Stats

	rows := make([]Row, 0, len(articles))
	index := make(map[caddis.SKU]int, len(articles))

	for _, article := range articles {
		if article.SKU == "" {
			stats.BlankSKUs++
			continue
		}
		if _, seen := index[article.SKU]; seen {
			stats.DuplicateArticles++
			log.Warn().
				Str("sku", string(article.SKU)).
				Msg("Duplicate SKU in catalog, keeping first occurrence")
			continue
		}
		index[article.SKU] = len(rows)
		rows = append(rows, Row{
			SKU:    article.SKU,
			Type:   article.Type,
			Name:   article.Name,
			Group:  article.Group,
			Brand:  article.Brand,
			Prices: make(map[int]Cell),
		})
	}

	for _, entry := range prices {
		if entry.SKU == "" {
			stats.BlankSKUs++
			continue
		}
		i, ok := index[entry.SKU]
		if !ok {
			stats.OrphanPrices++
			continue
		}
		if _, seen := rows[i].Prices[entry.ListID]; seen {
			stats.DuplicatePrices++
			log.Debug().
				Str("sku", string(entry.SKU)).
				Int("price_list", entry.ListID).
				Msg("Duplicate price entry, keeping the later one")
		}
		rows[i].Prices[entry.ListID] = Cell{
			UnitPrice: entry.UnitPrice.Value,
			TaxRate:   entry.TaxRate.Value,
		}
	}

	log.Info().
		Int("rows", len(rows)).
		Int("duplicate_articles", stats.DuplicateArticles).
		Int("duplicate_prices", stats.DuplicatePrices).
		Int("orphan_prices", stats.OrphanPrices).
		Int("blank_skus", stats.BlankSKUs).
		Msg("Merged articles and prices")

	return rows, stats
}

// SortRowsBySKU orders rows lexically by SKU. Fetch order is the default;
// this is for sheets whose consumers expect the old sorted layout.
func SortRowsBySKU(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SKU < rows[j].SKU
	})
}
