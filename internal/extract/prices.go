package extract

import (
	"context"
	"fmt"

	"caddis_price_sync/internal/caddis"

	"github.com/rs/zerolog/log"
)

// PricesResult is the outcome of walking every configured price list.
type PricesResult struct {
	Entries           []caddis.PriceEntry
	Pages             int
	SkippedUnparsable int
}

// Prices fetches every page of every configured price list, in the
// configured list order. Entries whose price or tax rate did not parse are
// dropped with a warning. A fetch failure on any list fails the whole
// extraction; there is no partial result.
func Prices(ctx context.Context, client Client, lists []int, maxPages int) (*PricesResult, error) {
	log.Info().Ints("price_lists", lists).Msg("Starting prices extraction")

	result := &PricesResult{}
	for _, listID := range lists {
		listEntries := 0
		for page := 1; ; page++ {
			if page > maxPages {
				return nil, fmt.Errorf("price list %d pagination passed page %d: %w", listID, maxPages, ErrPageLimit)
			}

			entries, err := client.GetPricesPage(ctx, listID, page)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				log.Debug().Int("price_list", listID).Int("page", page).Msg("No more prices")
				break
			}

			for _, entry := range entries {
				if !entry.UnitPrice.Valid || !entry.TaxRate.Valid {
					log.Warn().
						Str("sku", string(entry.SKU)).
						Int("price_list", listID).
						Msg("Price or tax rate is not numeric, skipping entry")
					result.SkippedUnparsable++
					continue
				}
				result.Entries = append(result.Entries, entry)
				listEntries++
			}
			result.Pages++

			log.Debug().
				Int("price_list", listID).
				Int("page", page).
				Int("records", len(entries)).
				Msg("Extracted prices page")
		}

		log.Debug().
			Int("price_list", listID).
			Int("entries", listEntries).
			Msg("Price list extraction complete")
	}

	log.Info().
		Int("entries", len(result.Entries)).
		Int("pages", result.Pages).
		Int("skipped_unparsable", result.SkippedUnparsable).
		Msg("Prices extraction complete")

	return result, nil
}
