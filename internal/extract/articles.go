// Package extract walks the vendor's paginated endpoints and collects the
// raw record sets for one run. Page 1 is fetched, then page 2, and so on
// until the first empty page. A fetch failure anywhere kills the whole
// extraction; partial data never leaves this package.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caddis_price_sync/internal/caddis"

	"github.com/rs/zerolog/log"
)

// Client is the slice of the vendor API the extractors need.
type Client interface {
	GetArticlesPage(ctx context.Context, page int) ([]caddis.Article, error)
	GetPricesPage(ctx context.Context, listID, page int) ([]caddis.PriceEntry, error)
}

// ErrPageLimit fires when pagination passes the configured safety cap. A
// healthy endpoint ends with an empty page long before the cap; hitting it
// means the endpoint is misbehaving, not that the catalog grew.
var ErrPageLimit = errors.New("page limit exceeded")

// ArticlesResult is the outcome of a full catalog walk.
type ArticlesResult struct {
	Articles        []caddis.Article
	Pages           int
	SkippedInactive int
}

// Articles fetches every catalog page and drops records flagged INACTIVO.
// The surviving articles keep their page-fetch order.
func Articles(ctx context.Context, client Client, maxPages int) (*ArticlesResult, error) {
	log.Info().Msg("Starting articles extraction")

	result := &ArticlesResult{}
	for page := 1; ; page++ {
		if page > maxPages {
			return nil, fmt.Errorf("articles pagination passed page %d: %w", maxPages, ErrPageLimit)
		}

		articles, err := client.GetArticlesPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(articles) == 0 {
			log.Debug().Int("page", page).Msg("No more articles")
			break
		}

		kept := 0
		for _, article := range articles {
			if strings.EqualFold(article.Status, "INACTIVO") {
				result.SkippedInactive++
				continue
			}
			result.Articles = append(result.Articles, article)
			kept++
		}
		result.Pages++

		log.Debug().
			Int("page", page).
			Int("records", len(articles)).
			Int("kept", kept).
			Msg("Extracted articles page")
	}

	log.Info().
		Int("articles", len(result.Articles)).
		Int("pages", result.Pages).
		Int("skipped_inactive", result.SkippedInactive).
		Msg("Articles extraction complete")

	return result, nil
}
