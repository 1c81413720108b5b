// Package job drives one end to end sync: authenticate against the vendor,
// extract the article catalog and the configured price lists, merge them by
// SKU, and overwrite the spreadsheet with the result.
package job

import (
	"context"
	"time"

	"caddis_price_sync/internal/caddis"
	"caddis_price_sync/internal/config"
	"caddis_price_sync/internal/extract"
	"caddis_price_sync/internal/merge"
	"caddis_price_sync/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MetricsJobName identifies this job on the Pushgateway.
const MetricsJobName = "caddis_price_sync"

// Vendor is the slice of the Caddis client a run needs.
type Vendor interface {
	Login(ctx context.Context) error
	GetArticlesPage(ctx context.Context, page int) ([]caddis.Article, error)
	GetPricesPage(ctx context.Context, listID, page int) ([]caddis.PriceEntry, error)
	GetAPICallCount() int64
	ResetAPICallCount()
}

// Publisher takes the finished table and makes it visible.
type Publisher interface {
	Publish(ctx context.Context, table [][]interface{}) error
}

// Run performs a single sync. On error the spreadsheet still carries its
// previous complete table; nothing partial is ever published.
func Run(ctx context.Context, cfg *config.Config, vendor Vendor, publisher Publisher, metrics *observability.Metrics) (err error) {
	logger := log.With().Str("run_id", uuid.New().String()).Logger()
	start := time.Now()
	vendor.ResetAPICallCount()

	defer func() {
		metrics.APICalls.Set(float64(vendor.GetAPICallCount()))
		metrics.RunDuration.Set(time.Since(start).Seconds())
		if err == nil {
			metrics.RunSuccess.Set(1)
		} else {
			metrics.RunSuccess.Set(0)
		}
		pushMetrics(cfg, metrics, logger)
	}()

	logger.Info().Msg("Starting Caddis price sync")

	if err = vendor.Login(ctx); err != nil {
		return err
	}

	articles, err := extract.Articles(ctx, vendor, cfg.MaxPages)
	if err != nil {
		return err
	}
	metrics.PagesFetched.WithLabelValues("articles").Add(float64(articles.Pages))
	metrics.RecordsFetched.WithLabelValues("articles").Add(float64(len(articles.Articles)))
	metrics.SkippedInactive.Add(float64(articles.SkippedInactive))

	prices, err := extract.Prices(ctx, vendor, cfg.PriceLists, cfg.MaxPages)
	if err != nil {
		return err
	}
	metrics.PagesFetched.WithLabelValues("prices").Add(float64(prices.Pages))
	metrics.RecordsFetched.WithLabelValues("prices").Add(float64(len(prices.Entries)))
	metrics.SkippedUnparsable.Add(float64(prices.SkippedUnparsable))

	rows, stats := merge.Merge(articles.Articles, prices.Entries)
	metrics.DuplicateArticles.Add(float64(stats.DuplicateArticles))
	metrics.DuplicatePrices.Add(float64(stats.DuplicatePrices))
	metrics.OrphanPrices.Add(float64(stats.OrphanPrices))
	metrics.BlankSKUs.Add(float64(stats.BlankSKUs))

	if cfg.SortRowsBySKU {
		merge.SortRowsBySKU(rows)
	}

	table := merge.Table(rows, cfg.PriceLists)
	if err = publisher.Publish(ctx, table); err != nil {
		return err
	}
	metrics.RowsPublished.Set(float64(len(rows)))

	logger.Info().
		Int("articles", len(articles.Articles)).
		Int("prices", len(prices.Entries)).
		Int("rows", len(rows)).
		Int64("api_calls", vendor.GetAPICallCount()).
		Dur("duration", time.Since(start)).
		Msg("Sync complete")
	return nil
}

func pushMetrics(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(cfg.PushgatewayURL, MetricsJobName); err != nil {
		logger.Warn().Err(err).Msg("Could not push metrics")
		return
	}
	logger.Debug().Msg("Pushed metrics")
}

// RunEvery runs a sync immediately and then on every interval tick until the
// context is cancelled. Failed runs are logged and the loop keeps going.
// Ticks that land while a run is still executing are dropped by the ticker,
// so runs never overlap.
func RunEvery(ctx context.Context, cfg *config.Config, vendor Vendor, publisher Publisher, metrics *observability.Metrics) {
	log.Info().Dur("interval", cfg.RunInterval).Msg("Running immediately and then on every interval")

	if err := Run(ctx, cfg, vendor, publisher, metrics); err != nil {
		log.Error().Err(err).Msg("Sync run failed")
	}

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return
		case <-ticker.C:
			if err := Run(ctx, cfg, vendor, publisher, metrics); err != nil {
				log.Error().Err(err).Msg("Sync run failed")
			}
		}
	}
}
