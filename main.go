package main

import (
	"context"

	"caddis_price_sync/internal/app"
	"caddis_price_sync/internal/config"
	"caddis_price_sync/internal/job"
	"caddis_price_sync/internal/observability"

	"github.com/rs/zerolog/log"
)

func main() {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Debug().
		Str("api_url", cfg.CaddisAPIURL).
		Str("sheet_name", cfg.SheetName).
		Ints("price_lists", cfg.PriceLists).
		Msg("Configuration loaded")

	ctx := context.Background()
	vendor, writer := app.InitializeClients(ctx, cfg)
	metrics := observability.NewMetrics()

	if cfg.RunInterval > 0 {
		job.RunEvery(ctx, cfg, vendor, writer, metrics)
		return
	}

	if err := job.Run(ctx, cfg, vendor, writer, metrics); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}
}
