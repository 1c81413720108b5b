package app

import (
	"context"
	"os"
	"strings"
	"time"

	"caddis_price_sync/internal/caddis"
	"caddis_price_sync/internal/config"
	"caddis_price_sync/internal/retry"
	"caddis_price_sync/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// Sheet write retries are independent of the Caddis paging knobs.
var sheetWriteRetry = retry.Config{
	MaxRetries: 3,
	Delay:      2 * time.Second,
	Timeout:    15 * time.Second,
}

// InitializeClients creates the Caddis API client and the Google Sheets writer.
func InitializeClients(ctx context.Context, cfg *config.Config) (*caddis.Client, *sheets.Writer) {
	log.Debug().Msg("Initializing clients")

	caddisClient := caddis.NewClient(caddis.Config{
		BaseURL:        cfg.CaddisAPIURL,
		Username:       cfg.CaddisUsername,
		Password:       cfg.CaddisPassword,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitDelay: cfg.RateLimitDelay,
		MaxRetries:     cfg.MaxRetries,
	})

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}
	writer := sheets.NewWriter(sheetsClient, cfg.GoogleSheetsID, cfg.SheetName, sheetWriteRetry)

	log.Debug().Msg("Clients initialized successfully")
	return caddisClient, writer
}
