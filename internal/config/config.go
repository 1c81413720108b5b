// Package config resolves the job configuration from an optional YAML file,
// environment variable overrides, and built-in defaults, in that order.
// Credentials are accepted from the environment only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"caddis_price_sync/internal/pricelist"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config carries everything a sync run needs. It is resolved once at startup
// and never mutated afterwards.
type Config struct {
	CaddisAPIURL   string
	CaddisUsername string
	CaddisPassword string

	GoogleSheetsID  string
	SheetName       string
	CredentialsFile string

	// PriceLists holds vendor price list IDs in the order their columns
	// appear on the sheet.
	PriceLists []int

	RateLimitDelay time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	MaxPages       int

	SortRowsBySKU bool

	// RunInterval of zero means a single run; anything positive keeps the
	// job resident and re-runs it on that interval.
	RunInterval time.Duration

	// PushgatewayURL of empty string disables metrics pushing.
	PushgatewayURL string
}

// fileConfig mirrors the YAML document. Durations and intervals are plain
// seconds. There are no fields for the Caddis credentials; those come from
// the environment only.
type fileConfig struct {
	CaddisAPIURL    string  `yaml:"caddis_api_url"`
	GoogleSheetsID  string  `yaml:"google_sheets_id"`
	SheetName       string  `yaml:"sheet_name"`
	CredentialsFile string  `yaml:"credentials_file"`
	PriceLists      []int   `yaml:"price_lists"`
	RateLimitDelay  float64 `yaml:"rate_limit_delay"`
	RequestTimeout  float64 `yaml:"request_timeout"`
	MaxRetries      int     `yaml:"max_retries"`
	MaxPages        int     `yaml:"max_pages"`
	SortRowsBySKU   bool    `yaml:"sort_rows_by_sku"`
	RunInterval     float64 `yaml:"run_interval"`
	PushgatewayURL  string  `yaml:"pushgateway_url"`
}

func defaults() fileConfig {
	return fileConfig{
		SheetName:      "Caddis Data",
		PriceLists:     pricelist.DefaultOrder(),
		RateLimitDelay: 1.0,
		RequestTimeout: 60.0,
		MaxRetries:     5,
		MaxPages:       10000,
	}
}

// Load resolves the configuration. The file named by CONFIG_FILE (default
// config.yaml) is optional; a missing file just means environment variables
// and defaults.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	raw := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		log.Debug().Str("path", path).Msg("Loaded configuration file")
	case os.IsNotExist(err):
		log.Debug().Str("path", path).Msg("No configuration file, using environment and defaults")
	default:
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := applyEnv(&raw); err != nil {
		return nil, err
	}

	cfg := &Config{
		CaddisAPIURL:    raw.CaddisAPIURL,
		CaddisUsername:  os.Getenv("CADDIS_USERNAME"),
		CaddisPassword:  os.Getenv("CADDIS_PASSWORD"),
		GoogleSheetsID:  raw.GoogleSheetsID,
		SheetName:       raw.SheetName,
		CredentialsFile: raw.CredentialsFile,
		PriceLists:      raw.PriceLists,
		RateLimitDelay:  secondsToDuration(raw.RateLimitDelay),
		RequestTimeout:  secondsToDuration(raw.RequestTimeout),
		MaxRetries:      raw.MaxRetries,
		MaxPages:        raw.MaxPages,
		SortRowsBySKU:   raw.SortRowsBySKU,
		RunInterval:     secondsToDuration(raw.RunInterval),
		PushgatewayURL:  raw.PushgatewayURL,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the file values. An empty
// variable counts as unset.
func applyEnv(raw *fileConfig) error {
	if v := os.Getenv("CADDIS_API_URL"); v != "" {
		raw.CaddisAPIURL = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_ID"); v != "" {
		raw.GoogleSheetsID = v
	}
	if v := os.Getenv("SHEET_NAME"); v != "" {
		raw.SheetName = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		raw.CredentialsFile = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		raw.PushgatewayURL = v
	}

	if v := os.Getenv("PRICE_LISTS"); v != "" {
		lists, err := ParsePriceLists(v)
		if err != nil {
			return fmt.Errorf("invalid PRICE_LISTS %q: %w", v, err)
		}
		raw.PriceLists = lists
	}

	if v := os.Getenv("RATE_LIMIT_DELAY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_DELAY %q: %w", v, err)
		}
		raw.RateLimitDelay = f
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		raw.RequestTimeout = f
	}
	if v := os.Getenv("RUN_INTERVAL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RUN_INTERVAL %q: %w", v, err)
		}
		raw.RunInterval = f
	}

	if v := os.Getenv("MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_RETRIES %q: %w", v, err)
		}
		raw.MaxRetries = n
	}
	if v := os.Getenv("MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_PAGES %q: %w", v, err)
		}
		raw.MaxPages = n
	}

	if v := os.Getenv("SORT_ROWS_BY_SKU"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SORT_ROWS_BY_SKU %q: %w", v, err)
		}
		raw.SortRowsBySKU = b
	}

	return nil
}

// ParsePriceLists parses a comma separated list of price list IDs, as
// accepted by the PRICE_LISTS environment variable.
func ParsePriceLists(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	lists := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty price list entry")
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("price list %q is not a number", part)
		}
		lists = append(lists, id)
	}
	return lists, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.CaddisAPIURL == "" {
		missing = append(missing, "caddis_api_url (CADDIS_API_URL)")
	}
	if c.CaddisUsername == "" {
		missing = append(missing, "CADDIS_USERNAME")
	}
	if c.CaddisPassword == "" {
		missing = append(missing, "CADDIS_PASSWORD")
	}
	if c.GoogleSheetsID == "" {
		missing = append(missing, "google_sheets_id (GOOGLE_SHEETS_ID)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if len(c.PriceLists) == 0 {
		return fmt.Errorf("price_lists must name at least one price list")
	}
	seen := make(map[int]bool, len(c.PriceLists))
	for _, id := range c.PriceLists {
		if id < 1 {
			return fmt.Errorf("price list IDs must be positive, got %d", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate price list %d", id)
		}
		seen[id] = true
	}

	if c.RateLimitDelay < 0 {
		return fmt.Errorf("rate_limit_delay must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.RunInterval < 0 {
		return fmt.Errorf("run_interval must not be negative")
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
