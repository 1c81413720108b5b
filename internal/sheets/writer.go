package sheets

import (
	"context"

	"caddis_price_sync/internal/retry"

	"github.com/rs/zerolog/log"
)

const (
	defaultRowCount    = 1000
	defaultColumnCount = 30

	// Columns before the per-list price block: Código, Tipo, Artículo,
	// Grupo, Marca, IVA. Must match the table layout built by merge.
	fixedColumns = 6
)

// sheetAPI is the slice of Client the writer uses, split out so writer tests
// can fake the spreadsheet.
type sheetAPI interface {
	EnsureWorksheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (int64, error)
	ClearRange(ctx context.Context, spreadsheetID, range_ string) error
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
	FormatColumns(ctx context.Context, spreadsheetID string, sheetID, priceStart, priceEnd int64) error
}

// Writer publishes one table to one worksheet, overwriting whatever was
// there. The table is buffered in memory and written in a single bulk call;
// between the clear and that write the sheet is briefly empty.
type Writer struct {
	client        sheetAPI
	spreadsheetID string
	sheetName     string
	retryConfig   retry.Config
}

func NewWriter(client *Client, spreadsheetID, sheetName string, retryConfig retry.Config) *Writer {
	return &Writer{
		client:        client,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		retryConfig:   retryConfig,
	}
}

// Publish overwrites the worksheet with the table, creating the worksheet on
// first use. Every step retries on its own budget; a step that exhausts it
// surfaces as a WriteError. Formatting is the one exception: a formatting
// failure logs a warning and the publish still succeeds.
func (w *Writer) Publish(ctx context.Context, table [][]interface{}) error {
	rows, cols := int64(defaultRowCount), int64(defaultColumnCount)
	if n := int64(len(table)); n > rows {
		rows = n
	}
	if len(table) > 0 {
		if n := int64(len(table[0])); n > cols {
			cols = n
		}
	}

	sheetID, err := retry.WithRetry(ctx, w.retryConfig, func(ctx context.Context) (int64, error) {
		return w.client.EnsureWorksheet(ctx, w.spreadsheetID, w.sheetName, rows, cols)
	})
	if err != nil {
		return &WriteError{SpreadsheetID: w.spreadsheetID, Range: w.sheetName, Err: err}
	}

	if _, err := retry.WithRetry(ctx, w.retryConfig, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.client.ClearRange(ctx, w.spreadsheetID, w.sheetName)
	}); err != nil {
		return &WriteError{SpreadsheetID: w.spreadsheetID, Range: w.sheetName, Err: err}
	}

	if len(table) == 0 {
		log.Info().Str("sheet", w.sheetName).Msg("No data to publish, worksheet cleared")
		return nil
	}

	writeRange := w.sheetName + "!A1"
	if _, err := retry.WithRetry(ctx, w.retryConfig, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.client.UpdateRange(ctx, w.spreadsheetID, writeRange, table)
	}); err != nil {
		return &WriteError{SpreadsheetID: w.spreadsheetID, Range: writeRange, Err: err}
	}

	log.Info().
		Str("sheet", w.sheetName).
		Int("rows", len(table)).
		Msg("Published table to worksheet")

	if err := w.client.FormatColumns(ctx, w.spreadsheetID, sheetID, fixedColumns, int64(len(table[0]))); err != nil {
		log.Warn().Err(err).Msg("Could not apply column formats")
	}

	return nil
}
