package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
	if err != nil {
		srv.Close()
		t.Fatalf("Failed to create service: %v", err)
	}
	return &Client{service: service}, srv
}

func TestEnsureWorksheetFindsExisting(t *testing.T) {
	batchUpdates := 0
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/spreadsheets/sheet-1":
			w.Write([]byte(`{"sheets":[
				{"properties":{"sheetId":5,"title":"Other"}},
				{"properties":{"sheetId":42,"title":"Caddis Data"}}
			]}`))
		case "/v4/spreadsheets/sheet-1:batchUpdate":
			batchUpdates++
			w.Write([]byte(`{}`))
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer srv.Close()

	sheetID, err := client.EnsureWorksheet(context.Background(), "sheet-1", "Caddis Data", 1000, 30)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sheetID != 42 {
		t.Errorf("Expected sheet ID 42, got %d", sheetID)
	}
	if batchUpdates != 0 {
		t.Errorf("Existing worksheet must not be re-created, got %d batch updates", batchUpdates)
	}
}

func TestEnsureWorksheetCreates(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/spreadsheets/sheet-1":
			w.Write([]byte(`{"sheets":[{"properties":{"sheetId":5,"title":"Other"}}]}`))
		case "/v4/spreadsheets/sheet-1:batchUpdate":
			var req sheetsapi.BatchUpdateSpreadsheetRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("Failed to decode batch update: %v", err)
			}
			if len(req.Requests) != 1 || req.Requests[0].AddSheet == nil {
				t.Fatalf("Expected a single addSheet request, got %+v", req.Requests)
			}
			props := req.Requests[0].AddSheet.Properties
			if props.Title != "Caddis Data" {
				t.Errorf("Expected title 'Caddis Data', got %q", props.Title)
			}
			if props.GridProperties.RowCount != 1000 || props.GridProperties.ColumnCount != 30 {
				t.Errorf("Expected 1000x30 grid, got %dx%d", props.GridProperties.RowCount, props.GridProperties.ColumnCount)
			}
			w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":77,"title":"Caddis Data"}}}]}`))
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer srv.Close()

	sheetID, err := client.EnsureWorksheet(context.Background(), "sheet-1", "Caddis Data", 1000, 30)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sheetID != 77 {
		t.Errorf("Expected new sheet ID 77, got %d", sheetID)
	}
}

func TestClearRange(t *testing.T) {
	cleared := false
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/spreadsheets/sheet-1/values/Caddis Data:clear" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		cleared = true
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	if err := client.ClearRange(context.Background(), "sheet-1", "Caddis Data"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cleared {
		t.Error("Clear request never reached the API")
	}
}

func TestUpdateRangeWritesRaw(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/spreadsheets/sheet-1/values/Caddis Data!A1" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
			t.Errorf("Expected RAW input option, got %q", got)
		}

		var vr sheetsapi.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			t.Errorf("Failed to decode value range: %v", err)
		}
		if len(vr.Values) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(vr.Values))
		}
		if vr.Values[1][0] != "A1" || vr.Values[1][1] != 100.5 {
			t.Errorf("Row values wrong: %v", vr.Values[1])
		}
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	values := [][]interface{}{
		{"Código", "Minorista Ars"},
		{"A1", 100.5},
	}
	if err := client.UpdateRange(context.Background(), "sheet-1", "Caddis Data!A1", values); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestFormatColumns(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/spreadsheets/sheet-1:batchUpdate" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		var req sheetsapi.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode batch update: %v", err)
		}
		if len(req.Requests) != 2 {
			t.Fatalf("Expected 2 format requests, got %d", len(req.Requests))
		}

		sku := req.Requests[0].RepeatCell
		if sku.Range.StartColumnIndex != 0 || sku.Range.EndColumnIndex != 1 {
			t.Errorf("SKU format range wrong: %+v", sku.Range)
		}
		if sku.Cell.UserEnteredFormat.NumberFormat.Type != "TEXT" {
			t.Errorf("Expected TEXT format for SKU column, got %q", sku.Cell.UserEnteredFormat.NumberFormat.Type)
		}

		prices := req.Requests[1].RepeatCell
		if prices.Range.StartColumnIndex != 6 || prices.Range.EndColumnIndex != 30 {
			t.Errorf("Price format range wrong: %+v", prices.Range)
		}
		format := prices.Cell.UserEnteredFormat.NumberFormat
		if format.Type != "NUMBER" || format.Pattern != "#,##0.00" {
			t.Errorf("Price format wrong: %+v", format)
		}
		if prices.Fields != "userEnteredFormat.numberFormat" {
			t.Errorf("Unexpected fields mask: %q", prices.Fields)
		}
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	if err := client.FormatColumns(context.Background(), "sheet-1", 42, 6, 30); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
