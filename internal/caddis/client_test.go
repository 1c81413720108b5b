package caddis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string, maxRetries int) *Client {
	return NewClient(Config{
		BaseURL:        url,
		Username:       "user",
		Password:       "secret",
		RequestTimeout: 5 * time.Second,
		RateLimitDelay: 0, // no throttling in tests
		MaxRetries:     maxRetries,
	})
}

func TestLoginTokenLocations(t *testing.T) {
	responses := map[string]string{
		"top-level token":        `{"token":"tok-1"}`,
		"top-level access_token": `{"access_token":"tok-1"}`,
		"nested token":           `{"body":{"token":"tok-1"}}`,
		"nested access_token":    `{"body":{"access_token":"tok-1"}}`,
	}

	for name, response := range responses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(response))
		}))

		client := testClient(srv.URL, 0)
		if err := client.Login(context.Background()); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if client.token != "tok-1" {
			t.Errorf("%s: expected token 'tok-1', got %q", name, client.token)
		}
		srv.Close()
	}
}

func TestLoginSendsCredentials(t *testing.T) {
	var got loginRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/login" {
			t.Errorf("Expected path /v1/login, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode login body: %v", err)
		}
		w.Write([]byte(`{"token":"tok"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 0)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Usuario != "user" || got.Password != "secret" {
		t.Errorf("Expected credentials user/secret, got %s/%s", got.Usuario, got.Password)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(srv.URL, 0)
	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %T: %v", err, err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", authErr.Status)
	}
	if authErr.IsRetryable() {
		t.Error("Auth errors must not be retryable")
	}
}

func TestLoginMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"body":{"usuario":"user"}}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 0)
	err := client.Login(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %T: %v", err, err)
	}
}

func TestGetArticlesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/articulos" {
			t.Errorf("Expected path /v1/articulos, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("pagina"); got != "2" {
			t.Errorf("Expected pagina=2, got %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Expected bearer token header, got %q", got)
		}
		w.Write([]byte(`{"body":[
			{"sku":"A1","nombre":"Widget","tipo":"HW","marca":"Acme","grupo":"Tools","estado":"ACTIVO"},
			{"sku":12345,"nombre":"Gadget","tipo":"HW","marca":"Acme","grupo":"Tools","estado":"INACTIVO"}
		]}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 0)
	client.token = "tok"

	articles, err := client.GetArticlesPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	if articles[0].SKU != "A1" || articles[0].Name != "Widget" || articles[0].Brand != "Acme" {
		t.Errorf("First article parsed wrong: %+v", articles[0])
	}
	if articles[1].SKU != "12345" {
		t.Errorf("Expected numeric SKU normalized to '12345', got %q", articles[1].SKU)
	}
	// Status filtering is the extractor's job, not the client's.
	if articles[1].Status != "INACTIVO" {
		t.Errorf("Expected estado preserved, got %q", articles[1].Status)
	}
}

func TestGetArticlesPageEndOfData(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer notFound.Close()

	articles, err := testClient(notFound.URL, 0).GetArticlesPage(context.Background(), 99)
	if err != nil {
		t.Errorf("404 page should not be an error, got %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected empty page, got %d articles", len(articles))
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"body":[]}`))
	}))
	defer empty.Close()

	articles, err = testClient(empty.URL, 0).GetArticlesPage(context.Background(), 99)
	if err != nil {
		t.Errorf("Empty page should not be an error, got %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected empty page, got %d articles", len(articles))
	}
}

func TestGetArticlesPageRetriesExhausted(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL, 2)
	_, err := client.GetArticlesPage(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %T: %v", err, err)
	}
	if fetchErr.Endpoint != "/v1/articulos" || fetchErr.Page != 1 {
		t.Errorf("FetchError context wrong: %+v", fetchErr)
	}
	if got := atomic.LoadInt64(&calls); got != 3 { // MaxRetries + 1
		t.Errorf("Expected 3 attempts, got %d", got)
	}
	if client.GetAPICallCount() != 3 {
		t.Errorf("Expected API call count 3, got %d", client.GetAPICallCount())
	}
}

func TestGetArticlesPageRetryThenSuccess(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"body":[{"sku":"A1","nombre":"Widget"}]}`))
	}))
	defer srv.Close()

	articles, err := testClient(srv.URL, 5).GetArticlesPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected 1 article, got %d", len(articles))
	}
	if got := atomic.LoadInt64(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestGetArticlesPageUnauthorizedNotRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).GetArticlesPage(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("Expected a single attempt for 401, got %d", got)
	}
}

func TestGetPricesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/articulos/precios" {
			t.Errorf("Expected path /v1/articulos/precios, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("pagina") != "1" || q.Get("lista") != "7" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("mostrar_sin_precio") != "true" {
			t.Errorf("Expected mostrar_sin_precio=true, got %s", q.Get("mostrar_sin_precio"))
		}
		w.Write([]byte(`{"body":{"articulos":[
			{"sku":"A1","iva_tasa":0.21,"precio_unitario":100.5},
			{"sku":"A2","iva_tasa":"0.105","precio_unitario":"99.90"},
			{"sku":"A3","iva_tasa":0.21,"precio_unitario":null}
		]}}`))
	}))
	defer srv.Close()

	prices, err := testClient(srv.URL, 0).GetPricesPage(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("Expected 3 price entries, got %d", len(prices))
	}

	for i, p := range prices {
		if p.ListID != 7 {
			t.Errorf("Entry %d: expected list ID 7, got %d", i, p.ListID)
		}
	}
	if !prices[0].UnitPrice.Valid || prices[0].UnitPrice.Value != 100.5 {
		t.Errorf("Numeric price parsed wrong: %+v", prices[0].UnitPrice)
	}
	if !prices[1].UnitPrice.Valid || prices[1].UnitPrice.Value != 99.90 {
		t.Errorf("String price parsed wrong: %+v", prices[1].UnitPrice)
	}
	if !prices[1].TaxRate.Valid || prices[1].TaxRate.Value != 0.105 {
		t.Errorf("String tax rate parsed wrong: %+v", prices[1].TaxRate)
	}
	if prices[2].UnitPrice.Valid {
		t.Errorf("Null price should be invalid, got %+v", prices[2].UnitPrice)
	}
}

func TestGetPricesPageEndOfData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	prices, err := testClient(srv.URL, 0).GetPricesPage(context.Background(), 1, 42)
	if err != nil {
		t.Errorf("404 page should not be an error, got %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("Expected empty page, got %d entries", len(prices))
	}
}
