package caddis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"caddis_price_sync/internal/retry"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config carries everything the client needs to talk to the vendor API.
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
	MaxRetries     int
}

// Client talks to the Caddis REST API. It is built for a single sequential
// run: call Login once, then fetch pages. The rate limiter spaces every
// outgoing call, retries included, to honor the vendor throttle.
type Client struct {
	baseURL      string
	username     string
	password     string
	token        string
	client       *http.Client
	rateLimiter  *rate.Limiter
	retryConfig  retry.Config
	apiCallCount int64
	apiCallMutex sync.Mutex
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		// Burst 1 keeps calls strictly spaced. The vendor throttle is a
		// spacing contract, not an average rate.
		rateLimiter: rate.NewLimiter(rate.Every(cfg.RateLimitDelay), 1),
		retryConfig: retry.Config{
			MaxRetries: cfg.MaxRetries,
			Delay:      cfg.RateLimitDelay,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

type loginRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	Body        struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	} `json:"body"`
}

// Login authenticates against /v1/login and stores the bearer token used by
// all later calls. Login is never retried: any failure here aborts the run.
func (c *Client) Login(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(loginRequest{Usuario: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return &AuthError{Reason: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &AuthError{Status: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
	}

	var auth loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return &AuthError{Reason: "failed to decode login response", Err: err}
	}

	// The token has moved around between API versions; accept every known
	// location.
	token := auth.Token
	if token == "" {
		token = auth.AccessToken
	}
	if token == "" {
		token = auth.Body.Token
	}
	if token == "" {
		token = auth.Body.AccessToken
	}
	if token == "" {
		return &AuthError{Reason: "no token in login response"}
	}

	c.token = token
	log.Info().Msg("Authenticated with Caddis API")
	return nil
}

// GetArticlesPage fetches one page of the product catalog. An empty result
// means the page is past the end of the data.
func (c *Client) GetArticlesPage(ctx context.Context, page int) ([]Article, error) {
	url := fmt.Sprintf("%s/v1/articulos?pagina=%d", c.baseURL, page)

	articles, err := retry.WithRetry(ctx, c.retryConfig, func(ctx context.Context) ([]Article, error) {
		var result articlesResponse
		if err := c.getJSON(ctx, url, &result); err != nil {
			return nil, err
		}
		return result.Body, nil
	})
	if err != nil {
		return nil, &FetchError{Endpoint: "/v1/articulos", Page: page, Err: err}
	}

	return articles, nil
}

// GetPricesPage fetches one page of a price list and stamps every entry with
// the list ID. An empty result means the list has no more pages.
func (c *Client) GetPricesPage(ctx context.Context, listID, page int) ([]PriceEntry, error) {
	url := fmt.Sprintf("%s/v1/articulos/precios?pagina=%d&lista=%d&mostrar_sin_precio=true", c.baseURL, page, listID)

	prices, err := retry.WithRetry(ctx, c.retryConfig, func(ctx context.Context) ([]PriceEntry, error) {
		var result pricesResponse
		if err := c.getJSON(ctx, url, &result); err != nil {
			return nil, err
		}
		return result.Body.Articles, nil
	})
	if err != nil {
		return nil, &FetchError{Endpoint: "/v1/articulos/precios", Page: page, PriceList: listID, Err: err}
	}

	for i := range prices {
		prices[i].ListID = listID
	}
	return prices, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.IncrementAPICall()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	// The API answers 404 past the last page. That is end of data, not an
	// error: the caller sees an empty page and stops.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &apiError{status: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
