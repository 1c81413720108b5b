package caddis

import (
	"fmt"
	"net/http"
)

// AuthError is a failed login or a rejected credential. It is never
// retried.
type AuthError struct {
	Status int // HTTP status when the API answered, zero otherwise
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "authentication failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.Status)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) IsRetryable() bool { return false }

// FetchError is a page fetch that failed for good, retry budget included.
// PriceList is zero for the catalog endpoint.
type FetchError struct {
	Endpoint  string
	Page      int
	PriceList int
	Err       error
}

func (e *FetchError) Error() string {
	if e.PriceList != 0 {
		return fmt.Sprintf("fetching %s page %d for price list %d: %v", e.Endpoint, e.Page, e.PriceList, e.Err)
	}
	return fmt.Sprintf("fetching %s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// apiError is a non-2xx vendor response. 401 and 403 are not retried;
// everything else, 429 and 5xx included, is treated as transient.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.status, e.body)
}

func (e *apiError) IsRetryable() bool {
	return e.status != http.StatusUnauthorized && e.status != http.StatusForbidden
}
