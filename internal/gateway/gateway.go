// Package gateway holds the external payment-provider adapters. Each
// adapter normalizes its provider's API into the ports.Gateway capability;
// nothing provider-specific escapes this package.
package gateway

import (
	"errors"
	"net/http"
	"time"
)

// ErrMissingCredentials is returned by adapter constructors when the
// provider credentials are absent. Fatal at startup, never per-request.
var ErrMissingCredentials = errors.New("gateway credentials not configured")

const defaultHTTPTimeout = 30 * time.Second

// HTTPClient is the outbound transport, injectable for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}
