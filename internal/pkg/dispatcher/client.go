// Package dispatcher is the client side of the lookup API. It calls the
// lookup and rent-estimate endpoints and maps responses into the shapes
// callers render.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"citycost/internal/core"
	"citycost/internal/httpclient"
)

// ErrFetchFailed is returned by FetchCityCostOfLiving for any unsuccessful response.
var ErrFetchFailed = errors.New("failed to fetch cost of living data")

// Client calls a lookup API server.
type Client struct {
	rest *resty.Client
	now  func() time.Time

	httpClient *http.Client
	masterKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMasterKey sends key as a bearer token.
func WithMasterKey(key string) Option {
	return func(c *Client) {
		c.masterKey = key
	}
}

// WithClock sets the time source for RentQuote.LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httpclient.NewDefaultHTTPClient()
	}
	c.rest = resty.NewWithClient(c.httpClient).SetBaseURL(strings.TrimRight(baseURL, "/"))
	if c.masterKey != "" {
		c.rest.SetAuthToken(c.masterKey)
	}
	return c
}

// FetchCityCostOfLiving returns the cost-of-living record for a city.
// Any unsuccessful response yields an error wrapping ErrFetchFailed.
func (c *Client) FetchCityCostOfLiving(ctx context.Context, cityName, countryName string) (core.Record, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("city_name", cityName).
		SetQueryParam("country_name", countryName).
		Get("/lookup")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode())
	}
	if !core.IsObject(resp.Body()) {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrFetchFailed)
	}
	return core.Record(resp.Body()), nil
}

// FetchRentEstimate returns a rent quote for a city, or nil on any failure.
func (c *Client) FetchRentEstimate(ctx context.Context, cityName string) *RentQuote {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("city", cityName).
		Get("/rent-estimate")
	if err != nil {
		slog.DebugContext(ctx, "rent estimate request failed", "city", cityName, "error", err)
		return nil
	}
	if !resp.IsSuccess() {
		slog.DebugContext(ctx, "rent estimate unavailable", "city", cityName, "status", resp.StatusCode())
		return nil
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		slog.DebugContext(ctx, "rent estimate response is malformed", "city", cityName)
		return nil
	}

	return &RentQuote{
		MedianRent:  ParseRentFields(body).Value(),
		LastUpdated: c.now().UTC().Format(time.RFC3339),
	}
}
