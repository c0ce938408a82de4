// Package rapidapi provides the upstream clients for the RapidAPI-hosted
// cost-of-living and Zillow rent providers.
package rapidapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"citycost/internal/core"
	"citycost/internal/httpclient"
	"citycost/internal/observability"
)

// Config holds a single RapidAPI provider's settings.
type Config struct {
	// Name identifies the provider in errors, logs and metrics
	Name    string
	APIKey  string
	Host    string
	BaseURL string
}

// Client issues single-attempt GET requests against one RapidAPI host.
// It never retries; retries are left to the caller.
type Client struct {
	name   string
	apiKey string
	rest   *resty.Client
}

// NewClient creates a client for cfg. If httpClient is nil the shared
// default client is used.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("x-rapidapi-host", cfg.Host).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &Client{
		name:   cfg.Name,
		apiKey: strings.TrimSpace(cfg.APIKey),
		rest:   rest,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// CheckCredentials returns a configuration error when no API key is set.
func (c *Client) CheckCredentials() error {
	if c.apiKey == "" {
		return core.NewConfigurationError(fmt.Sprintf("%s API key is not configured", c.name))
	}
	return nil
}

// Get requests path with query and returns the JSON object body verbatim.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (core.Record, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("x-rapidapi-key", c.apiKey).
		SetQueryParamsFromValues(query)
	if requestID := core.GetRequestID(ctx); requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}

	start := time.Now()
	done := observability.TimeUpstreamRequest(c.name)
	resp, err := req.Get(path)
	done()

	if err != nil {
		observability.RecordUpstreamRequest(c.name, "transport_error")
		slog.WarnContext(ctx, "upstream request failed",
			"provider", c.name,
			"path", path,
			"duration", time.Since(start),
			"error", err,
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, core.NewUpstreamError(c.name, http.StatusGatewayTimeout, nil, err)
		}
		return nil, core.NewUpstreamError(c.name, http.StatusBadGateway, nil, err)
	}

	status := resp.StatusCode()
	observability.RecordUpstreamRequest(c.name, strconv.Itoa(status))
	slog.DebugContext(ctx, "upstream response",
		"provider", c.name,
		"path", path,
		"status", status,
		"duration", time.Since(start),
	)

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, core.NewUpstreamError(c.name, status, body, nil)
	}
	if !core.IsObject(body) {
		return nil, core.NewUpstreamError(c.name, http.StatusBadGateway, body,
			errors.New("response body is not a JSON object"))
	}

	return core.Record(append([]byte(nil), body...)), nil
}
