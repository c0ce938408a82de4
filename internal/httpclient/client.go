// Package httpclient builds the outbound HTTP client shared by the provider
// and dispatcher clients.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Timeouts bounds a single outbound request.
type Timeouts struct {
	// Request caps the whole exchange, body included (HTTP_TIMEOUT)
	Request time.Duration
	// ResponseHeader caps the wait for response headers (HTTP_RESPONSE_HEADER_TIMEOUT)
	ResponseHeader time.Duration
}

// TimeoutsFromEnv reads HTTP_TIMEOUT and HTTP_RESPONSE_HEADER_TIMEOUT.
// Values are seconds or Go durations ("10s", "1m30s"); both default to 30s.
func TimeoutsFromEnv() Timeouts {
	return Timeouts{
		Request:        getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		ResponseHeader: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
	}
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return defaultVal
}

// New returns a client honoring t with a small keep-alive pool per host.
func New(t Timeouts) *http.Client {
	return &http.Client{
		Timeout: t.Request,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: t.ResponseHeader,
			ForceAttemptHTTP2:     true,
		},
	}
}

// NewDefaultHTTPClient returns a client using TimeoutsFromEnv.
func NewDefaultHTTPClient() *http.Client {
	return New(TimeoutsFromEnv())
}
