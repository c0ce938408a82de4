//go:build e2e

package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// MockRapidAPIServer simulates the cost-of-living and Zillow RapidAPI hosts.
type MockRapidAPIServer struct {
	server       *httptest.Server
	mu           sync.Mutex
	requests     []RecordedRequest
	failNext     bool
	failWithCode int
	failMessage  string
}

// RecordedRequest stores information about a received request.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
}

// NewMockRapidAPIServer creates a new mock provider server.
func NewMockRapidAPIServer() *MockRapidAPIServer {
	m := &MockRapidAPIServer{}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.Query(),
			Headers: r.Header.Clone(),
		})

		if m.failNext {
			m.failNext = false
			code, msg := m.failWithCode, m.failMessage
			m.mu.Unlock()
			w.WriteHeader(code)
			_, _ = fmt.Fprintf(w, `{"message": %q}`, msg)
			return
		}
		m.mu.Unlock()

		m.handleRequest(w, r)
	}))

	return m
}

func (m *MockRapidAPIServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-rapidapi-key") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "You are not subscribed to this API."}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()
	switch r.URL.Path {
	case "/prices":
		if q.Get("lat") != "" {
			_, _ = fmt.Fprintf(w, `{"city_name":"Austin","lat":%s,"lon":%s,"prices":[]}`, q.Get("lat"), q.Get("lon"))
			return
		}
		_, _ = fmt.Fprintf(w, `{"city_name":%q,"country_name":%q,"prices":[{"item_name":"One bedroom apartment in city centre","avg":1850.5}]}`,
			q.Get("city_name"), q.Get("country_name"))
	case "/rentEstimate":
		_, _ = w.Write([]byte(`{"lowRent":1400,"highRent":2100,"median":1750}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Endpoint does not exist"}`))
	}
}

// URL returns the mock server base URL.
func (m *MockRapidAPIServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRapidAPIServer) Close() {
	m.server.Close()
}

// FailNext makes the next request fail with the given status.
func (m *MockRapidAPIServer) FailNext(code int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
	m.failWithCode = code
	m.failMessage = message
}

// Requests returns the requests received so far.
func (m *MockRapidAPIServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// CountPath returns how many requests hit path.
func (m *MockRapidAPIServer) CountPath(path string) int {
	n := 0
	for _, r := range m.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}
