//go:build e2e

package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockS3Server is a path-style S3 endpoint holding objects in memory.
type MockS3Server struct {
	server  *httptest.Server
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

// NewMockS3Server creates a new in-memory S3 endpoint.
func NewMockS3Server() *MockS3Server {
	m := &MockS3Server{objects: make(map[string][]byte)}
	m.server = httptest.NewServer(http.HandlerFunc(m.serveHTTP))
	return m
}

func (m *MockS3Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	// Path-style: /<bucket>/<key>
	key := strings.TrimPrefix(r.URL.Path, "/")

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := m.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		m.objects[key] = data
		m.puts++
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// URL returns the endpoint base URL.
func (m *MockS3Server) URL() string {
	return m.server.URL
}

// Close shuts down the server.
func (m *MockS3Server) Close() {
	m.server.Close()
}

// Object returns the stored object at bucket/key.
func (m *MockS3Server) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, ok
}

// Puts returns the number of uploads received.
func (m *MockS3Server) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
