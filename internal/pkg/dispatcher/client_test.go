package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, WithHTTPClient(server.Client()), WithClock(func() time.Time { return fixedNow }))
}

func TestFetchCityCostOfLiving(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup", r.URL.Path)
		assert.Equal(t, "Austin", r.URL.Query().Get("city_name"))
		assert.Equal(t, "United States", r.URL.Query().Get("country_name"))
		_, _ = w.Write([]byte(`{"cost":1}`))
	})

	rec, err := client.FetchCityCostOfLiving(context.Background(), "Austin", "United States")

	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":1}`, string(rec))
}

func TestFetchCityCostOfLiving_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"cost-of-living request failed"}`))
	})

	_, err := client.FetchCityCostOfLiving(context.Background(), "Austin", "United States")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "failed to fetch cost of living data")
}

func TestFetchCityCostOfLiving_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := New(baseURL).FetchCityCostOfLiving(context.Background(), "Austin", "USA")

	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchRentEstimate(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected *RentQuote
	}{
		{
			name:     "price fallback",
			status:   http.StatusOK,
			body:     `{"price":1500}`,
			expected: &RentQuote{MedianRent: 1500, LastUpdated: "2024-05-01T12:00:00Z"},
		},
		{
			name:     "no known field defaults to zero",
			status:   http.StatusOK,
			body:     `{}`,
			expected: &RentQuote{MedianRent: 0, LastUpdated: "2024-05-01T12:00:00Z"},
		},
		{
			name:   "non-success status",
			status: http.StatusInternalServerError,
			body:   `{"error":"zillow request failed"}`,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"price":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rent-estimate", r.URL.Path)
				assert.Equal(t, "Austin", r.URL.Query().Get("city"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			assert.Equal(t, tt.expected, client.FetchRentEstimate(context.Background(), "Austin"))
		})
	}
}

func TestFetchRentEstimate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	assert.Nil(t, New(baseURL).FetchRentEstimate(context.Background(), "Austin"))
}

func TestWithMasterKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	_, err := New(server.URL, WithHTTPClient(server.Client()), WithMasterKey("secret")).
		FetchCityCostOfLiving(context.Background(), "Austin", "USA")
	require.NoError(t, err)
}

func TestWithMasterKey_AnyOptionOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"price":1500}`))
	}))
	t.Cleanup(server.Close)

	clients := map[string]*Client{
		"key first":    New(server.URL, WithMasterKey("secret"), WithHTTPClient(server.Client())),
		"client first": New(server.URL, WithHTTPClient(server.Client()), WithMasterKey("secret")),
	}
	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			_, err := client.FetchCityCostOfLiving(context.Background(), "Austin", "USA")
			require.NoError(t, err)
			assert.NotNil(t, client.FetchRentEstimate(context.Background(), "Austin"))
		})
	}
}

func TestMemo(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("city_name") == "Nowhere" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"cost":1}`))
	})
	memo := NewMemo(client)
	ctx := context.Background()

	_, err := memo.FetchCityCostOfLiving(ctx, "Austin", "USA")
	require.NoError(t, err)
	_, err = memo.FetchCityCostOfLiving(ctx, " austin", "usa ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, memo.Len())

	_, err = memo.FetchCityCostOfLiving(ctx, "Nowhere", "USA")
	assert.ErrorIs(t, err, ErrFetchFailed)
	_, _ = memo.FetchCityCostOfLiving(ctx, "Nowhere", "USA")
	assert.Equal(t, int32(3), hits.Load(), "failures are not memoized")
	assert.Equal(t, 1, memo.Len())
}
