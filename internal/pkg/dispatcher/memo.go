package dispatcher

import (
	"context"
	"sync"

	"citycost/internal/core"
)

// Memo remembers successful cost-of-living results for the life of a session.
// Failures are not remembered.
type Memo struct {
	client *Client

	mu      sync.RWMutex
	entries map[string]core.Record
}

// NewMemo wraps client with a session memo.
func NewMemo(client *Client) *Memo {
	return &Memo{
		client:  client,
		entries: make(map[string]core.Record),
	}
}

// FetchCityCostOfLiving returns the memoized record or fetches it.
func (m *Memo) FetchCityCostOfLiving(ctx context.Context, cityName, countryName string) (core.Record, error) {
	key := core.CityIdentity{CityName: cityName, CountryName: countryName}.Key()

	m.mu.RLock()
	rec, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return rec, nil
	}

	rec, err := m.client.FetchCityCostOfLiving(ctx, cityName, countryName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = rec
	m.mu.Unlock()
	return rec, nil
}

// Len returns the number of memoized cities.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
