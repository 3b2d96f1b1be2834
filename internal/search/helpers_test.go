package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/transitdesk/transitdesk/internal/favorites"
	"github.com/transitdesk/transitdesk/internal/transit"
)

// fixedNow is Sunday 2024-03-17 10:30 in Zurich time.
var fixedNow = time.Date(2024, time.March, 17, 10, 30, 0, 0, time.FixedZone("CET", 3600))

func fixedClock() time.Time { return fixedNow }

func newFavorites(t *testing.T, names ...string) *favorites.Store {
	t.Helper()
	store := favorites.NewStore(favorites.Config{
		Fs:     afero.NewMemMapFs(),
		Path:   "/data/favorites",
		Logger: zerolog.Nop(),
	})
	for _, n := range names {
		store.Add(n)
	}
	return store
}

type mockLocator struct {
	mu      sync.Mutex
	results map[string][]string
	queries []string
}

func (m *mockLocator) SearchLocation(_ context.Context, query string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	return m.results[query], nil
}

type mockSearcher struct {
	mu       sync.Mutex
	requests []transit.SearchRequest
	conns    []transit.Connection
	err      error
	gate     chan struct{}
}

func (m *mockSearcher) SearchConnection(_ context.Context, req transit.SearchRequest) ([]transit.Connection, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	gate, conns, err := m.gate, m.conns, m.err
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return conns, err
}

func (m *mockSearcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
