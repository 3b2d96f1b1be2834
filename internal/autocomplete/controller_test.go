package autocomplete_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdesk/transitdesk/internal/autocomplete"
)

type mockLocator struct {
	mu      sync.Mutex
	results map[string][]string
	err     error
	calls   []string
	gates   map[string]chan struct{}
}

func newMockLocator() *mockLocator {
	return &mockLocator{
		results: map[string][]string{},
		gates:   map[string]chan struct{}{},
	}
}

// hold makes lookups for query block until the returned func is called.
func (m *mockLocator) hold(query string) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[query] = ch
	m.mu.Unlock()
	return func() { close(ch) }
}

func (m *mockLocator) SearchLocation(_ context.Context, query string) ([]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	gate := m.gates[query]
	names, err := m.results[query], m.err
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return names, err
}

func (m *mockLocator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestController_LookupThenDrain(t *testing.T) {
	loc := newMockLocator()
	loc.results["Bas"] = []string{"Basel SBB", "Basel Bad Bf"}
	c := autocomplete.NewController(autocomplete.Config{Locator: loc, Logger: zerolog.Nop()})

	var updates [][]string
	c.OnUpdate(func(names []string) { updates = append(updates, names) })

	c.Lookup("Bas")
	assert.Empty(t, c.Suggestions(), "nothing applied before drain")

	c.Wait()
	assert.Equal(t, 1, c.Drain())
	assert.Equal(t, []string{"Basel SBB", "Basel Bad Bf"}, c.Suggestions())
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"Basel SBB", "Basel Bad Bf"}, updates[0])

	assert.Equal(t, 0, c.Drain(), "mailbox is empty after drain")
}

func TestController_EachLookupSpawnsItsOwnRequest(t *testing.T) {
	loc := newMockLocator()
	c := autocomplete.NewController(autocomplete.Config{Locator: loc, Logger: zerolog.Nop()})

	c.Lookup("B")
	c.Lookup("Ba")
	c.Lookup("Bas")
	c.Wait()

	assert.Equal(t, 3, loc.callCount())
}

func TestController_FailureLeavesSuggestionsUntouched(t *testing.T) {
	loc := newMockLocator()
	loc.results["Zug"] = []string{"Zug"}
	c := autocomplete.NewController(autocomplete.Config{Locator: loc, Logger: zerolog.Nop()})

	c.Lookup("Zug")
	c.Wait()
	c.Drain()

	loc.mu.Lock()
	loc.err = errors.New("network down")
	loc.mu.Unlock()

	c.Lookup("Zugg")
	c.Wait()
	assert.Equal(t, 0, c.Drain())
	assert.Equal(t, []string{"Zug"}, c.Suggestions())
}

func TestController_EmptyResultClearsSuggestions(t *testing.T) {
	loc := newMockLocator()
	loc.results["Zug"] = []string{"Zug"}
	c := autocomplete.NewController(autocomplete.Config{Locator: loc, Logger: zerolog.Nop()})

	c.Lookup("Zug")
	c.Wait()
	c.Drain()

	c.Lookup("xyzzy")
	c.Wait()
	assert.Equal(t, 1, c.Drain())
	assert.Empty(t, c.Suggestions())
}

func TestController_LastDeliveredWinsByDefault(t *testing.T) {
	loc := newMockLocator()
	loc.results["B"] = []string{"Bern"}
	loc.results["Bas"] = []string{"Basel SBB"}
	release := loc.hold("B")
	c := autocomplete.NewController(autocomplete.Config{Locator: loc, Logger: zerolog.Nop()})

	c.Lookup("B")
	c.Lookup("Bas")

	// let the newer lookup land first, then the slow older one
	require.Eventually(t, func() bool { return loc.callCount() == 2 }, testTimeout, testTick)
	for c.Drain() == 0 {
		<-c.Ready()
	}
	assert.Equal(t, []string{"Basel SBB"}, c.Suggestions())

	release()
	c.Wait()
	assert.Equal(t, 1, c.Drain())
	assert.Equal(t, []string{"Bern"}, c.Suggestions(), "stale result overwrites")
}

func TestController_NewestOnlyDiscardsStaleResults(t *testing.T) {
	loc := newMockLocator()
	loc.results["B"] = []string{"Bern"}
	loc.results["Bas"] = []string{"Basel SBB"}
	release := loc.hold("B")
	c := autocomplete.NewController(autocomplete.Config{
		Locator:    loc,
		Logger:     zerolog.Nop(),
		NewestOnly: true,
	})

	c.Lookup("B")
	c.Lookup("Bas")

	require.Eventually(t, func() bool { return loc.callCount() == 2 }, testTimeout, testTick)
	for c.Drain() == 0 {
		<-c.Ready()
	}

	release()
	c.Wait()
	assert.Equal(t, 0, c.Drain())
	assert.Equal(t, []string{"Basel SBB"}, c.Suggestions())
}

func TestController_WithoutLocator(t *testing.T) {
	c := autocomplete.NewController(autocomplete.Config{Logger: zerolog.Nop()})

	assert.Equal(t, uint64(1), c.Lookup("Zug"))
	assert.Equal(t, uint64(2), c.Lookup("Zu"))
	c.Wait()
	assert.Equal(t, 0, c.Drain())
}
