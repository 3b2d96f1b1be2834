package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdesk/transitdesk/internal/search"
	"github.com/transitdesk/transitdesk/internal/transit"
)

func newForm(t *testing.T, searcher *mockSearcher, opts ...func(*search.FormConfig)) *search.Form {
	t.Helper()
	cfg := search.FormConfig{
		Searcher: searcher,
		Clock:    fixedClock,
		Logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return search.NewForm(cfg)
}

func TestForm_SnapshotMinimal(t *testing.T) {
	f := newForm(t, &mockSearcher{})
	f.From().SetText("Zug")
	f.To().SetText("Chur")

	assert.Equal(t, transit.SearchRequest{
		From: "Zug",
		To:   "Chur",
		Vias: []string{},
	}, f.Snapshot())
}

func TestForm_SnapshotWithViaAndTime(t *testing.T) {
	f := newForm(t, &mockSearcher{})
	f.From().SetText("Zug")
	f.To().SetText("Chur")
	require.NoError(t, f.Vias().SetText(f.Vias().Last().ID, "Basel"))
	f.Time().SelectPreset(search.PresetTomorrowMorning)
	f.Time().ToggleArrival()

	req := f.Snapshot()

	assert.Equal(t, []string{"Basel"}, req.Vias)
	require.NotNil(t, req.Date)
	assert.Equal(t, "2024-03-18", *req.Date)
	require.NotNil(t, req.Time)
	assert.Equal(t, "09:00", *req.Time)
	assert.True(t, req.IsArrivalTime)
}

func TestForm_SubmitAppliesResultsOnTick(t *testing.T) {
	conns := []transit.Connection{{Duration: "00d00:45:00"}}
	searcher := &mockSearcher{conns: conns}
	f := newForm(t, searcher)
	f.From().SetText("Zug")
	f.To().SetText("Chur")

	var events []search.ResultEvent
	f.OnResults(func(ev search.ResultEvent) { events = append(events, ev) })

	id, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, f.InFlight())

	f.Wait()
	assert.Empty(t, f.Results(), "nothing applied before tick")

	assert.Equal(t, 1, f.Tick())
	assert.False(t, f.InFlight())
	assert.Equal(t, conns, f.Results())
	assert.NoError(t, f.Err())
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, "Zug", events[0].Request.From)
}

func TestForm_SubmitWhileInFlight(t *testing.T) {
	searcher := &mockSearcher{gate: make(chan struct{})}
	f := newForm(t, searcher)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, search.ErrSearchInFlight)

	close(searcher.gate)
	f.Wait()
	f.Tick()

	_, err = f.Submit(context.Background())
	assert.NoError(t, err)
	f.Wait()
	f.Tick()
	assert.Equal(t, 2, searcher.calls())
}

func TestForm_SearchFailureClearsResults(t *testing.T) {
	searcher := &mockSearcher{conns: []transit.Connection{{Duration: "00d00:45:00"}}}
	f := newForm(t, searcher)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	f.Wait()
	f.Tick()
	require.Len(t, f.Results(), 1)

	failure := &transit.TransportError{Op: "search connection", Err: errors.New("timeout")}
	searcher.mu.Lock()
	searcher.err = failure
	searcher.conns = nil
	searcher.mu.Unlock()

	var signals int
	f.OnResults(func(ev search.ResultEvent) {
		if ev.Err != nil {
			signals++
		}
	})

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	f.Wait()
	f.Tick()

	assert.Equal(t, 1, signals)
	assert.Empty(t, f.Results())
	var te *transit.TransportError
	assert.ErrorAs(t, f.Err(), &te)
}

func TestForm_SubmitWithoutSearcher(t *testing.T) {
	f := search.NewForm(search.FormConfig{Logger: zerolog.Nop()})

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, transit.ErrProviderUnavailable)
	assert.False(t, f.InFlight())
}

func TestForm_SelectFavorite(t *testing.T) {
	f := newForm(t, &mockSearcher{})

	assert.True(t, f.SelectFavorite("Zug"))
	assert.True(t, f.SelectFavorite("Chur"))
	assert.False(t, f.SelectFavorite("Bern"))
	assert.False(t, f.SelectFavorite(""))

	assert.Equal(t, "Zug", f.From().Text())
	assert.Equal(t, "Chur", f.To().Text())
}

func TestForm_Swap(t *testing.T) {
	f := newForm(t, &mockSearcher{})
	f.From().SetText("Zug")
	f.To().SetText("Chur")

	f.Swap()

	assert.Equal(t, "Chur", f.From().Text())
	assert.Equal(t, "Zug", f.To().Text())
}

func TestForm_AutocompleteDeliveredOnTick(t *testing.T) {
	loc := &mockLocator{results: map[string][]string{
		"Zu":  {"Zug", "Zurich HB"},
		"Bas": {"Basel SBB"},
	}}
	f := newForm(t, &mockSearcher{}, func(c *search.FormConfig) { c.Locator = loc })

	f.From().SetText("Zu")
	require.NoError(t, f.Vias().SetText(f.Vias().Last().ID, "Bas"))
	f.Wait()

	assert.Equal(t, 2, f.Tick())
	assert.Equal(t, []string{"Zug", "Zurich HB"}, f.From().Suggestions())
	via, ok := f.Vias().Entry(f.Vias().Entries()[0].ID)
	require.True(t, ok)
	assert.Equal(t, []string{"Basel SBB"}, via.Field.Suggestions())
}

func TestForm_FavoritesChangeRelayed(t *testing.T) {
	store := newFavorites(t, "Zug")
	f := newForm(t, &mockSearcher{}, func(c *search.FormConfig) { c.Favorites = store })
	f.From().SetText("Chur")

	var got [][]string
	f.OnFavoritesChange(func(names []string) { got = append(got, names) })

	f.From().ToggleFavorite()

	require.Len(t, got, 1)
	assert.Equal(t, []string{"Zug", "Chur"}, got[0])
	assert.Equal(t, []string{"Zug", "Chur"}, f.Favorites())
	assert.True(t, f.From().IsFavorite())
}

func TestForm_Clear(t *testing.T) {
	searcher := &mockSearcher{conns: []transit.Connection{{}}}
	f := newForm(t, searcher)
	f.From().SetText("Zug")
	f.To().SetText("Chur")
	_, _ = f.Vias().Insert("Basel")
	f.Time().SelectPreset(search.PresetTonight)
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	f.Wait()
	f.Tick()

	f.Clear()

	assert.Empty(t, f.From().Text())
	assert.Empty(t, f.To().Text())
	assert.Empty(t, f.Vias().GetVias())
	assert.Nil(t, f.Time().Instant())
	assert.Empty(t, f.Results())
}
