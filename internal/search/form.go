package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/transitdesk/transitdesk/internal/autocomplete"
	"github.com/transitdesk/transitdesk/internal/event"
	"github.com/transitdesk/transitdesk/internal/favorites"
	"github.com/transitdesk/transitdesk/internal/telemetry"
	"github.com/transitdesk/transitdesk/internal/transit"
)

// ErrSearchInFlight is returned by Submit while a search is outstanding.
var ErrSearchInFlight = errors.New("search already in flight")

// Searcher runs connection searches.
type Searcher interface {
	SearchConnection(ctx context.Context, req transit.SearchRequest) ([]transit.Connection, error)
}

// ResultEvent reports the outcome of one submission.
type ResultEvent struct {
	ID          uuid.UUID
	Request     transit.SearchRequest
	Connections []transit.Connection
	Err         error
	Duration    time.Duration
}

// FormConfig holds form configuration.
type FormConfig struct {
	Searcher  Searcher
	Locator   autocomplete.Locator
	Favorites Favorites
	Clock     func() time.Time
	Logger    zerolog.Logger
	Metrics   *telemetry.Metrics

	// NewestOnly makes every autocomplete field discard stale lookups.
	NewestOnly bool
}

// Form is the search-form controller. It is the single owner of the
// location fields, the via list, the date/time selector and the result list.
// It is not safe for concurrent use; drive it from one goroutine and call
// Tick to apply background results.
type Form struct {
	searcher   Searcher
	locator    autocomplete.Locator
	favorites  Favorites
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
	newestOnly bool

	from *LocationField
	to   *LocationField
	vias *ViaList
	when *DateTimeSelector

	wg        conc.WaitGroup
	inFlight  bool
	mailbox   *event.Mailbox[ResultEvent]
	results   []transit.Connection
	lastError error

	resultsChanged   event.Subject[ResultEvent]
	favoritesChanged event.Subject[[]string]
}

// NewForm creates an empty form.
func NewForm(cfg FormConfig) *Form {
	f := &Form{
		searcher:   cfg.Searcher,
		locator:    cfg.Locator,
		favorites:  cfg.Favorites,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		newestOnly: cfg.NewestOnly,
		mailbox:    event.NewMailbox[ResultEvent](),
	}

	f.from = f.newField("From")
	f.to = f.newField("To")
	f.vias = NewViaList(func() *LocationField { return f.newField("Via") })
	f.when = NewDateTimeSelector(SelectorConfig{Clock: cfg.Clock, Logger: cfg.Logger})

	if f.favorites != nil {
		f.favorites.Subscribe(func(c favorites.Change) {
			f.favoritesChanged.Emit(c.Favorites)
		})
	}
	return f
}

func (f *Form) newField(caption string) *LocationField {
	var completer *autocomplete.Controller
	if f.locator != nil {
		completer = autocomplete.NewController(autocomplete.Config{
			Locator:    f.locator,
			Logger:     f.logger.With().Str("field", caption).Logger(),
			NewestOnly: f.newestOnly,
		})
	}
	return NewLocationField(caption, f.favorites, completer)
}

// From returns the departure field.
func (f *Form) From() *LocationField { return f.from }

// To returns the destination field.
func (f *Form) To() *LocationField { return f.to }

// Vias returns the via list.
func (f *Form) Vias() *ViaList { return f.vias }

// Time returns the date/time selector.
func (f *Form) Time() *DateTimeSelector { return f.when }

// Favorites returns the saved favorites, or nil without a store.
func (f *Form) Favorites() []string {
	if f.favorites == nil {
		return nil
	}
	return f.favorites.Get()
}

// SelectFavorite fills From when it is empty, otherwise To when it is empty.
// It reports whether a field was filled.
func (f *Form) SelectFavorite(name string) bool {
	switch {
	case name == "":
		return false
	case f.from.Text() == "":
		f.from.SetText(name)
	case f.to.Text() == "":
		f.to.SetText(name)
	default:
		return false
	}
	return true
}

// Swap exchanges From and To.
func (f *Form) Swap() {
	from, to := f.from.Text(), f.to.Text()
	f.from.SetText(to)
	f.to.SetText(from)
}

// Snapshot builds the request for the current form state.
func (f *Form) Snapshot() transit.SearchRequest {
	return BuildRequest(
		f.from.Text(),
		f.to.Text(),
		f.vias.GetVias(),
		f.when.GetDate(),
		f.when.GetTime(),
		f.when.IsArrivalTime(),
	)
}

// Submit starts a search for the current form state. Only one search may
// be outstanding; further submissions return ErrSearchInFlight.
func (f *Form) Submit(ctx context.Context) (uuid.UUID, error) {
	if f.inFlight {
		f.metrics.RecordDroppedSubmit(ctx)
		f.logger.Debug().Msg("submit ignored, search in flight")
		return uuid.Nil, ErrSearchInFlight
	}
	if f.searcher == nil {
		return uuid.Nil, transit.ErrProviderUnavailable
	}

	id := uuid.New()
	req := f.Snapshot()
	f.inFlight = true

	f.logger.Info().
		Str("search_id", id.String()).
		Str("from", req.From).
		Str("to", req.To).
		Strs("vias", req.Vias).
		Bool("arrival", req.IsArrivalTime).
		Msg("search submitted")

	f.wg.Go(func() {
		start := time.Now()
		conns, err := f.searcher.SearchConnection(ctx, req)
		f.mailbox.Post(ResultEvent{
			ID:          id,
			Request:     req,
			Connections: conns,
			Err:         err,
			Duration:    time.Since(start),
		})
	})
	return id, nil
}

// InFlight reports whether a search is outstanding.
func (f *Form) InFlight() bool { return f.inFlight }

// Tick applies everything delivered by background work since the last
// call: autocomplete suggestions for every field and the search result.
// It returns the number of messages applied.
func (f *Form) Tick() int {
	n := f.from.drain() + f.to.drain()
	for _, e := range f.vias.entries {
		n += e.Field.drain()
	}

	for _, ev := range f.mailbox.Drain() {
		f.inFlight = false
		if ev.Err != nil {
			f.results = nil
			f.lastError = ev.Err
			f.logger.Warn().Err(ev.Err).Str("search_id", ev.ID.String()).Msg("search failed")
		} else {
			f.results = ev.Connections
			f.lastError = nil
			f.logger.Info().
				Str("search_id", ev.ID.String()).
				Int("connections", len(ev.Connections)).
				Dur("duration", ev.Duration).
				Msg("search completed")
		}
		f.resultsChanged.Emit(ev)
		n++
	}
	return n
}

// Ready is signalled when a search result is waiting for Tick.
func (f *Form) Ready() <-chan struct{} { return f.mailbox.Ready() }

// Wait blocks until the outstanding search and every autocomplete lookup
// started so far have finished. Results still need a Tick to be applied.
func (f *Form) Wait() {
	f.wg.Wait()
	f.from.wait()
	f.to.wait()
	for _, e := range f.vias.entries {
		e.Field.wait()
	}
}

// Results returns the connections of the last successful search.
func (f *Form) Results() []transit.Connection { return f.results }

// Err returns the error of the last search, nil after a success.
func (f *Form) Err() error { return f.lastError }

// OnResults registers a handler for completed searches, failed ones included.
func (f *Form) OnResults(fn func(ResultEvent)) { f.resultsChanged.Subscribe(fn) }

// OnFavoritesChange registers a handler for favorites store changes.
func (f *Form) OnFavoritesChange(fn func([]string)) { f.favoritesChanged.Subscribe(fn) }

// Clear resets every input and the result list.
func (f *Form) Clear() {
	f.from.SetText("")
	f.to.SetText("")
	f.vias.Reset()
	f.when.Reset()
	f.results = nil
	f.lastError = nil
}
