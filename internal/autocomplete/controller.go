// Package autocomplete runs location lookups off the interactive goroutine
// and hands their results back through a mailbox.
package autocomplete

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/transitdesk/transitdesk/internal/event"
)

// Locator resolves free text to candidate station names.
type Locator interface {
	SearchLocation(ctx context.Context, query string) ([]string, error)
}

// Result is one completed lookup.
type Result struct {
	Seq   uint64
	Query string
	Names []string
}

// Config holds controller configuration.
type Config struct {
	Locator Locator
	Logger  zerolog.Logger

	// NewestOnly discards results older than the last applied one.
	// When false, whichever result is delivered last wins.
	NewestOnly bool

	// Context is the parent of every lookup. Defaults to context.Background.
	Context context.Context
}

// Controller owns the suggestion list of one text field.
// Lookup, Drain and Suggestions must be called from the goroutine that
// owns the field; only the lookups themselves run elsewhere.
type Controller struct {
	locator    Locator
	logger     zerolog.Logger
	newestOnly bool
	ctx        context.Context

	wg      conc.WaitGroup
	seq     atomic.Uint64
	mailbox *event.Mailbox[Result]

	applied     uint64
	suggestions []string
	updated     event.Subject[[]string]
}

// NewController creates a controller.
func NewController(cfg Config) *Controller {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Controller{
		locator:    cfg.Locator,
		logger:     cfg.Logger,
		newestOnly: cfg.NewestOnly,
		ctx:        ctx,
		mailbox:    event.NewMailbox[Result](),
	}
}

// Lookup starts a background lookup for text and returns its sequence number.
// Each call spawns its own lookup; earlier ones are not cancelled.
func (c *Controller) Lookup(text string) uint64 {
	seq := c.seq.Add(1)
	if c.locator == nil {
		return seq
	}

	c.wg.Go(func() {
		names, err := c.locator.SearchLocation(c.ctx, text)
		if err != nil {
			c.logger.Debug().Err(err).Str("query", text).Msg("location lookup failed")
			return
		}
		c.mailbox.Post(Result{Seq: seq, Query: text, Names: names})
	})
	return seq
}

// Drain applies every delivered result in arrival order and returns how
// many replaced the suggestion list.
func (c *Controller) Drain() int {
	applied := 0
	for _, r := range c.mailbox.Drain() {
		if c.newestOnly && r.Seq < c.applied {
			c.logger.Debug().Uint64("seq", r.Seq).Str("query", r.Query).Msg("stale suggestions discarded")
			continue
		}
		c.applied = r.Seq
		c.suggestions = append([]string(nil), r.Names...)
		c.updated.Emit(c.Suggestions())
		applied++
	}
	return applied
}

// Suggestions returns a copy of the current suggestion list.
func (c *Controller) Suggestions() []string {
	return append([]string(nil), c.suggestions...)
}

// OnUpdate registers a handler for suggestion list replacements.
func (c *Controller) OnUpdate(fn func([]string)) {
	c.updated.Subscribe(fn)
}

// Ready is signalled when a lookup result is waiting to be drained.
func (c *Controller) Ready() <-chan struct{} {
	return c.mailbox.Ready()
}

// Wait blocks until every started lookup has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
