// Package search holds the state of the journey search form: the location
// fields, the via list, the date/time selector and the submission gate.
// Everything here is owned by a single interactive goroutine; background
// work reports back through mailboxes drained by Form.Tick.
package search

import (
	"github.com/transitdesk/transitdesk/internal/autocomplete"
	"github.com/transitdesk/transitdesk/internal/event"
	"github.com/transitdesk/transitdesk/internal/favorites"
)

// Favorites is the part of the favorites store the form depends on.
type Favorites interface {
	Get() []string
	Contains(name string) bool
	Add(name string)
	Remove(name string)
	Subscribe(fn func(favorites.Change))
}

// TextChange describes an edit of a location field.
type TextChange struct {
	Old string
	New string
}

// LocationField is one location input with autocomplete and a favorite star.
type LocationField struct {
	caption   string
	text      string
	favorites Favorites
	completer *autocomplete.Controller

	changed event.Subject[TextChange]
	cleared event.Subject[struct{}]
}

// NewLocationField creates a field. favorites and completer may be nil.
func NewLocationField(caption string, favs Favorites, completer *autocomplete.Controller) *LocationField {
	return &LocationField{
		caption:   caption,
		favorites: favs,
		completer: completer,
	}
}

// Caption returns the field's label, e.g. "From".
func (f *LocationField) Caption() string { return f.caption }

// Text returns the current text.
func (f *LocationField) Text() string { return f.text }

// SetText replaces the text, starts a lookup for it and notifies listeners.
func (f *LocationField) SetText(text string) {
	old := f.text
	f.text = text
	if f.completer != nil && text != "" {
		f.completer.Lookup(text)
	}
	f.changed.Emit(TextChange{Old: old, New: text})
}

// Clear empties the field and emits the cleared signal.
func (f *LocationField) Clear() {
	f.SetText("")
	f.cleared.Emit(struct{}{})
}

// IsFavorite reports whether the current text is a saved favorite.
func (f *LocationField) IsFavorite() bool {
	if f.favorites == nil || f.text == "" {
		return false
	}
	return f.favorites.Contains(f.text)
}

// ToggleFavorite adds or removes the current text from the favorites.
// It does nothing for an empty field.
func (f *LocationField) ToggleFavorite() {
	if f.favorites == nil || f.text == "" {
		return
	}
	if f.favorites.Contains(f.text) {
		f.favorites.Remove(f.text)
		return
	}
	f.favorites.Add(f.text)
}

// Suggestions returns the autocomplete candidates for the field.
func (f *LocationField) Suggestions() []string {
	if f.completer == nil {
		return nil
	}
	return f.completer.Suggestions()
}

// OnChange registers a handler for text edits.
func (f *LocationField) OnChange(fn func(TextChange)) { f.changed.Subscribe(fn) }

// OnClear registers a handler for the clear action.
func (f *LocationField) OnClear(fn func()) {
	if fn == nil {
		return
	}
	f.cleared.Subscribe(func(struct{}) { fn() })
}

func (f *LocationField) drain() int {
	if f.completer == nil {
		return 0
	}
	return f.completer.Drain()
}

func (f *LocationField) wait() {
	if f.completer != nil {
		f.completer.Wait()
	}
}
