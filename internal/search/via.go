package search

import (
	"errors"

	"github.com/google/uuid"

	"github.com/transitdesk/transitdesk/internal/event"
)

// ErrViaNotFound is returned for an unknown via entry ID.
var ErrViaNotFound = errors.New("via entry not found")

// ErrViaNotMovable is returned when moving the trailing empty entry.
var ErrViaNotMovable = errors.New("trailing via entry cannot be moved")

// ViaEntry is one row of the via list.
type ViaEntry struct {
	ID    uuid.UUID
	Field *LocationField
}

// ViaSnapshot is the rendered state of a via entry.
type ViaSnapshot struct {
	ID         uuid.UUID
	Text       string
	IsFavorite bool
}

// FieldFactory builds the location field for a new via entry.
type FieldFactory func() *LocationField

// ViaList is the dynamic, ordered list of intermediate stops.
// After every operation exactly one entry is empty and it is the last one.
type ViaList struct {
	newField FieldFactory
	entries  []*ViaEntry
	changed  event.Subject[[]ViaSnapshot]
}

// NewViaList creates a list holding a single empty entry.
// A nil factory builds plain fields without favorites or autocomplete.
func NewViaList(factory FieldFactory) *ViaList {
	if factory == nil {
		factory = func() *LocationField { return NewLocationField("Via", nil, nil) }
	}
	l := &ViaList{newField: factory}
	l.entries = []*ViaEntry{l.newEntry("")}
	return l
}

// Entries returns a snapshot of every entry in order, trailing empty one included.
func (l *ViaList) Entries() []ViaSnapshot {
	out := make([]ViaSnapshot, len(l.entries))
	for i, e := range l.entries {
		out[i] = ViaSnapshot{ID: e.ID, Text: e.Field.Text(), IsFavorite: e.Field.IsFavorite()}
	}
	return out
}

// Len returns the number of entries, trailing empty one included.
func (l *ViaList) Len() int { return len(l.entries) }

// Entry returns the entry with id.
func (l *ViaList) Entry(id uuid.UUID) (*ViaEntry, bool) {
	i := l.index(id)
	if i < 0 {
		return nil, false
	}
	return l.entries[i], true
}

// Last returns the trailing empty entry.
func (l *ViaList) Last() *ViaEntry { return l.entries[len(l.entries)-1] }

// SetText edits the entry with id.
func (l *ViaList) SetText(id uuid.UUID, text string) error {
	e, ok := l.Entry(id)
	if !ok {
		return ErrViaNotFound
	}
	e.Field.SetText(text)
	return nil
}

// Clear runs the clear action of the entry with id.
func (l *ViaList) Clear(id uuid.UUID) error {
	e, ok := l.Entry(id)
	if !ok {
		return ErrViaNotFound
	}
	e.Field.Clear()
	return nil
}

// ToggleFavorite toggles the favorite star of the entry with id.
func (l *ViaList) ToggleFavorite(id uuid.UUID) error {
	e, ok := l.Entry(id)
	if !ok {
		return ErrViaNotFound
	}
	e.Field.ToggleFavorite()
	return nil
}

// Insert adds a pre-filled entry directly before the trailing empty one.
// Empty text is ignored.
func (l *ViaList) Insert(text string) (uuid.UUID, bool) {
	if text == "" {
		return uuid.Nil, false
	}
	e := l.newEntry(text)
	l.entries = append(l.entries, e)
	if n := len(l.entries); n > 1 {
		l.entries[n-1], l.entries[n-2] = l.entries[n-2], l.entries[n-1]
	}
	l.notify()
	return e.ID, true
}

// Move repositions a filled entry. index is clamped so the entry never
// passes the trailing empty one.
func (l *ViaList) Move(id uuid.UUID, index int) error {
	from := l.index(id)
	if from < 0 {
		return ErrViaNotFound
	}
	if from == len(l.entries)-1 {
		return ErrViaNotMovable
	}

	maxIndex := len(l.entries) - 2
	if index < 0 {
		index = 0
	}
	if index > maxIndex {
		index = maxIndex
	}
	if index == from {
		return nil
	}

	e := l.entries[from]
	l.entries = append(l.entries[:from], l.entries[from+1:]...)
	l.entries = append(l.entries[:index], append([]*ViaEntry{e}, l.entries[index:]...)...)
	l.notify()
	return nil
}

// GetVias returns the text of every non-empty entry in order.
func (l *ViaList) GetVias() []string {
	vias := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if t := e.Field.Text(); t != "" {
			vias = append(vias, t)
		}
	}
	return vias
}

// Reset drops every entry and starts over with a single empty one.
func (l *ViaList) Reset() {
	l.entries = []*ViaEntry{l.newEntry("")}
	l.notify()
}

// OnChange registers a handler for structural changes (entries added,
// removed or reordered).
func (l *ViaList) OnChange(fn func([]ViaSnapshot)) { l.changed.Subscribe(fn) }

func (l *ViaList) newEntry(text string) *ViaEntry {
	e := &ViaEntry{ID: uuid.New(), Field: l.newField()}
	e.Field.text = text
	e.Field.OnChange(func(c TextChange) { l.onTextChanged(e.ID, c) })
	e.Field.OnClear(func() { l.onCleared(e.ID) })
	return e
}

func (l *ViaList) onTextChanged(id uuid.UUID, c TextChange) {
	i := l.index(id)
	if i < 0 {
		return
	}
	last := i == len(l.entries)-1

	switch {
	case last && c.Old == "" && c.New != "":
		l.entries = append(l.entries, l.newEntry(""))
		l.notify()
	case !last && c.New == "":
		l.remove(i)
	}
}

func (l *ViaList) onCleared(id uuid.UUID) {
	i := l.index(id)
	if i < 0 || len(l.entries) == 1 {
		return
	}
	// the trailing slot is already empty and would be re-added
	if i == len(l.entries)-1 {
		return
	}
	l.remove(i)
}

func (l *ViaList) remove(i int) {
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.normalize()
	l.notify()
}

// normalize restores the single trailing empty entry, reusing an existing
// empty one when there is one.
func (l *ViaList) normalize() {
	entries := make([]*ViaEntry, 0, len(l.entries)+1)
	var empty *ViaEntry
	for _, e := range l.entries {
		if e.Field.Text() == "" {
			empty = e
			continue
		}
		entries = append(entries, e)
	}
	if empty == nil {
		empty = l.newEntry("")
	}
	l.entries = append(entries, empty)
}

func (l *ViaList) notify() { l.changed.Emit(l.Entries()) }

func (l *ViaList) index(id uuid.UUID) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
