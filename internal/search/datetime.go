package search

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/transitdesk/transitdesk/internal/event"
)

// Field is one spinner of the date/time picker.
type Field int

// Picker fields.
const (
	FieldYear Field = iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
)

func (f Field) String() string {
	switch f {
	case FieldYear:
		return "year"
	case FieldMonth:
		return "month"
	case FieldDay:
		return "day"
	case FieldHour:
		return "hour"
	case FieldMinute:
		return "minute"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Range returns the inclusive bounds of the field.
func (f Field) Range() (lo, hi int) {
	switch f {
	case FieldYear:
		return 2000, 2200
	case FieldMonth:
		return 1, 12
	case FieldDay:
		return 1, 31
	case FieldHour:
		return 0, 23
	case FieldMinute:
		return 0, 59
	default:
		return 0, 0
	}
}

// Preset is a one-click shortcut for the search instant.
type Preset int

// Presets.
const (
	PresetNow Preset = iota
	PresetTonight
	PresetTomorrowMorning
	PresetTomorrowEvening
)

// Fields holds the picker spinner values.
type Fields struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

func fieldsOf(t time.Time) Fields {
	return Fields{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

func (f *Fields) get(field Field) int {
	switch field {
	case FieldYear:
		return f.Year
	case FieldMonth:
		return f.Month
	case FieldDay:
		return f.Day
	case FieldHour:
		return f.Hour
	case FieldMinute:
		return f.Minute
	}
	return 0
}

func (f *Fields) set(field Field, v int) {
	switch field {
	case FieldYear:
		f.Year = v
	case FieldMonth:
		f.Month = v
	case FieldDay:
		f.Day = v
	case FieldHour:
		f.Hour = v
	case FieldMinute:
		f.Minute = v
	}
}

// Selection is the committed state of the selector.
type Selection struct {
	Instant       *time.Time
	IsArrivalTime bool
}

type commitState int

const (
	commitIdle commitState = iota
	commitBusy
)

// SelectorConfig holds selector configuration.
type SelectorConfig struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock  func() time.Time
	Logger zerolog.Logger
}

// DateTimeSelector holds the optional search instant and the
// arrival/departure flag. The picker spinners are owned by the interactive
// goroutine; the committed selection may be read from any goroutine.
type DateTimeSelector struct {
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.RWMutex
	instant *time.Time
	arrival bool

	fields     Fields
	state      commitState
	pickerOpen bool

	changed       event.Subject[Selection]
	fieldsChanged event.Subject[Fields]
}

// NewDateTimeSelector creates a selector with no instant set ("now").
func NewDateTimeSelector(cfg SelectorConfig) *DateTimeSelector {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &DateTimeSelector{now: clock, logger: cfg.Logger}
	s.fields = fieldsOf(clock())
	return s
}

// SelectPreset sets the instant from a preset and closes the picker.
func (s *DateTimeSelector) SelectPreset(p Preset) {
	now := s.now()
	var instant *time.Time

	switch p {
	case PresetTonight:
		t := atClock(now, 0, 19)
		instant = &t
	case PresetTomorrowMorning:
		t := atClock(now, 1, 9)
		instant = &t
	case PresetTomorrowEvening:
		t := atClock(now, 1, 19)
		instant = &t
	}

	shown := now
	if instant != nil {
		shown = *instant
	}
	s.populate(fieldsOf(shown))
	s.commit(instant)
	s.pickerOpen = false
}

// OpenPicker shows the spinners, filled from the committed instant or the
// current time. Filling them does not commit.
func (s *DateTimeSelector) OpenPicker() {
	shown := s.now()
	if t := s.Instant(); t != nil {
		shown = *t
	}
	s.populate(fieldsOf(shown))
	s.pickerOpen = true
}

// ClosePicker hides the spinners.
func (s *DateTimeSelector) ClosePicker() { s.pickerOpen = false }

// PickerOpen reports whether the spinners are shown.
func (s *DateTimeSelector) PickerOpen() bool { return s.pickerOpen }

// SetField edits one spinner and commits the resulting instant.
// v is clamped to the field's range and the day to the month's length.
// It returns false when the commit was dropped because another commit was
// already running.
func (s *DateTimeSelector) SetField(field Field, v int) bool {
	lo, hi := field.Range()
	s.fields.set(field, clamp(v, lo, hi))
	s.fields.Day = clamp(s.fields.Day, 1, daysIn(s.fields.Year, time.Month(s.fields.Month)))

	if s.state == commitBusy {
		return false
	}
	t := time.Date(s.fields.Year, time.Month(s.fields.Month), s.fields.Day,
		s.fields.Hour, s.fields.Minute, 0, 0, s.now().Location())
	return s.commit(&t)
}

// Step moves a spinner by delta, wrapping around its range.
func (s *DateTimeSelector) Step(field Field, delta int) bool {
	lo, hi := field.Range()
	span := hi - lo + 1
	v := (s.fields.get(field)-lo+delta)%span + lo
	if v < lo {
		v += span
	}
	return s.SetField(field, v)
}

// Fields returns the spinner values.
func (s *DateTimeSelector) Fields() Fields { return s.fields }

// ToggleArrival flips the arrival/departure flag.
func (s *DateTimeSelector) ToggleArrival() {
	s.mu.Lock()
	s.arrival = !s.arrival
	s.mu.Unlock()
	s.changed.Emit(s.Selection())
}

// SetArrival sets the arrival/departure flag.
func (s *DateTimeSelector) SetArrival(arrival bool) {
	s.mu.Lock()
	changed := s.arrival != arrival
	s.arrival = arrival
	s.mu.Unlock()
	if changed {
		s.changed.Emit(s.Selection())
	}
}

// Instant returns the committed instant, nil meaning "now".
func (s *DateTimeSelector) Instant() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.instant == nil {
		return nil
	}
	t := *s.instant
	return &t
}

// IsArrivalTime reports whether the instant is an arrival time.
func (s *DateTimeSelector) IsArrivalTime() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arrival
}

// Selection returns the committed state.
func (s *DateTimeSelector) Selection() Selection {
	return Selection{Instant: s.Instant(), IsArrivalTime: s.IsArrivalTime()}
}

// GetDate returns the date as YYYY-MM-DD, or nil when no instant is set or
// it falls on the current day.
func (s *DateTimeSelector) GetDate() *string {
	t := s.Instant()
	if t == nil {
		return nil
	}
	now := s.now().In(t.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return nil
	}
	d := t.Format("2006-01-02")
	return &d
}

// GetTime returns the time as HH:MM, or nil when no instant is set.
func (s *DateTimeSelector) GetTime() *string {
	t := s.Instant()
	if t == nil {
		return nil
	}
	v := t.Format("15:04")
	return &v
}

// Summary is the label of the selector button.
func (s *DateTimeSelector) Summary() string {
	sel := s.Selection()
	kind := "Departure"
	if sel.IsArrivalTime {
		kind = "Arrival"
	}
	if sel.Instant == nil {
		return kind + " now"
	}
	return kind + " at " + sel.Instant.Format("2006-01-02 15:04")
}

// Reset returns to "departure now".
func (s *DateTimeSelector) Reset() {
	s.mu.Lock()
	s.instant = nil
	s.arrival = false
	s.mu.Unlock()
	s.pickerOpen = false
	s.changed.Emit(s.Selection())
}

// OnChange registers a handler for committed changes.
func (s *DateTimeSelector) OnChange(fn func(Selection)) { s.changed.Subscribe(fn) }

// OnFieldsChange registers a handler for spinner re-population.
func (s *DateTimeSelector) OnFieldsChange(fn func(Fields)) { s.fieldsChanged.Subscribe(fn) }

// commit stores instant unless a commit is already running.
func (s *DateTimeSelector) commit(instant *time.Time) bool {
	if s.state == commitBusy {
		s.logger.Debug().Msg("nested date/time commit dropped")
		return false
	}
	s.state = commitBusy
	defer func() { s.state = commitIdle }()

	s.mu.Lock()
	s.instant = instant
	s.mu.Unlock()

	s.changed.Emit(s.Selection())
	return true
}

// populate refreshes the spinners without committing.
func (s *DateTimeSelector) populate(f Fields) {
	prev := s.state
	s.state = commitBusy
	defer func() { s.state = prev }()

	s.fields = f
	s.fieldsChanged.Emit(f)
}

func atClock(now time.Time, days, hour int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, now.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
