package transit

import (
	"errors"
	"fmt"
	"time"
)

// Transit errors.
var (
	ErrProviderUnavailable = errors.New("transit provider unavailable")
)

// TransportError wraps any network or decoding failure of a provider call.
type TransportError struct {
	// Op names the failed operation, e.g. "search location".
	Op string

	// StatusCode is the HTTP status when the server answered, 0 otherwise.
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeLayout is the fixed-offset timestamp format used by result stops.
const TimeLayout = "2006-01-02T15:04:05-0700"

// Location is a station as returned by a location search.
type Location struct {
	Name string `json:"name"`
}

// Stop is a station with optional timing information.
type Stop struct {
	Station Location `json:"station"`

	// Arrival and Departure are TimeLayout timestamps.
	Arrival   *string `json:"arrival"`
	Departure *string `json:"departure"`

	// Delay is the announced delay in minutes.
	Delay *int `json:"delay"`

	// Platform is the platform name; a trailing "!" marks a platform change.
	Platform *string `json:"platform"`
}

// Journey is a scheduled vehicle run.
type Journey struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Number   string `json:"number"`
	Operator string `json:"operator"`

	// To is the final destination of the run.
	To string `json:"to"`

	// PassList lists the stops served by the run, in order.
	PassList []Stop `json:"passList"`
}

// Walk is a transfer on foot.
type Walk struct {
	// Duration in seconds.
	Duration int `json:"duration"`
}

// Section is one leg of a connection. Exactly one of Journey and Walk is
// meaningful; both may be nil when the provider omits them.
type Section struct {
	Departure Stop     `json:"departure"`
	Arrival   Stop     `json:"arrival"`
	Journey   *Journey `json:"journey"`
	Walk      *Walk    `json:"walk"`
}

// Connection is one itinerary returned by a connection search.
type Connection struct {
	From Stop `json:"from"`
	To   Stop `json:"to"`

	// Duration is the provider's duration text, e.g. "00d01:15:00".
	Duration string `json:"duration"`

	// Sections are ordered chronologically.
	Sections []Section `json:"sections"`
}

// SearchRequest is an immutable connection query taken at submit time.
type SearchRequest struct {
	// From and To are raw user text; station resolution is left to the provider.
	From string
	To   string

	// Vias holds the non-empty via texts in user order.
	Vias []string

	// Date is "2006-01-02", nil for today.
	Date *string

	// Time is "15:04", nil for now.
	Time *string

	IsArrivalTime bool
}

// ParseTime parses a TimeLayout timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
