package transit

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTime renders a TimeLayout timestamp as "15:04" in its own offset.
// Missing or unparseable input yields an empty string.
func FormatTime(ts *string) string {
	if ts == nil {
		return ""
	}
	t, err := ParseTime(*ts)
	if err != nil {
		return ""
	}
	return t.Format("15:04")
}

// DepartureTime returns the formatted departure time of the stop.
func (s Stop) DepartureTime() string {
	return FormatTime(s.Departure)
}

// ArrivalTime returns the formatted arrival time of the stop.
func (s Stop) ArrivalTime() string {
	return FormatTime(s.Arrival)
}

// PlatformChanged reports whether the platform differs from the planned one.
func (s Stop) PlatformChanged() bool {
	return s.Platform != nil && strings.HasSuffix(*s.Platform, "!")
}

// PlatformName returns the platform without the change marker.
func (s Stop) PlatformName() string {
	if s.Platform == nil {
		return ""
	}
	return strings.TrimSuffix(*s.Platform, "!")
}

// PlatformLabel returns "Pl. <name>", or "Pl. -" when unknown.
func (s Stop) PlatformLabel() string {
	name := s.PlatformName()
	if name == "" {
		name = "-"
	}
	return "Pl. " + name
}

// DelayLabel returns "+N'" for a positive delay and "" otherwise.
func (s Stop) DelayLabel() string {
	if s.Delay == nil || *s.Delay <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d'", *s.Delay)
}

// Label describes how the section is travelled.
func (s Section) Label() string {
	if s.Journey != nil {
		return s.Journey.Name
	}
	if s.Walk != nil {
		return fmt.Sprintf("Walk %d min", s.Walk.Duration/60)
	}
	return ""
}

// IsWalk reports whether the section is a transfer on foot.
func (s Section) IsWalk() bool {
	return s.Journey == nil && s.Walk != nil
}

// DurationLabel renders the duration text ("00d01:15:00") as "1h 15min".
// Unparseable text is returned as is.
func (c Connection) DurationLabel() string {
	days, clock, ok := strings.Cut(c.Duration, "d")
	if !ok {
		return c.Duration
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return c.Duration
	}

	d, err1 := strconv.Atoi(days)
	h, err2 := strconv.Atoi(parts[0])
	m, err3 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || err3 != nil {
		return c.Duration
	}

	h += d * 24
	if h == 0 {
		return fmt.Sprintf("%dmin", m)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}

// Transfers returns the number of vehicle changes in the connection.
func (c Connection) Transfers() int {
	rides := 0
	for _, s := range c.Sections {
		if s.Journey != nil {
			rides++
		}
	}
	if rides == 0 {
		return 0
	}
	return rides - 1
}
