package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/transitdesk/transitdesk/internal/provider/resilience"
	"github.com/transitdesk/transitdesk/internal/transit"
)

func renderConnections(w io.Writer, conns []transit.Connection) error {
	if len(conns) == 0 {
		_, err := fmt.Fprintln(w, "No connections found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range conns {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s, %d transfers\n",
			c.From.DepartureTime()+c.From.DelayLabel(),
			c.To.ArrivalTime()+c.To.DelayLabel(),
			c.From.Station.Name+" → "+c.To.Station.Name,
			c.DurationLabel(),
			c.Transfers(),
		)
		for _, s := range c.Sections {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				s.Departure.DepartureTime(),
				s.Arrival.ArrivalTime(),
				sectionRoute(s),
				s.Label(),
			)
		}
	}
	return tw.Flush()
}

func sectionRoute(s transit.Section) string {
	var b strings.Builder
	b.WriteString(s.Departure.Station.Name)
	if !s.IsWalk() {
		b.WriteString(" (" + platform(s.Departure) + ")")
	}
	b.WriteString(" → ")
	b.WriteString(s.Arrival.Station.Name)
	if !s.IsWalk() {
		b.WriteString(" (" + platform(s.Arrival) + ")")
	}
	return b.String()
}

func platform(s transit.Stop) string {
	label := s.PlatformLabel()
	if s.PlatformChanged() {
		label += "!"
	}
	return label
}

func renderHealth(w io.Writer, health []resilience.Health) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLIENT\tSTATE\tREQUESTS\tFAILURES\tLAST ERROR")
	for _, h := range health {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			h.Name, h.State, h.Counts.Requests, h.Counts.TotalFailures, h.LastError)
	}
	return tw.Flush()
}
