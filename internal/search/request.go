package search

import "github.com/transitdesk/transitdesk/internal/transit"

// BuildRequest assembles the search request from the form fragments.
// Station names are passed through unvalidated.
func BuildRequest(from, to string, vias []string, date, clock *string, arrival bool) transit.SearchRequest {
	req := transit.SearchRequest{
		From:          from,
		To:            to,
		Vias:          append(make([]string, 0, len(vias)), vias...),
		IsArrivalTime: arrival,
	}
	if date != nil {
		d := *date
		req.Date = &d
	}
	if clock != nil {
		t := *clock
		req.Time = &t
	}
	return req
}
