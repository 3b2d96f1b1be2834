package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdesk/transitdesk/internal/provider/resilience"
	"github.com/transitdesk/transitdesk/internal/search"
	"github.com/transitdesk/transitdesk/internal/transit"
)

func str(s string) *string { return &s }

func TestRenderConnections(t *testing.T) {
	delay := 3
	conns := []transit.Connection{{
		From:     transit.Stop{Station: transit.Location{Name: "Zug"}, Departure: str("2024-03-17T08:15:00+0100"), Delay: &delay},
		To:       transit.Stop{Station: transit.Location{Name: "Chur"}, Arrival: str("2024-03-17T09:49:00+0100")},
		Duration: "00d01:34:00",
		Sections: []transit.Section{{
			Departure: transit.Stop{Station: transit.Location{Name: "Zug"}, Departure: str("2024-03-17T08:15:00+0100"), Platform: str("3!")},
			Arrival:   transit.Stop{Station: transit.Location{Name: "Chur"}, Arrival: str("2024-03-17T09:49:00+0100"), Platform: str("10")},
			Journey:   &transit.Journey{Name: "IC 3"},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, renderConnections(&buf, conns))

	out := buf.String()
	assert.Contains(t, out, "08:15+3'")
	assert.Contains(t, out, "09:49")
	assert.Contains(t, out, "1h 34min, 0 transfers")
	assert.Contains(t, out, "Zug (Pl. 3!) → Chur (Pl. 10)")
	assert.Contains(t, out, "IC 3")
}

func TestRenderConnections_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderConnections(&buf, nil))
	assert.Equal(t, "No connections found.\n", buf.String())
}

func TestRenderHealth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderHealth(&buf, []resilience.Health{{Name: "opendata"}}))
	assert.Contains(t, buf.String(), "opendata")
	assert.Contains(t, buf.String(), "closed")
}

func TestApplyTime(t *testing.T) {
	sel := search.NewDateTimeSelector(search.SelectorConfig{})

	require.NoError(t, applyTime(sel, "", "2031-02-28", "07:05"))
	require.NotNil(t, sel.GetDate())
	assert.Equal(t, "2031-02-28", *sel.GetDate())
	assert.Equal(t, "07:05", *sel.GetTime())
}

func TestApplyTime_Errors(t *testing.T) {
	sel := search.NewDateTimeSelector(search.SelectorConfig{})

	assert.Error(t, applyTime(sel, "later", "", ""))
	assert.Error(t, applyTime(sel, "", "17.03.2024", ""))
	assert.Error(t, applyTime(sel, "", "", "7pm"))
}
