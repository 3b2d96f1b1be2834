package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/transitdesk/transitdesk/internal/transit"
)

func ptr[T any](v T) *T { return &v }

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"departure", ptr("2024-03-17T08:15:00+0100"), "08:15"},
		{"keeps own offset", ptr("2024-03-17T23:59:00-0500"), "23:59"},
		{"nil", nil, ""},
		{"empty", ptr(""), ""},
		{"rfc3339 colon offset", ptr("2024-03-17T08:15:00+01:00"), ""},
		{"garbage", ptr("soon"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transit.FormatTime(tt.in))
		})
	}
}

func TestConnection_FromDepartureRendersTime(t *testing.T) {
	c := transit.Connection{
		From: transit.Stop{Station: transit.Location{Name: "Zug"}, Departure: ptr("2024-03-17T08:15:00+0100")},
	}
	assert.Equal(t, "08:15", c.From.DepartureTime())
	assert.Equal(t, "", c.From.ArrivalTime())
}

func TestStop_Platform(t *testing.T) {
	assert.Equal(t, "Pl. -", transit.Stop{}.PlatformLabel())
	assert.False(t, transit.Stop{}.PlatformChanged())

	changed := transit.Stop{Platform: ptr("7!")}
	assert.True(t, changed.PlatformChanged())
	assert.Equal(t, "7", changed.PlatformName())
	assert.Equal(t, "Pl. 7", changed.PlatformLabel())

	planned := transit.Stop{Platform: ptr("12")}
	assert.False(t, planned.PlatformChanged())
	assert.Equal(t, "Pl. 12", planned.PlatformLabel())
}

func TestStop_DelayLabel(t *testing.T) {
	assert.Equal(t, "", transit.Stop{}.DelayLabel())
	assert.Equal(t, "", transit.Stop{Delay: ptr(0)}.DelayLabel())
	assert.Equal(t, "+4'", transit.Stop{Delay: ptr(4)}.DelayLabel())
}

func TestSection_Label(t *testing.T) {
	assert.Equal(t, "S 1", transit.Section{Journey: &transit.Journey{Name: "S 1"}}.Label())
	assert.Equal(t, "Walk 4 min", transit.Section{Walk: &transit.Walk{Duration: 270}}.Label())
	assert.Equal(t, "", transit.Section{}.Label())
	assert.False(t, transit.Section{}.IsWalk())
}

func TestConnection_DurationLabel(t *testing.T) {
	assert.Equal(t, "1h 15min", transit.Connection{Duration: "00d01:15:00"}.DurationLabel())
	assert.Equal(t, "45min", transit.Connection{Duration: "00d00:45:00"}.DurationLabel())
	assert.Equal(t, "26h 0min", transit.Connection{Duration: "01d02:00:00"}.DurationLabel())
	assert.Equal(t, "soon", transit.Connection{Duration: "soon"}.DurationLabel())
	assert.Equal(t, "", transit.Connection{}.DurationLabel())
}

func TestConnection_Transfers(t *testing.T) {
	c := transit.Connection{Sections: []transit.Section{
		{Journey: &transit.Journey{Name: "IR 75"}},
		{Walk: &transit.Walk{Duration: 300}},
		{Journey: &transit.Journey{Name: "IC 3"}},
	}}
	assert.Equal(t, 1, c.Transfers())
	assert.Equal(t, 0, transit.Connection{}.Transfers())
}

func TestTransportError(t *testing.T) {
	err := &transit.TransportError{Op: "search location", StatusCode: 503, Err: transit.ErrProviderUnavailable}
	assert.Equal(t, "search location: unexpected status code: 503", err.Error())
	assert.ErrorIs(t, err, transit.ErrProviderUnavailable)
}
