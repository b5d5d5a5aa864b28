package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/llm"
	"wayfarer/models"
)

func goa(t *testing.T) *models.Itinerary {
	t.Helper()
	var it models.Itinerary
	require.NoError(t, json.Unmarshal([]byte(llm.FixtureItinerary), &it))
	it.ItineraryID = "it_abc"
	return &it
}

func TestItineraryURL(t *testing.T) {
	assert.Equal(t, "https://trips.example/itineraries/it_abc", ItineraryURL("https://trips.example/", "it_abc"))
}

func TestPDF(t *testing.T) {
	data, err := PDF(goa(t), "https://trips.example/itineraries/it_abc")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 1000)
}

func TestICSRequiresStartDate(t *testing.T) {
	_, err := ICS(goa(t), "", time.Now())
	assert.ErrorIs(t, err, ErrNoStartDate)
}

func TestICSLaysOutActivities(t *testing.T) {
	it := goa(t)
	it.Input.StartDate = "2025-03-01"

	out, err := ICS(it, "https://trips.example/itineraries/it_abc", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 6)

	first := events[0]
	assert.Equal(t, "Anjuna Beach", first.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "20250301T090000", first.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20250301T110000", first.GetProperty(ics.ComponentPropertyDtEnd).Value)

	// Second activity starts when the first ends.
	second := events[1]
	assert.Equal(t, "20250301T110000", second.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "Fisherman's Wharf", second.GetProperty(ics.ComponentPropertyLocation).Value)

	// Day 3 starts fresh at 09:00 two days later.
	fifth := events[4]
	assert.Equal(t, "20250303T090000", fifth.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "Basilica of Bom Jesus - Old Goa", fifth.GetProperty(ics.ComponentPropertyLocation).Value)
}
