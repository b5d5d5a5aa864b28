package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCoerced(t *testing.T, doc string) *Itinerary {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	CoerceItineraryJSON(raw)
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	var it Itinerary
	require.NoError(t, json.Unmarshal(data, &it))
	return &it
}

func TestCoerceActivityFields(t *testing.T) {
	tests := []struct {
		name  string
		act   string
		check func(t *testing.T, a Activity)
	}{
		{"fractional duration rounds", `{"title": "A", "durationMins": 120.5, "category": "food"}`, func(t *testing.T, a Activity) {
			assert.Equal(t, 121, a.DurationMins)
		}},
		{"numeric string duration", `{"title": "A", "durationMins": " 45 ", "category": "food"}`, func(t *testing.T, a Activity) {
			assert.Equal(t, 45, a.DurationMins)
		}},
		{"string cost", `{"title": "A", "durationMins": 30, "category": "food", "cost": "500"}`, func(t *testing.T, a Activity) {
			require.NotNil(t, a.Cost)
			assert.Equal(t, 500.0, *a.Cost)
		}},
		{"unparseable cost dropped", `{"title": "A", "durationMins": 30, "category": "food", "cost": "free"}`, func(t *testing.T, a Activity) {
			assert.Nil(t, a.Cost)
		}},
		{"numeric title becomes text", `{"title": 42, "durationMins": 30, "category": "food"}`, func(t *testing.T, a Activity) {
			assert.Equal(t, "42", a.Title)
		}},
		{"string boolean", `{"title": "A", "durationMins": 30, "category": "food", "bookingRequired": "false"}`, func(t *testing.T, a Activity) {
			require.NotNil(t, a.BookingRequired)
			assert.False(t, *a.BookingRequired)
		}},
		{"scalar snapshot dropped", `{"title": "A", "durationMins": 30, "category": "food", "poiSnapshot": "Baga"}`, func(t *testing.T, a Activity) {
			assert.Nil(t, a.PoiSnapshot)
		}},
		{"huge duration dropped", `{"title": "A", "durationMins": 1e30, "category": "food"}`, func(t *testing.T, a Activity) {
			assert.Zero(t, a.DurationMins)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := decodeCoerced(t, `{"title": "T", "days": [{"dayIndex": "1", "activities": [`+tt.act+`]}]}`)
			require.Len(t, it.Days, 1)
			assert.Equal(t, 1, it.Days[0].DayIndex)
			require.Len(t, it.Days[0].Activities, 1)
			tt.check(t, it.Days[0].Activities[0])
		})
	}
}

func TestCoerceDropsMisshapenContainers(t *testing.T) {
	it := decodeCoerced(t, `{"title": "T", "meta": "x", "input": {"sliders": {"food": "80", "nature": "lots"}},
	  "days": [7, {"dayIndex": 2, "activities": "none"}]}`)
	assert.Nil(t, it.Meta)
	assert.Equal(t, map[string]float64{"food": 80}, it.Input.Sliders)
	require.Len(t, it.Days, 1)
	assert.Equal(t, 2, it.Days[0].DayIndex)
	assert.Nil(t, it.Days[0].Activities)

	it = decodeCoerced(t, `{"title": "T", "days": {"dayIndex": 1}}`)
	assert.Nil(t, it.Days)
}
