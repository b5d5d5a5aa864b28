package smartadjust

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/errs"
	"wayfarer/llm"
	"wayfarer/models"
	"wayfarer/prompts"
)

var fixedNow = time.Date(2025, 3, 2, 18, 30, 0, 0, time.UTC)

func goaItinerary(t *testing.T) *models.Itinerary {
	t.Helper()
	var it models.Itinerary
	require.NoError(t, json.Unmarshal([]byte(llm.FixtureItinerary), &it))
	it.ItineraryID = "it_0123456789"
	return &it
}

// withoutMarket is the fixture plan with the night market dropped.
func withoutMarket(t *testing.T) string {
	t.Helper()
	it := goaItinerary(t)
	it.ItineraryID = ""
	day := &it.Days[1]
	day.Activities = day.Activities[:1]
	data, err := json.Marshal(it)
	require.NoError(t, err)
	return string(data)
}

func newAgent(model *llm.Fixture) *Agent {
	return NewAgent(Deps{Generator: model, Now: func() time.Time { return fixedNow }})
}

func TestAdjustAppliesModelOutput(t *testing.T) {
	model := llm.NewFixture()
	model.Content = withoutMarket(t)
	current := goaItinerary(t)

	res, err := newAgent(model).Adjust(context.Background(), current, "skip the night market on day 2")
	require.NoError(t, err)
	require.True(t, res.Adjusted)

	assert.Equal(t, 5, res.Itinerary.ActivityCount())
	assert.Equal(t, "it_0123456789", res.Itinerary.ItineraryID)
	assert.Equal(t, AdjustedBy, res.Itinerary.Meta["adjustedBy"])
	assert.Equal(t, "2025-03-02T18:30:00Z", res.Itinerary.Meta["adjustedAt"])
	assert.Equal(t, 6, current.ActivityCount(), "input is not mutated")

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, prompts.SmartAdjustAgent(), calls[0].SystemInstruction)
	assert.Equal(t, llm.AdjustConfig().Temperature, calls[0].Config.Temperature)
	assert.False(t, calls[0].Config.UseSearch)
	assert.Contains(t, calls[0].UserMessage, `"title": "Saturday Night Market"`)
	assert.Contains(t, calls[0].UserMessage, "User adjustment request: skip the night market on day 2")
}

func TestAdjustKeepsOriginalOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		failWith string
	}{
		{name: "model error", failWith: "deadline exceeded"},
		{name: "prose only", content: "Sure! I removed the market for you."},
		{name: "no days", content: `{"title": "Goa", "estimatedCost": 100}`},
		{name: "bad shape", content: `{"title": "Goa", "days": {"1": []}}`},
		{name: "broken json", content: `{"title": "Goa", "days": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := llm.NewFixture()
			model.Content = tt.content
			model.FailWith = tt.failWith
			current := goaItinerary(t)
			before, err := current.Clone()
			require.NoError(t, err)

			res, err := newAgent(model).Adjust(context.Background(), current, "make day 2 more relaxed")
			require.NoError(t, err)
			assert.False(t, res.Adjusted)
			assert.NotEmpty(t, res.Reason)
			assert.Equal(t, before, res.Itinerary)
		})
	}
}

func TestAdjustRejectsBadRequests(t *testing.T) {
	model := llm.NewFixture()
	agent := newAgent(model)
	for _, text := range []string{"", "   ", "meh", strings.Repeat("x", 501)} {
		_, err := agent.Adjust(context.Background(), goaItinerary(t), text)
		require.Error(t, err, "request %q", text)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	}

	_, err := agent.Adjust(context.Background(), nil, "add a cooking class")
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Empty(t, model.Calls())
}

func TestParseCoercesMistypedNumbers(t *testing.T) {
	it, err := Parse(`{"title": "Goa", "input": {"destination": "Goa", "numDays": "3", "budget": "15000"},
	  "days": [{"dayIndex": 1.0, "activities": [{"title": "Kayak", "durationMins": 89.6, "category": "adventure", "cost": "400"}]}]}`)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Input.NumDays)
	assert.Equal(t, 15000.0, it.Input.Budget)
	require.Len(t, it.Days, 1)
	act := it.Days[0].Activities[0]
	assert.Equal(t, 90, act.DurationMins)
	require.NotNil(t, act.Cost)
	assert.Equal(t, 400.0, *act.Cost)
}

func TestParse(t *testing.T) {
	payload := `{"title": "Goa", "days": [{"dayIndex": 1, "activities": []}]}`
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"plain", payload, nil},
		{"fenced", "```json\n" + payload + "\n```", nil},
		{"surrounded by prose", "Here you go:\n" + payload + "\nEnjoy your trip!", nil},
		{"fenced inside prose", "Sure:\n```json\n" + payload + "\n```\nThanks!", nil},
		{"no braces", "no json here", ErrNoObject},
		{"missing days", `{"title": "Goa"}`, ErrNoDays},
		{"null", "null", ErrNoObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := Parse(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Goa", it.Title)
			assert.Len(t, it.Days, 1)
		})
	}
}
