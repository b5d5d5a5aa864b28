package llm

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// FixtureItinerary is the canned payload returned by Fixture: a 3-day,
// 6-activity Goa plan. The fourth activity deliberately has no location.
const FixtureItinerary = `{
  "title": "Goa 3-day Adventure",
  "input": {"destination": "Goa", "numDays": 3, "budget": 20000},
  "days": [
    {"dayIndex": 1, "activities": [
      {"title": "Anjuna Beach", "durationMins": 120, "category": "nature", "dayIndex": 1,
       "poiId": "poi_anjuna", "cost": 0, "timeOfDay": "morning"},
      {"title": "Fisherman's Wharf dinner", "durationMins": 90, "category": "food", "dayIndex": 1,
       "poiSnapshot": {"name": "Fisherman's Wharf", "lat": 15.2302, "lng": 73.9366}, "cost": 1800, "timeOfDay": "evening"}
    ]},
    {"dayIndex": 2, "activities": [
      {"title": "Dudhsagar Falls trek", "durationMins": 240, "category": "adventure", "dayIndex": 2,
       "poiSnapshot": {"name": "Dudhsagar Falls", "lat": 15.3144, "lng": 74.3143}, "cost": 3500,
       "safetyNote": "Trails are slippery in the monsoon", "bookingRequired": true, "timeOfDay": "morning"},
      {"title": "Saturday Night Market", "durationMins": 120, "category": "shopping", "dayIndex": 2,
       "cost": 1000, "timeOfDay": "night"}
    ]},
    {"dayIndex": 3, "activities": [
      {"title": "Basilica of Bom Jesus", "durationMins": 60, "category": "heritage", "dayIndex": 3,
       "poiSnapshot": {"name": "Basilica of Bom Jesus", "lat": 15.5009, "lng": 73.9116, "address": "Old Goa"}, "cost": 0,
       "timeOfDay": "morning"},
      {"title": "Spice plantation lunch", "durationMins": 150, "category": "food", "dayIndex": 3,
       "poiSnapshot": {"name": "Sahakari Spice Farm"}, "cost": 900, "timeOfDay": "afternoon"}
    ]}
  ],
  "estimatedCost": 7200,
  "meta": {}
}`

// Call records one request made to a Fixture.
type Call struct {
	UserMessage       string
	SystemInstruction string
	Config            Config
}

// Fixture is a deterministic Generator. By default it answers every call
// with FixtureItinerary.
type Fixture struct {
	// Content overrides the canned payload when non-empty.
	Content string
	// FailWith makes every call fail with this error message.
	FailWith string
	// Grounded reports searchUsed when search is enabled.
	Grounded bool

	mu    sync.Mutex
	calls []Call
}

func NewFixture() *Fixture {
	return &Fixture{Grounded: true}
}

func (f *Fixture) record(userMessage, systemInstruction string, cfg Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{UserMessage: userMessage, SystemInstruction: systemInstruction, Config: cfg})
}

// Calls returns a copy of the recorded calls.
func (f *Fixture) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fixture) content() string {
	if f.Content != "" {
		return f.Content
	}
	return FixtureItinerary
}

func (f *Fixture) Generate(ctx context.Context, userMessage, systemInstruction string, cfg Config) Response {
	cfg = cfg.withDefaults()
	f.record(userMessage, systemInstruction, cfg)
	if err := ctx.Err(); err != nil {
		return Response{Success: false, Error: err.Error(), Model: cfg.Model}
	}
	if f.FailWith != "" {
		return Response{Success: false, Error: f.FailWith, SearchUsed: cfg.UseSearch, Model: cfg.Model}
	}
	return Response{
		Success:    true,
		Content:    f.content(),
		SearchUsed: cfg.UseSearch && f.Grounded,
		Model:      cfg.Model,
	}
}

// Stream yields the payload in fixed-size chunks.
func (f *Fixture) Stream(ctx context.Context, userMessage, systemInstruction string, cfg Config) iter.Seq2[string, error] {
	cfg = cfg.withDefaults()
	f.record(userMessage, systemInstruction, cfg)
	content := f.content()
	fail := f.FailWith

	return func(yield func(string, error) bool) {
		if fail != "" {
			yield("", errors.New(fail))
			return
		}
		const size = 64
		for i := 0; i < len(content); i += size {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(content[i:min(i+size, len(content))], nil) {
				return
			}
		}
	}
}
