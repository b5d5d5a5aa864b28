package planner

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"wayfarer/models"
	"wayfarer/prompts"
)

const GeneratedBy = "TripPlannerService"

// MergeInput overwrites the itinerary's input with the request values.
func MergeInput(it *models.Itinerary, in models.ItineraryInput) {
	it.Input = in
}

func newTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// StampMeta records generation provenance on the itinerary and returns the
// trace id it assigned.
func StampMeta(it *models.Itinerary, now time.Time, model string, searchUsed bool) string {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	trace := newTraceID()
	it.Meta["generatedAt"] = now.UTC().Format(time.RFC3339)
	it.Meta["generatedBy"] = GeneratedBy
	it.Meta["llmTraceId"] = trace
	it.Meta["version"] = prompts.SchemaVersion
	it.Meta["searchUsed"] = searchUsed
	if model != "" {
		it.Meta["model"] = model
	}
	if it.Input.SessionID != "" {
		it.Meta["sessionId"] = it.Input.SessionID
	}
	return trace
}

// destinationFromTitle takes the word after the last "to " in title.
func destinationFromTitle(title string) string {
	i := strings.LastIndex(title, "to ")
	if i < 0 {
		return "Unknown"
	}
	fields := strings.Fields(title[i+len("to "):])
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[0]
}

// Repair fills the gaps the model most often leaves. It never fails and
// reports what it changed.
func Repair(it *models.Itinerary) []string {
	var fixed []string
	if it.Input.Destination == "" {
		it.Input.Destination = destinationFromTitle(it.Title)
		fixed = append(fixed, "input.destination")
	}
	if strings.TrimSpace(it.Title) == "" {
		it.Title = "Trip to " + it.Input.Destination
		fixed = append(fixed, "title")
	}
	if it.EstimatedCost == nil {
		total := it.SumActivityCosts()
		if total == 0 {
			total = it.Input.Budget
		}
		it.EstimatedCost = &total
		fixed = append(fixed, "estimatedCost")
	}
	if it.Input.NumDays == 0 {
		it.Input.NumDays = len(it.Days)
		fixed = append(fixed, "input.numDays")
	}
	if it.Meta == nil {
		it.Meta = map[string]any{}
		fixed = append(fixed, "meta")
	}
	return fixed
}
