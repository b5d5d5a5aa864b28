package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wayfarer/llm"
	"wayfarer/models"
	"wayfarer/prompts"
)

var ErrNotObject = errors.New("model output is not a JSON object")

// ParseItinerary decodes model output after stripping code fences. The
// model's echo of "input" is discarded; the request is the source of truth
// for it. Mistyped fields are coerced or dropped rather than rejected, so
// only text that is not a JSON object fails here.
func ParseItinerary(content string) (*models.Itinerary, error) {
	cleaned := llm.StripFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotObject
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}
	delete(raw, "input")
	models.CoerceItineraryJSON(raw)

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode model output: %w", err)
	}
	var it models.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("model output does not fit the itinerary shape: %w", err)
	}
	return &it, nil
}

func fallbackPOIID() string {
	return "fallback_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// AddFallbackPOIs gives every activity without a location a placeholder
// poiId and a snapshot holding its title. It returns how many were filled.
func AddFallbackPOIs(it *models.Itinerary) int {
	filled := 0
	for d := range it.Days {
		for a := range it.Days[d].Activities {
			act := &it.Days[d].Activities[a]
			if act.HasLocation() {
				continue
			}
			name := act.Title
			if name == "" {
				name = "Unknown Activity"
			}
			act.PoiID = fallbackPOIID()
			act.PoiSnapshot = &models.PoiSnapshot{Name: name}
			filled++
		}
	}
	return filled
}

// Check runs the schema check against the itinerary's JSON form.
func Check(it *models.Itinerary) []string {
	data, err := json.Marshal(it)
	if err != nil {
		return []string{err.Error()}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{err.Error()}
	}
	// Storage bookkeeping is not part of the model contract.
	for _, k := range []string{"itineraryId", "createdAt", "updatedAt"} {
		delete(doc, k)
	}
	return prompts.Check(doc)
}
