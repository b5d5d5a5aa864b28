// Package prompts holds the itinerary JSON contract and the instruction
// texts handed to the model.
package prompts

import (
	"fmt"
	"maps"
	"slices"
)

const SchemaVersion = "1.0"

var (
	RequiredTopLevel = []string{"title", "input", "days", "estimatedCost", "meta"}
	RequiredInput    = []string{"destination", "numDays"}
	RequiredDay      = []string{"dayIndex", "activities"}
	RequiredActivity = []string{"title", "durationMins", "category"}

	Categories = []string{
		"nature", "nightlife", "adventure", "leisure", "heritage",
		"culture", "food", "shopping", "transport", "accommodation",
	}
	TimesOfDay = []string{"morning", "afternoon", "evening", "night"}

	// SliderKeys is the closed preference vocabulary accepted on plan requests.
	SliderKeys = []string{
		"nature", "nightlife", "adventure", "leisure", "heritage",
		"culture", "food", "shopping", "unexplored",
	}
)

func obj(required []string, props map[string]any) map[string]any {
	m := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		m["required"] = slices.Clone(required)
	}
	return m
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func withMin(p map[string]any, min float64) map[string]any {
	p["minimum"] = min
	return p
}

func withEnum(p map[string]any, values []string) map[string]any {
	p["enum"] = slices.Clone(values)
	return p
}

func sliderProps() map[string]any {
	props := make(map[string]any, len(SliderKeys))
	for _, k := range SliderKeys {
		props[k] = map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0}
	}
	return props
}

// Schema returns a fresh copy of the itinerary JSON schema. Callers may
// mutate the result.
func Schema() map[string]any {
	snapshot := obj([]string{"name"}, map[string]any{
		"name":     prop("string", "Name of the place"),
		"lat":      prop("number", "Latitude in decimal degrees"),
		"lng":      prop("number", "Longitude in decimal degrees"),
		"imageUrl": prop("string", "Optional image URL"),
		"address":  prop("string", "Address or short location description"),
	})

	activity := obj(RequiredActivity, map[string]any{
		"title":           prop("string", "Activity name"),
		"durationMins":    withMin(prop("integer", "Duration in minutes"), 15),
		"category":        withEnum(prop("string", "Activity category"), Categories),
		"dayIndex":        withMin(prop("integer", "Day this activity belongs to"), 1),
		"poiId":           prop("string", "Point of interest id when known"),
		"poiSnapshot":     snapshot,
		"description":     prop("string", "What the traveller does there"),
		"cost":            withMin(prop("number", "Estimated cost in the budget currency"), 0),
		"safetyNote":      prop("string", "Safety considerations"),
		"bookingRequired": prop("boolean", "Whether advance booking is needed"),
		"timeOfDay":       withEnum(prop("string", "Recommended time of day"), TimesOfDay),
	})

	day := obj(RequiredDay, map[string]any{
		"dayIndex": withMin(prop("integer", "Day number, 1-indexed"), 1),
		"activities": map[string]any{
			"type":  "array",
			"items": activity,
		},
	})

	input := obj(RequiredInput, map[string]any{
		"sessionId":           prop("string", "Session the request came from"),
		"destination":         prop("string", "Primary destination"),
		"startDate":           prop("string", "Start date, YYYY-MM-DD"),
		"endDate":             prop("string", "End date, YYYY-MM-DD"),
		"numDays":             withMin(prop("integer", "Number of days"), 1),
		"budget":              withMin(prop("number", "Total budget"), 0),
		"sliders":             obj(nil, sliderProps()),
		"specialRequirements": prop("string", "Accessibility or other needs"),
	})

	meta := obj(nil, map[string]any{
		"generatedAt": prop("string", "ISO-8601 generation time"),
		"generatedBy": prop("string", "Component that generated the plan"),
		"adjustedBy":  prop("string", "Component that last adjusted the plan"),
		"llmTraceId":  prop("string", "Trace id of the model call"),
		"version":     prop("string", "Schema version"),
		"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	})

	return obj(RequiredTopLevel, map[string]any{
		"title":         prop("string", "Descriptive itinerary title"),
		"input":         input,
		"days":          map[string]any{"type": "array", "items": day},
		"estimatedCost": withMin(prop("number", "Total estimated cost"), 0),
		"meta":          meta,
	})
}

// Check walks doc against Schema and returns one message per violation.
// It checks required keys, JSON types, numeric minimums/maximums and
// enums. Unknown keys are allowed.
func Check(doc map[string]any) []string {
	var issues []string
	checkValue(Schema(), doc, "", &issues)
	return issues
}

func checkValue(schema map[string]any, v any, path string, issues *[]string) {
	label := path
	if label == "" {
		label = "itinerary"
	}
	typ, _ := schema["type"].(string)

	switch typ {
	case "object":
		m, ok := v.(map[string]any)
		if !ok {
			*issues = append(*issues, fmt.Sprintf("%s must be an object", label))
			return
		}
		required, _ := schema["required"].([]string)
		for _, key := range required {
			if isMissing(m[key]) {
				*issues = append(*issues, fmt.Sprintf("%s is required", join(path, key)))
			}
		}
		props, _ := schema["properties"].(map[string]any)
		for _, key := range slices.Sorted(maps.Keys(props)) {
			val, present := m[key]
			if !present || val == nil {
				continue
			}
			if sub, ok := props[key].(map[string]any); ok {
				checkValue(sub, val, join(path, key), issues)
			}
		}
	case "array":
		arr, ok := v.([]any)
		if !ok {
			*issues = append(*issues, fmt.Sprintf("%s must be an array", label))
			return
		}
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			return
		}
		for i, item := range arr {
			checkValue(items, item, fmt.Sprintf("%s[%d]", path, i), issues)
		}
	case "string":
		s, ok := v.(string)
		if !ok {
			*issues = append(*issues, fmt.Sprintf("%s must be a string", label))
			return
		}
		if enum, ok := schema["enum"].([]string); ok && !slices.Contains(enum, s) {
			*issues = append(*issues, fmt.Sprintf("%s %q is not one of %v", label, s, enum))
		}
	case "integer", "number":
		n, ok := v.(float64)
		if !ok {
			*issues = append(*issues, fmt.Sprintf("%s must be a number", label))
			return
		}
		if typ == "integer" && n != float64(int64(n)) {
			*issues = append(*issues, fmt.Sprintf("%s must be an integer", label))
		}
		if min, ok := schema["minimum"].(float64); ok && n < min {
			*issues = append(*issues, fmt.Sprintf("%s must be at least %v", label, min))
		}
		if max, ok := schema["maximum"].(float64); ok && n > max {
			*issues = append(*issues, fmt.Sprintf("%s must be at most %v", label, max))
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			*issues = append(*issues, fmt.Sprintf("%s must be a boolean", label))
		}
	}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
