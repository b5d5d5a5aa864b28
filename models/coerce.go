package models

import (
	"math"
	"strconv"
	"strings"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
)

var (
	topLevelFields = map[string]fieldKind{"title": kindString, "estimatedCost": kindFloat}
	inputFields    = map[string]fieldKind{
		"sessionId": kindString, "destination": kindString, "startDate": kindString,
		"endDate": kindString, "numDays": kindInt, "budget": kindFloat,
		"specialRequirements": kindString,
	}
	dayFields      = map[string]fieldKind{"dayIndex": kindInt, "date": kindString}
	activityFields = map[string]fieldKind{
		"title": kindString, "durationMins": kindInt, "category": kindString,
		"dayIndex": kindInt, "poiId": kindString, "description": kindString,
		"cost": kindFloat, "safetyNote": kindString, "bookingRequired": kindBool,
		"timeOfDay": kindString,
	}
	snapshotFields = map[string]fieldKind{
		"name": kindString, "lat": kindFloat, "lng": kindFloat,
		"imageUrl": kindString, "address": kindString,
	}
)

// CoerceItineraryJSON rewrites a decoded itinerary document in place so it
// decodes into Itinerary. Fractional counts are rounded, numeric strings
// become numbers, scalars in text fields become text. A value that cannot
// be converted is removed and left for the schema check to report.
func CoerceItineraryJSON(doc map[string]any) {
	coerceFields(doc, topLevelFields)

	if v, ok := doc["input"]; ok {
		if in, ok := v.(map[string]any); ok {
			coerceFields(in, inputFields)
			coerceSliders(in)
		} else {
			delete(doc, "input")
		}
	}
	if v, ok := doc["meta"]; ok {
		if _, ok := v.(map[string]any); !ok {
			delete(doc, "meta")
		}
	}

	v, ok := doc["days"]
	if !ok {
		return
	}
	days, ok := v.([]any)
	if !ok {
		delete(doc, "days")
		return
	}
	kept := days[:0]
	for _, d := range days {
		day, ok := d.(map[string]any)
		if !ok {
			continue
		}
		coerceFields(day, dayFields)
		coerceActivities(day)
		kept = append(kept, day)
	}
	doc["days"] = kept
}

func coerceActivities(day map[string]any) {
	v, ok := day["activities"]
	if !ok {
		return
	}
	list, ok := v.([]any)
	if !ok {
		delete(day, "activities")
		return
	}
	kept := list[:0]
	for _, a := range list {
		act, ok := a.(map[string]any)
		if !ok {
			continue
		}
		coerceFields(act, activityFields)
		if s, ok := act["poiSnapshot"]; ok {
			if snap, ok := s.(map[string]any); ok {
				coerceFields(snap, snapshotFields)
			} else {
				delete(act, "poiSnapshot")
			}
		}
		kept = append(kept, act)
	}
	day["activities"] = kept
}

func coerceSliders(in map[string]any) {
	v, ok := in["sliders"]
	if !ok {
		return
	}
	sliders, ok := v.(map[string]any)
	if !ok {
		delete(in, "sliders")
		return
	}
	for k, val := range sliders {
		if f, ok := toFloat(val); ok {
			sliders[k] = f
		} else {
			delete(sliders, k)
		}
	}
}

func coerceFields(m map[string]any, fields map[string]fieldKind) {
	for key, kind := range fields {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		out, ok := coerce(v, kind)
		if !ok {
			delete(m, key)
			continue
		}
		m[key] = out
	}
}

func coerce(v any, kind fieldKind) (any, bool) {
	switch kind {
	case kindInt:
		f, ok := toFloat(v)
		if !ok || math.Abs(f) > math.MaxInt32 {
			return nil, false
		}
		return math.Round(f), true
	case kindFloat:
		return toFloat(v)
	case kindBool:
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return parsed, err == nil
		}
		return nil, false
	default:
		switch s := v.(type) {
		case string:
			return s, true
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(s), true
		}
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
