package prompts

import "strings"

// SchemaDocs is the schema written out for humans and for embedding in
// instructions.
var SchemaDocs = strings.TrimSpace(`
ITINERARY FORMAT:

{
  "title": "string, descriptive name such as 'Kyoto Temples and Tea' (REQUIRED)",
  "input": {
    "sessionId": "string, session identifier",
    "destination": "string, main destination (REQUIRED)",
    "startDate": "string, YYYY-MM-DD",
    "endDate": "string, YYYY-MM-DD",
    "numDays": "integer, number of days (REQUIRED)",
    "budget": "number, total budget in local currency",
    "sliders": {
      "nature": "number 0-100, outdoors and scenery",
      "nightlife": "number 0-100, bars and late evenings",
      "adventure": "number 0-100, active and thrill activities",
      "leisure": "number 0-100, relaxing time",
      "heritage": "number 0-100, historic sites",
      "culture": "number 0-100, arts and local life",
      "food": "number 0-100, eating and drinking",
      "shopping": "number 0-100, markets and stores",
      "unexplored": "number 0-100, off the beaten path"
    },
    "specialRequirements": "string, accessibility or other needs"
  },
  "days": [
    {
      "dayIndex": "integer, 1-indexed day number (REQUIRED)",
      "activities": [
        {
          "title": "string, activity name (REQUIRED)",
          "durationMins": "integer, at least 15 (REQUIRED)",
          "category": "string, one of ` + strings.Join(Categories, "|") + ` (REQUIRED)",
          "dayIndex": "integer, the day this activity is on",
          "poiId": "string, known point of interest id",
          "poiSnapshot": {
            "name": "string, place name (REQUIRED when poiSnapshot is given)",
            "lat": "number, latitude",
            "lng": "number, longitude",
            "imageUrl": "string, image URL",
            "address": "string, address or short description"
          },
          "description": "string, what happens there",
          "cost": "number, estimated cost",
          "safetyNote": "string, safety considerations",
          "bookingRequired": "boolean, needs advance booking",
          "timeOfDay": "string, one of ` + strings.Join(TimesOfDay, "|") + `"
        }
      ]
    }
  ],
  "estimatedCost": "number, total estimated cost (REQUIRED)",
  "meta": {
    "generatedAt": "string, ISO timestamp",
    "generatedBy": "string, generating component",
    "adjustedBy": "string, last adjusting component",
    "llmTraceId": "string, trace id",
    "version": "string, schema version",
    "tags": ["string"]
  }
}

NOTES:
- Every activity carries exactly one of poiId or poiSnapshot.
- An activity's dayIndex equals the dayIndex of the day that contains it.
- Categories come only from the list above.
- Coordinates are decimal degrees.
- Costs use the same currency as the budget.
`)
