package models

import (
	"encoding/json"
	"time"
)

// Activity categories accepted by the itinerary schema.
const (
	CategoryNature        = "nature"
	CategoryNightlife     = "nightlife"
	CategoryAdventure     = "adventure"
	CategoryLeisure       = "leisure"
	CategoryHeritage      = "heritage"
	CategoryCulture       = "culture"
	CategoryFood          = "food"
	CategoryShopping      = "shopping"
	CategoryTransport     = "transport"
	CategoryAccommodation = "accommodation"
)

var ActivityCategories = []string{
	CategoryNature, CategoryNightlife, CategoryAdventure, CategoryLeisure, CategoryHeritage,
	CategoryCulture, CategoryFood, CategoryShopping, CategoryTransport, CategoryAccommodation,
}

// Itinerary represents a generated day-by-day travel plan.
type Itinerary struct {
	ItineraryID   string         `json:"itineraryId,omitempty" bson:"itineraryId,omitempty"`
	Title         string         `json:"title" bson:"title"`
	Input         ItineraryInput `json:"input" bson:"input"`
	Days          []Day          `json:"days" bson:"days"`
	EstimatedCost *float64       `json:"estimatedCost,omitempty" bson:"estimatedCost,omitempty"`
	Meta          map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`

	CreatedAt           *time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	MigratedFromSession string     `json:"migratedFromSession,omitempty" bson:"migratedFromSession,omitempty"`
	MigratedAt          *time.Time `json:"migratedAt,omitempty" bson:"migratedAt,omitempty"`
}

// ItineraryInput echoes the parameters the itinerary was generated from.
type ItineraryInput struct {
	SessionID           string             `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	Destination         string             `json:"destination" bson:"destination"`
	StartDate           string             `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate             string             `json:"endDate,omitempty" bson:"endDate,omitempty"`
	NumDays             int                `json:"numDays" bson:"numDays"`
	Budget              float64            `json:"budget" bson:"budget"`
	Sliders             map[string]float64 `json:"sliders,omitempty" bson:"sliders,omitempty"`
	SpecialRequirements string             `json:"specialRequirements,omitempty" bson:"specialRequirements,omitempty"`
}

// Day is one day of the plan. DayIndex is 1-based.
type Day struct {
	DayIndex   int        `json:"dayIndex" bson:"dayIndex"`
	Date       string     `json:"date,omitempty" bson:"date,omitempty"`
	Activities []Activity `json:"activities" bson:"activities"`
}

type Activity struct {
	Title           string       `json:"title" bson:"title"`
	DurationMins    int          `json:"durationMins" bson:"durationMins"`
	Category        string       `json:"category" bson:"category"`
	DayIndex        int          `json:"dayIndex,omitempty" bson:"dayIndex,omitempty"`
	PoiID           string       `json:"poiId,omitempty" bson:"poiId,omitempty"`
	PoiSnapshot     *PoiSnapshot `json:"poiSnapshot,omitempty" bson:"poiSnapshot,omitempty"`
	Description     string       `json:"description,omitempty" bson:"description,omitempty"`
	Cost            *float64     `json:"cost,omitempty" bson:"cost,omitempty"`
	SafetyNote      string       `json:"safetyNote,omitempty" bson:"safetyNote,omitempty"`
	BookingRequired *bool        `json:"bookingRequired,omitempty" bson:"bookingRequired,omitempty"`
	TimeOfDay       string       `json:"timeOfDay,omitempty" bson:"timeOfDay,omitempty"`
}

// HasLocation reports whether the activity points at a place, either by
// reference or by inline snapshot.
func (a Activity) HasLocation() bool {
	return a.PoiID != "" || a.PoiSnapshot != nil
}

// PoiSnapshot is the inline location of an activity. Keys the model adds
// beyond the known ones are kept in Extra.
type PoiSnapshot struct {
	Name     string         `json:"name" bson:"name"`
	Lat      *float64       `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng      *float64       `json:"lng,omitempty" bson:"lng,omitempty"`
	ImageURL string         `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Address  string         `json:"address,omitempty" bson:"address,omitempty"`
	Extra    map[string]any `json:"-" bson:",inline"`
}

var snapshotKeys = map[string]bool{"name": true, "lat": true, "lng": true, "imageUrl": true, "address": true}

type poiSnapshotFields struct {
	Name     string   `json:"name"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Address  string   `json:"address,omitempty"`
}

func (p PoiSnapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		if !snapshotKeys[k] {
			out[k] = v
		}
	}
	out["name"] = p.Name
	if p.Lat != nil {
		out["lat"] = *p.Lat
	}
	if p.Lng != nil {
		out["lng"] = *p.Lng
	}
	if p.ImageURL != "" {
		out["imageUrl"] = p.ImageURL
	}
	if p.Address != "" {
		out["address"] = p.Address
	}
	return json.Marshal(out)
}

func (p *PoiSnapshot) UnmarshalJSON(data []byte) error {
	var known poiSnapshotFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*p = PoiSnapshot{
		Name:     known.Name,
		Lat:      known.Lat,
		Lng:      known.Lng,
		ImageURL: known.ImageURL,
		Address:  known.Address,
	}
	for k, v := range all {
		if snapshotKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return nil
}

// ActivityCount returns the number of activities across all days.
func (it *Itinerary) ActivityCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Activities)
	}
	return n
}

// SumActivityCosts adds up the per-activity costs that are present.
func (it *Itinerary) SumActivityCosts() float64 {
	var total float64
	for _, d := range it.Days {
		for _, a := range d.Activities {
			if a.Cost != nil {
				total += *a.Cost
			}
		}
	}
	return total
}

// Clone returns a deep copy via a JSON round trip.
func (it *Itinerary) Clone() (*Itinerary, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	var out Itinerary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
