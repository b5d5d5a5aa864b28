package models

import "time"

// Place is a destination-level reference record (a city or region).
type Place struct {
	PlaceID   string    `json:"placeId" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Type      string    `json:"type,omitempty" bson:"type,omitempty"`
	Lat       float64   `json:"lat" bson:"lat"`
	Lng       float64   `json:"lng" bson:"lng"`
	Country   string    `json:"country,omitempty" bson:"country,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// POI is a point of interest that activities may reference by PoiID.
type POI struct {
	PoiID           string    `json:"poiId" bson:"_id"`
	ExternalPlaceID string    `json:"externalPlaceId,omitempty" bson:"externalPlaceId,omitempty"`
	Name            string    `json:"name" bson:"name"`
	PlaceID         string    `json:"placeId,omitempty" bson:"placeId,omitempty"`
	Lat             float64   `json:"lat" bson:"lat"`
	Lng             float64   `json:"lng" bson:"lng"`
	Categories      []string  `json:"categories,omitempty" bson:"categories,omitempty"`
	ShortDesc       string    `json:"shortDesc,omitempty" bson:"shortDesc,omitempty"`
	PopularityScore float64   `json:"popularityScore,omitempty" bson:"popularityScore,omitempty"`
	AvgDurationMins int       `json:"avgDurationMins,omitempty" bson:"avgDurationMins,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}
