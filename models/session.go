package models

import "time"

// Session is an anonymous owner. It stops accepting itineraries once the
// current time passes ExpiresAt.
type Session struct {
	SessionID   string             `json:"sessionId" bson:"_id"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	LastSeen    time.Time          `json:"lastSeen" bson:"lastSeen"`
	ExpiresAt   time.Time          `json:"expiresAt" bson:"expiresAt"`
	GeoHint     string             `json:"geoHint,omitempty" bson:"geoHint,omitempty"`
	Preferences map[string]float64 `json:"preferences,omitempty" bson:"preferences,omitempty"`
	MigratedTo  *string            `json:"migratedTo" bson:"migratedTo"`
	MigratedAt  *time.Time         `json:"migratedAt,omitempty" bson:"migratedAt,omitempty"`
}

// UsableAt reports whether the session may still receive writes at t.
func (s *Session) UsableAt(t time.Time) bool {
	return !t.After(s.ExpiresAt)
}
