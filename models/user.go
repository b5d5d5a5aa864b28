package models

import "time"

// User is an authenticated owner. UserID comes from the identity provider.
type User struct {
	UserID        string         `json:"uid" bson:"_id"`
	DisplayName   string         `json:"displayName" bson:"displayName"`
	Email         string         `json:"email" bson:"email"`
	Picture       string         `json:"picture,omitempty" bson:"picture,omitempty"`
	EmailVerified bool           `json:"emailVerified" bson:"emailVerified"`
	Provider      string         `json:"provider,omitempty" bson:"provider,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty" bson:"preferences,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	LastActiveAt  time.Time      `json:"lastActiveAt" bson:"lastActiveAt"`
}
