package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"wayfarer/models"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAlreadyMigrated = errors.New("session already migrated")
)

const DefaultSessionTTL = 4 * time.Hour

type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerSession OwnerKind = "session"
)

// Owner identifies the user or session an itinerary lives under.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserOwner(uid string) Owner         { return Owner{Kind: OwnerUser, ID: uid} }
func SessionOwner(sessionID string) Owner { return Owner{Kind: OwnerSession, ID: sessionID} }

// Path is the logical document path of the owner's itinerary collection.
func (o Owner) Path() string {
	if o.Kind == OwnerUser {
		return "users/" + o.ID + "/itineraries"
	}
	return "sessions/" + o.ID + "/itineraries"
}

func (o Owner) Valid() bool {
	return o.ID != "" && (o.Kind == OwnerUser || o.Kind == OwnerSession)
}

// Store is the typed gateway over users, sessions, per-owner itineraries,
// the shared place/POI collections and the audit logs.
type Store interface {
	UpsertUser(ctx context.Context, u models.User) (*models.User, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpdateUserPreferences(ctx context.Context, uid string, prefs map[string]any) error
	TouchUser(ctx context.Context, uid string) error

	CreateSession(ctx context.Context, geoHint string, prefs map[string]float64) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	// TouchSession refreshes lastSeen and pushes expiresAt one TTL past now.
	// An already expired session cannot be revived.
	TouchSession(ctx context.Context, sessionID string) (*models.Session, error)
	// ClaimSessionMigration marks the session as migrated to uid if no
	// migration has been recorded yet. It returns ErrAlreadyMigrated
	// otherwise.
	ClaimSessionMigration(ctx context.Context, sessionID, uid string) (*models.Session, error)

	// SaveItinerary stores it under owner with a fresh id and returns the id.
	// Session owners are checked for existence and expiry first.
	SaveItinerary(ctx context.Context, owner Owner, it *models.Itinerary) (string, error)
	GetItinerary(ctx context.Context, owner Owner, itineraryID string) (*models.Itinerary, error)
	// ListItineraries returns newest-updated first. limit <= 0 returns all.
	ListItineraries(ctx context.Context, owner Owner, limit int) ([]models.Itinerary, error)
	// ReplaceItinerary overwrites the document, keeping its id and createdAt.
	ReplaceItinerary(ctx context.Context, owner Owner, itineraryID string, it *models.Itinerary) (*models.Itinerary, error)
	// CopyItinerary inserts it under owner with a new id, keeping the
	// timestamps it carries.
	CopyItinerary(ctx context.Context, owner Owner, it *models.Itinerary) (string, error)

	UpsertPOI(ctx context.Context, poi models.POI) error
	GetPOI(ctx context.Context, poiID string) (*models.POI, error)
	UpsertPlace(ctx context.Context, place models.Place) error
	GetPlace(ctx context.Context, placeID string) (*models.Place, error)
	ListPlaces(ctx context.Context, limit int) ([]models.Place, error)

	LogSearch(ctx context.Context, owner Owner, payload map[string]any) (string, error)
	SaveLLMResponse(ctx context.Context, rec models.LLMResponse) (string, error)

	Ping(ctx context.Context) error
}

// Option configures a store.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
	ttl time.Duration
}

func defaultOptions() storeOptions {
	return storeOptions{now: time.Now, ttl: DefaultSessionTTL}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(o *storeOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// NewID returns prefix_ followed by ten hex characters.
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:10]
}

// NewLogID returns a time-ordered id for append-only collections.
func NewLogID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

// checkWritable applies the expiry rule to a session read just before a
// write.
func checkWritable(sess *models.Session, now time.Time) error {
	if sess == nil {
		return ErrSessionNotFound
	}
	if !sess.UsableAt(now) {
		return ErrSessionExpired
	}
	return nil
}

func newSession(now time.Time, ttl time.Duration, geoHint string, prefs map[string]float64) *models.Session {
	return &models.Session{
		SessionID:   NewID("sess"),
		CreatedAt:   now,
		LastSeen:    now,
		ExpiresAt:   now.Add(ttl),
		GeoHint:     geoHint,
		Preferences: prefs,
	}
}
