package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"wayfarer/models"
)

// MemoryStore keeps everything in process. It backs tests and the
// --store=memory development mode.
type MemoryStore struct {
	opts storeOptions

	mu          sync.RWMutex
	users       map[string]models.User
	sessions    map[string]models.Session
	itineraries map[Owner]map[string]*models.Itinerary
	pois        map[string]models.POI
	places      map[string]models.Place
	searchLogs  []models.SearchLog
	llmLogs     []models.LLMResponse
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:        o,
		users:       make(map[string]models.User),
		sessions:    make(map[string]models.Session),
		itineraries: make(map[Owner]map[string]*models.Itinerary),
		pois:        make(map[string]models.POI),
		places:      make(map[string]models.Place),
	}
}

func (m *MemoryStore) UpsertUser(_ context.Context, u models.User) (*models.User, error) {
	now := m.opts.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.UserID]; ok {
		u.CreatedAt = existing.CreatedAt
		if u.Preferences == nil {
			u.Preferences = existing.Preferences
		}
	} else {
		u.CreatedAt = now
	}
	u.LastActiveAt = now
	m.users[u.UserID] = u
	return &u, nil
}

func (m *MemoryStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryStore) UpdateUserPreferences(_ context.Context, uid string, prefs map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	u.Preferences = prefs
	u.LastActiveAt = m.opts.now()
	m.users[uid] = u
	return nil
}

func (m *MemoryStore) TouchUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	u.LastActiveAt = m.opts.now()
	m.users[uid] = u
	return nil
}

func (m *MemoryStore) CreateSession(_ context.Context, geoHint string, prefs map[string]float64) (*models.Session, error) {
	sess := newSession(m.opts.now(), m.opts.ttl, geoHint, prefs)
	m.mu.Lock()
	m.sessions[sess.SessionID] = *sess
	m.mu.Unlock()
	return sess, nil
}

func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return &sess, nil
}

func (m *MemoryStore) TouchSession(_ context.Context, sessionID string) (*models.Session, error) {
	now := m.opts.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if !sess.UsableAt(now) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionExpired)
	}
	sess.LastSeen = now
	sess.ExpiresAt = now.Add(m.opts.ttl)
	m.sessions[sessionID] = sess
	return &sess, nil
}

func (m *MemoryStore) ClaimSessionMigration(_ context.Context, sessionID, uid string) (*models.Session, error) {
	now := m.opts.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if sess.MigratedTo != nil {
		return &sess, ErrAlreadyMigrated
	}
	sess.MigratedTo = &uid
	sess.MigratedAt = &now
	m.sessions[sessionID] = sess
	return &sess, nil
}

func (m *MemoryStore) sessionWritable(owner Owner) error {
	if owner.Kind != OwnerSession {
		return nil
	}
	sess, ok := m.sessions[owner.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", owner.ID, ErrSessionNotFound)
	}
	if err := checkWritable(&sess, m.opts.now()); err != nil {
		return fmt.Errorf("session %s: %w", owner.ID, err)
	}
	return nil
}

func (m *MemoryStore) put(owner Owner, it *models.Itinerary) error {
	clone, err := it.Clone()
	if err != nil {
		return fmt.Errorf("copy itinerary: %w", err)
	}
	if m.itineraries[owner] == nil {
		m.itineraries[owner] = make(map[string]*models.Itinerary)
	}
	m.itineraries[owner][clone.ItineraryID] = clone
	return nil
}

func (m *MemoryStore) SaveItinerary(_ context.Context, owner Owner, it *models.Itinerary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sessionWritable(owner); err != nil {
		return "", err
	}
	now := m.opts.now()
	it.ItineraryID = NewID("it")
	it.CreatedAt = &now
	it.UpdatedAt = &now
	if err := m.put(owner, it); err != nil {
		return "", err
	}
	return it.ItineraryID, nil
}

func (m *MemoryStore) GetItinerary(_ context.Context, owner Owner, itineraryID string) (*models.Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.itineraries[owner][itineraryID]
	if !ok {
		return nil, fmt.Errorf("itinerary %s under %s: %w", itineraryID, owner.Path(), ErrNotFound)
	}
	return it.Clone()
}

func (m *MemoryStore) ListItineraries(_ context.Context, owner Owner, limit int) ([]models.Itinerary, error) {
	m.mu.RLock()
	out := make([]models.Itinerary, 0, len(m.itineraries[owner]))
	for _, it := range m.itineraries[owner] {
		clone, err := it.Clone()
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		out = append(out, *clone)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Itinerary) int {
		if c := b.UpdatedAt.Compare(*a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ItineraryID, b.ItineraryID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ReplaceItinerary(_ context.Context, owner Owner, itineraryID string, it *models.Itinerary) (*models.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sessionWritable(owner); err != nil {
		return nil, err
	}
	existing, ok := m.itineraries[owner][itineraryID]
	if !ok {
		return nil, fmt.Errorf("itinerary %s under %s: %w", itineraryID, owner.Path(), ErrNotFound)
	}
	now := m.opts.now()
	it.ItineraryID = itineraryID
	it.CreatedAt = existing.CreatedAt
	it.UpdatedAt = &now
	it.MigratedFromSession = existing.MigratedFromSession
	it.MigratedAt = existing.MigratedAt
	if err := m.put(owner, it); err != nil {
		return nil, err
	}
	return it.Clone()
}

func (m *MemoryStore) CopyItinerary(_ context.Context, owner Owner, it *models.Itinerary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sessionWritable(owner); err != nil {
		return "", err
	}
	clone, err := it.Clone()
	if err != nil {
		return "", err
	}
	clone.ItineraryID = NewID("it")
	now := m.opts.now()
	if clone.CreatedAt == nil {
		clone.CreatedAt = &now
	}
	if clone.UpdatedAt == nil {
		clone.UpdatedAt = &now
	}
	if err := m.put(owner, clone); err != nil {
		return "", err
	}
	return clone.ItineraryID, nil
}

func (m *MemoryStore) UpsertPOI(_ context.Context, poi models.POI) error {
	poi.UpdatedAt = m.opts.now()
	m.mu.Lock()
	m.pois[poi.PoiID] = poi
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetPOI(_ context.Context, poiID string) (*models.POI, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	poi, ok := m.pois[poiID]
	if !ok {
		return nil, fmt.Errorf("poi %s: %w", poiID, ErrNotFound)
	}
	return &poi, nil
}

func (m *MemoryStore) UpsertPlace(_ context.Context, place models.Place) error {
	place.UpdatedAt = m.opts.now()
	m.mu.Lock()
	m.places[place.PlaceID] = place
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetPlace(_ context.Context, placeID string) (*models.Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	place, ok := m.places[placeID]
	if !ok {
		return nil, fmt.Errorf("place %s: %w", placeID, ErrNotFound)
	}
	return &place, nil
}

func (m *MemoryStore) ListPlaces(_ context.Context, limit int) ([]models.Place, error) {
	m.mu.RLock()
	out := make([]models.Place, 0, len(m.places))
	for _, p := range m.places {
		out = append(out, p)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Place) int { return cmp.Compare(a.Name, b.Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) LogSearch(_ context.Context, owner Owner, payload map[string]any) (string, error) {
	rec := models.SearchLog{
		LogID:     NewLogID("log"),
		OwnerKind: string(owner.Kind),
		OwnerID:   owner.ID,
		Payload:   payload,
		CreatedAt: m.opts.now(),
	}
	m.mu.Lock()
	m.searchLogs = append(m.searchLogs, rec)
	m.mu.Unlock()
	return rec.LogID, nil
}

func (m *MemoryStore) SaveLLMResponse(_ context.Context, rec models.LLMResponse) (string, error) {
	rec.LLMID = NewLogID("llm")
	rec.CreatedAt = m.opts.now()
	m.mu.Lock()
	m.llmLogs = append(m.llmLogs, rec)
	m.mu.Unlock()
	return rec.LLMID, nil
}

// SearchLogs returns a copy of the recorded search logs.
func (m *MemoryStore) SearchLogs() []models.SearchLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.searchLogs)
}

// LLMResponses returns a copy of the recorded model-call audits.
func (m *MemoryStore) LLMResponses() []models.LLMResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.llmLogs)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
