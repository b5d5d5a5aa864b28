package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/models"
	"wayfarer/mq"
)

const testSecret = "test-secret"

func seedSession(t *testing.T, store *db.MemoryStore, titles ...string) (*models.Session, []string) {
	t.Helper()
	ctx := context.Background()
	sess, err := store.CreateSession(ctx, "IN", nil)
	require.NoError(t, err)
	var ids []string
	for _, title := range titles {
		id, err := store.SaveItinerary(ctx, db.SessionOwner(sess.SessionID), &models.Itinerary{
			Title: title,
			Input: models.ItineraryInput{Destination: "Goa", NumDays: 1},
			Days:  []models.Day{{DayIndex: 1}},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return sess, ids
}

func TestMigrateCopiesItineraries(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	events := &mq.Recorder{}
	m := NewMigrator(store, events, nil, zap.NewNop())

	sess, ids := seedSession(t, store, "A", "B")
	before, err := store.ListItineraries(ctx, db.SessionOwner(sess.SessionID), 0)
	require.NoError(t, err)

	res, err := m.Migrate(ctx, sess.SessionID, "user_u")
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, 2, res.ItineraryCount)
	assert.Zero(t, res.Failed)

	copied, err := store.ListItineraries(ctx, db.UserOwner("user_u"), 0)
	require.NoError(t, err)
	require.Len(t, copied, 2)
	for _, it := range copied {
		assert.NotContains(t, ids, it.ItineraryID, "copies get fresh ids")
		assert.Equal(t, sess.SessionID, it.MigratedFromSession)
		assert.NotNil(t, it.MigratedAt)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, []string{copied[0].Title, copied[1].Title})

	after, err := store.ListItineraries(ctx, db.SessionOwner(sess.SessionID), 0)
	require.NoError(t, err)
	assert.Equal(t, before, after, "session originals are untouched")

	marked, err := store.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	require.NotNil(t, marked.MigratedTo)
	assert.Equal(t, "user_u", *marked.MigratedTo)
	assert.NotNil(t, marked.MigratedAt)

	evts := events.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, mq.EventMigrated, evts[0].Type)
	assert.Equal(t, 2, evts[0].Count)
}

func TestMigrateTwiceCopiesOnce(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	m := NewMigrator(store, nil, nil, nil)
	sess, _ := seedSession(t, store, "A", "B")

	_, err := m.Migrate(ctx, sess.SessionID, "user_u")
	require.NoError(t, err)

	res, err := m.Migrate(ctx, sess.SessionID, "user_u")
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.True(t, res.AlreadyMigrated)
	assert.Equal(t, "user_u", res.MigratedTo)

	copied, err := store.ListItineraries(ctx, db.UserOwner("user_u"), 0)
	require.NoError(t, err)
	assert.Len(t, copied, 2)
}

// flakyListStore fails the first ListItineraries call.
type flakyListStore struct {
	*db.MemoryStore
	failures int
}

func (f *flakyListStore) ListItineraries(ctx context.Context, owner db.Owner, limit int) ([]models.Itinerary, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.ListItineraries(ctx, owner, limit)
}

func TestMigrateRetryAfterListFailure(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemoryStore()
	sess, _ := seedSession(t, mem, "A", "B")
	store := &flakyListStore{MemoryStore: mem, failures: 1}
	m := NewMigrator(store, nil, nil, nil)

	_, err := m.Migrate(ctx, sess.SessionID, "user_u")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindPersistence))

	got, err := mem.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got.MigratedTo)

	res, err := m.Migrate(ctx, sess.SessionID, "user_u")
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.False(t, res.AlreadyMigrated)
	assert.Equal(t, 2, res.ItineraryCount)

	copied, err := mem.ListItineraries(ctx, db.UserOwner("user_u"), 0)
	require.NoError(t, err)
	assert.Len(t, copied, 2)
}

func TestMigrateUnknownSession(t *testing.T) {
	m := NewMigrator(db.NewMemoryStore(), nil, nil, nil)
	res, err := m.Migrate(context.Background(), "sess_nope", "user_u")
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Equal(t, "session not found", res.Reason)
}

func TestJWTResolver(t *testing.T) {
	r := NewJWTResolver(testSecret, "wayfarer")
	token, err := r.Issue("user_1", Claims{Name: "Asha", Email: "asha@example.com"}, time.Hour)
	require.NoError(t, err)

	id, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", id.Subject)
	assert.Equal(t, "Asha", id.Profile().DisplayName)
	assert.Equal(t, "asha@example.com", id.Profile().Email)

	other := NewJWTResolver("another-secret", "wayfarer")
	_, err = other.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	wrongIssuer := NewJWTResolver(testSecret, "someone-else")
	_, err = wrongIssuer.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	expired, err := r.Issue("user_1", Claims{}, -time.Minute)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), expired)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func newTestHandlers(store *db.MemoryStore) (*Handlers, *JWTResolver) {
	resolver := NewJWTResolver(testSecret, "")
	return NewHandlers(store, resolver, NewMigrator(store, nil, nil, nil), zap.NewNop()), resolver
}

func TestSignInMigratesSession(t *testing.T) {
	store := db.NewMemoryStore()
	h, resolver := newTestHandlers(store)
	sess, _ := seedSession(t, store, "A", "B")

	token, err := resolver.Issue("user_9", Claims{Name: "Ravi"}, time.Hour)
	require.NoError(t, err)
	body, _ := json.Marshal(signInRequest{IDToken: token, SessionID: sess.SessionID})

	rec := httptest.NewRecorder()
	h.SignIn(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewReader(body)), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success         bool            `json:"success"`
		User            models.User     `json:"user"`
		MigrationResult MigrationResult `json:"migrationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "user_9", resp.User.UserID)
	assert.Equal(t, "Ravi", resp.User.DisplayName)
	assert.True(t, resp.MigrationResult.Migrated)
	assert.Equal(t, 2, resp.MigrationResult.ItineraryCount)
}

func TestSignInRejectsBadToken(t *testing.T) {
	h, _ := newTestHandlers(db.NewMemoryStore())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rec := httptest.NewRecorder()
	h.SignIn(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	store := db.NewMemoryStore()
	h, _ := newTestHandlers(store)

	rec := httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/api/v1/session", nil), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.SessionID)

	rec = httptest.NewRecorder()
	h.TouchSession(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		httprouter.Params{{Key: "id", Value: created.SessionID}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.TouchSession(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		httprouter.Params{{Key: "id", Value: "sess_unknown"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProfileRequiresUser(t *testing.T) {
	h, _ := newTestHandlers(db.NewMemoryStore())
	rec := httptest.NewRecorder()
	h.Profile(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
