package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wayfarer/auth"
	"wayfarer/db"
	"wayfarer/globals"
	"wayfarer/metrics"
	"wayfarer/utils"
)

func newAuth(t *testing.T) (*Auth, string) {
	t.Helper()
	resolver := auth.NewJWTResolver("secret", "")
	token, err := resolver.Issue("user_7", auth.Claims{Name: "Meera"}, time.Hour)
	require.NoError(t, err)
	return NewAuth(resolver, zap.NewNop()), token
}

func echoOwner(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	owner, ok := Owner(r, "")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "no owner")
		return
	}
	w.Write([]byte(owner.Path()))
}

func TestAuthenticate(t *testing.T) {
	a, token := newAuth(t)
	h := a.Authenticate(echoOwner)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "users/user_7", rec.Body.String())
}

func TestOptionalAuthFallsBackToSession(t *testing.T) {
	a, token := newAuth(t)
	h := a.OptionalAuth(echoOwner)

	tests := []struct {
		name    string
		bearer  string
		session string
		want    string
		status  int
	}{
		{"user wins over session", token, "sess_abc", "users/user_7", http.StatusOK},
		{"bad token falls through", "nope", "sess_abc", "sessions/sess_abc", http.StatusOK},
		{"session header", "", "sess_abc", "sessions/sess_abc", http.StatusOK},
		{"nobody", "", "", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.session != "" {
				req.Header.Set(globals.SessionHeader, tt.session)
			}
			rec := httptest.NewRecorder()
			h(rec, req, nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.want != "" {
				assert.Equal(t, tt.want, rec.Body.String())
			}
		})
	}
}

func TestOwnerFallbackSession(t *testing.T) {
	owner, ok := Owner(httptest.NewRequest(http.MethodPost, "/", nil), "sess_body")
	require.True(t, ok)
	assert.Equal(t, db.SessionOwner("sess_body"), owner)
}

func TestAccessLogCountsStatus(t *testing.T) {
	m := metrics.New()
	h := AccessLog(zap.NewNop(), m)(SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "wayfarer_http_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}
