package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/db"
	"wayfarer/errs"
	"wayfarer/globals"
	"wayfarer/utils"
)

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(globals.IdentityKey).(*Identity)
	return id
}

// Handlers serves the session and sign-in endpoints.
type Handlers struct {
	store    db.Store
	resolver Resolver
	migrator *Migrator
	log      *zap.Logger
}

func NewHandlers(store db.Store, resolver Resolver, migrator *Migrator, log *zap.Logger) *Handlers {
	return &Handlers{store: store, resolver: resolver, migrator: migrator, log: log.Named("auth")}
}

type sessionRequest struct {
	GeoHint     string             `json:"geoHint"`
	Preferences map[string]float64 `json:"preferences"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateSession handles POST /api/v1/session. The body is optional.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body sessionRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			utils.RespondWithErr(w, h.log, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.store.CreateSession(ctx, body.GeoHint, body.Preferences)
	if err != nil {
		utils.RespondWithErr(w, h.log, errs.Persistence(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.SessionID, ExpiresAt: sess.ExpiresAt})
}

// TouchSession handles POST /api/v1/session/:id/touch.
func (h *Handlers) TouchSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.store.TouchSession(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, h.log, SessionError(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sessionResponse{SessionID: sess.SessionID, ExpiresAt: sess.ExpiresAt})
}

type signInRequest struct {
	IDToken   string `json:"idToken"`
	SessionID string `json:"sessionId"`
}

// SignIn handles POST /api/v1/auth/signin. The token comes from the body or
// the Authorization header. A sessionId in the body moves that guest
// session's itineraries to the account.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body signInRequest
	if r.ContentLength > 0 {
		if err := utils.DecodeJSON(w, r, &body); err != nil {
			utils.RespondWithErr(w, h.log, err)
			return
		}
	}
	token := body.IDToken
	if token == "" {
		token = utils.BearerToken(r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	ident, err := h.resolver.Resolve(ctx, token)
	if err != nil {
		h.log.Debug("sign-in rejected", zap.Error(err))
		utils.RespondWithErr(w, h.log, errs.Unauthorized("invalid or missing token"))
		return
	}

	user, err := h.store.UpsertUser(ctx, ident.Profile())
	if err != nil {
		utils.RespondWithErr(w, h.log, errs.Persistence(err))
		return
	}

	resp := utils.M{"success": true, "user": user, "message": "signed in"}
	if body.SessionID != "" {
		res, err := h.migrator.Migrate(ctx, body.SessionID, user.UserID)
		if err != nil {
			utils.RespondWithErr(w, h.log, err)
			return
		}
		resp["migrationResult"] = res
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Profile handles GET /api/v1/auth/profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid := utils.GetUserIDFromRequest(r)
	if uid == "" {
		utils.RespondWithErr(w, h.log, errs.Unauthorized("authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.store.GetUser(ctx, uid)
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithErr(w, h.log, errs.NotFound("user profile not found"))
		return
	case err != nil:
		utils.RespondWithErr(w, h.log, errs.Persistence(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "user": user})
}

// Refresh handles POST /api/v1/auth/refresh: it re-syncs the profile from
// the token claims and bumps lastActiveAt.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident := IdentityFromContext(r.Context())
	if ident == nil {
		utils.RespondWithErr(w, h.log, errs.Unauthorized("authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.UpsertUser(ctx, ident.Profile()); err != nil {
		utils.RespondWithErr(w, h.log, errs.Persistence(err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "session refreshed"})
}

// SessionError classifies a store error raised for a session owner.
func SessionError(err error) error {
	switch {
	case errors.Is(err, db.ErrSessionNotFound):
		return errs.Session("session not found", err)
	case errors.Is(err, db.ErrSessionExpired):
		return errs.Session("session expired", err)
	default:
		return errs.Persistence(err)
	}
}
