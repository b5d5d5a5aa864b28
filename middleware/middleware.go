package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"wayfarer/auth"
	"wayfarer/db"
	"wayfarer/globals"
	"wayfarer/utils"
)

// Auth wraps handlers with bearer-token checks.
type Auth struct {
	resolver auth.Resolver
	log      *zap.Logger
}

func NewAuth(resolver auth.Resolver, log *zap.Logger) *Auth {
	return &Auth{resolver: resolver, log: log.Named("middleware")}
}

// token reads the bearer header. Browsers cannot set headers on a
// websocket upgrade, so upgrades may pass the token as a query parameter.
func token(r *http.Request) string {
	if t := utils.BearerToken(r); t != "" {
		return t
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func withIdentity(r *http.Request, id *auth.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, id.Subject)
	ctx = context.WithValue(ctx, globals.IdentityKey, id)
	return r.WithContext(ctx)
}

func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := token(r)
		if tokenString == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		id, err := a.resolver.Resolve(r.Context(), tokenString)
		if err != nil {
			a.log.Debug("token rejected", zap.Error(err))
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, withIdentity(r, id), ps)
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// proceeds regardless of token state.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tokenString := token(r); tokenString != "" {
			if id, err := a.resolver.Resolve(r.Context(), tokenString); err == nil {
				r = withIdentity(r, id)
			} else {
				a.log.Debug("optional token ignored", zap.Error(err))
			}
		}
		next(w, r, ps)
	}
}

// Owner resolves who a request acts for: the authenticated user when
// present, otherwise the guest session named by the X-Session-Id header
// or fallbackSession. ok is false when neither is available.
func Owner(r *http.Request, fallbackSession string) (owner db.Owner, ok bool) {
	if uid := utils.GetUserIDFromRequest(r); uid != "" {
		return db.UserOwner(uid), true
	}
	if sid := utils.GetSessionIDFromRequest(r); sid != "" {
		return db.SessionOwner(sid), true
	}
	if fallbackSession != "" {
		return db.SessionOwner(fallbackSession), true
	}
	return db.Owner{}, false
}
