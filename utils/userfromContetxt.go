package utils

import (
	"net/http"
	"strings"

	"wayfarer/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetSessionIDFromRequest returns the guest session id set by middleware,
// falling back to the session header.
func GetSessionIDFromRequest(r *http.Request) string {
	if id, ok := r.Context().Value(globals.SessionIDKey).(string); ok && id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(globals.SessionHeader))
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
