package globals

// Context keys
type ContextKey string

const (
	UserIDKey    ContextKey = "userId"
	IdentityKey  ContextKey = "identity"
	SessionIDKey ContextKey = "sessionId"
)

// SessionHeader carries a guest session id on anonymous requests.
const SessionHeader = "X-Session-Id"
