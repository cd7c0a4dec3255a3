// Package local abstracts the client-side persistent storage that carries the
// visitor's session token and contact id across page loads.
package local

import "time"

// Keys persisted on the client. Absence of either means "no local session".
const (
	TokenKey   = "sigiyoro_session_token"
	VisitorKey = "sigiyoro_visitor_id"
)

// Store is the injected local persistence capability. The HTTP layer backs it
// with cookies; tests use the in-memory implementation.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, expiresAt time.Time)
	Remove(key string)
}
