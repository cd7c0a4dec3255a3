package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	"github.com/bwmarrin/snowflake"
)

// DefaultDurationDays is how long a minted session stays valid.
const DefaultDurationDays = 30

type CreateSessionRequest struct {
	ContactID    snowflake.ID
	AgencyID     *snowflake.ID
	Method       visitordomain.RecognitionMethod
	Fingerprint  string
	UserAgent    string
	ClientIP     string
	DurationDays int
}

type CreateSessionResult struct {
	Token     string    `json:"session_token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Empty reports whether session creation did not happen.
func (r CreateSessionResult) Empty() bool { return r.Token == "" }

type Service interface {
	// Create mints an unguessable token, persists the session and writes the
	// token and visitor id to the provided local store. Storage failures are
	// logged and reported as an empty result, never as an error.
	Create(ctx context.Context, store local.Store, req CreateSessionRequest) CreateSessionResult

	// Validate resolves a token to its session, enforcing expiry, the active
	// flag and agency scope.
	Validate(ctx context.Context, token string, agencyID *snowflake.ID) (*VisitorSession, error)

	// HasAccessToAgency checks the locally stored token against the session
	// table and its recorded agency scope. Unscoped sessions grant access to
	// any agency.
	HasAccessToAgency(ctx context.Context, store local.Store, agencyID snowflake.ID) bool

	// ClearLocal removes the locally stored token and visitor id and resets
	// the cached fingerprint.
	ClearLocal(store local.Store)

	// CleanupExpired bulk-deactivates sessions whose expiry has passed and
	// returns the number affected.
	CleanupExpired(ctx context.Context) (int64, error)
}

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrSessionExpired  = errors.New("session_expired")
	ErrSessionScope    = errors.New("session_agency_mismatch")
)
