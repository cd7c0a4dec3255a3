package domain

import (
	"context"
	"errors"

	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bwmarrin/snowflake"
)

type RecognizeRequest struct {
	Email     string
	Phone     string
	AgencyID  *snowflake.ID
	Signals   fingerprint.Signals
	UserAgent string
	ClientIP  string
}

type IdentifyRequest struct {
	Email     string
	Phone     string
	AgencyID  *snowflake.ID
	Signals   fingerprint.Signals
	UserAgent string
	ClientIP  string
}

type IdentifyResult struct {
	RecognitionResult
	Created bool `json:"created"`
}

type Service interface {
	// Recognize decides whether the current browser belongs to a known
	// visitor. Backing-store failures degrade to MethodNone; the call never
	// fails. When a contact is matched by anything other than a valid
	// session token, a fresh session is minted as a side effect.
	Recognize(ctx context.Context, store local.Store, req RecognizeRequest) RecognitionResult

	// Identify finds or creates a contact for a visitor who submitted an
	// email or phone, then mints a session for it.
	Identify(ctx context.Context, store local.Store, req IdentifyRequest) (IdentifyResult, error)

	// Logout invalidates the visitor's local session state.
	Logout(ctx context.Context, store local.Store)
}

var ErrMissingIdentifier = errors.New("missing_identifier")
