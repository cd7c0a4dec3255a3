// Package domain contains persistence models and contracts for visitor
// contacts and recognition.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecognitionMethod is the means by which a returning visitor was identified,
// in descending priority.
type RecognitionMethod string

const (
	MethodSessionToken RecognitionMethod = "session_token"
	MethodEmail        RecognitionMethod = "email"
	MethodPhone        RecognitionMethod = "phone"
	MethodFingerprint  RecognitionMethod = "fingerprint"
	MethodNone         RecognitionMethod = "none"
)

// VisitorContact is a known visitor identity. Identity is established by
// whichever of email/phone/fingerprint first matched; only last-seen metadata
// mutates afterwards.
type VisitorContact struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       *string      `gorm:"type:text;index" json:"email,omitempty"`
	Phone       *string      `gorm:"type:text;index" json:"phone,omitempty"`
	Fingerprint string       `gorm:"type:text;not null;index" json:"fingerprint"`
	FirstSeenAt time.Time    `gorm:"not null" json:"first_seen_at"`
	LastSeenAt  time.Time    `gorm:"not null" json:"last_seen_at"`
}

// TableName sets the database table name.
func (VisitorContact) TableName() string { return "visitor_contacts" }

// RecognitionResult is the transient outcome of a recognition attempt. It is
// never persisted.
type RecognitionResult struct {
	ContactID          *snowflake.ID     `json:"visitor_contact_id,omitempty"`
	Method             RecognitionMethod `json:"recognition_method"`
	SessionValid       bool              `json:"session_valid"`
	DaysSinceLastVisit *int              `json:"days_since_last_visit,omitempty"`
}
