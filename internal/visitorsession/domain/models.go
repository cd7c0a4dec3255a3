// Package domain contains persistence models and contracts for visitor
// sessions.
package domain

import (
	"time"

	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	"github.com/bwmarrin/snowflake"
)

// VisitorSession represents one recognized browsing session. At most one
// valid (active, non-expired) session exists per token; lookups on a missing
// or expired token must never be treated as valid.
type VisitorSession struct {
	ID             snowflake.ID                    `gorm:"primaryKey" json:"id"`
	ContactID      snowflake.ID                    `gorm:"not null;index" json:"visitor_contact_id"`
	Token          string                          `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Fingerprint    string                          `gorm:"type:text;not null" json:"fingerprint"`
	IPAddress      string                          `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent      string                          `gorm:"type:text" json:"user_agent,omitempty"`
	AgencyID       *snowflake.ID                   `gorm:"index" json:"agency_id,omitempty"`
	Method         visitordomain.RecognitionMethod `gorm:"type:text;not null" json:"recognition_method"`
	Active         bool                            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time                       `gorm:"not null" json:"created_at"`
	ExpiresAt      time.Time                       `gorm:"not null;index" json:"expires_at"`
	LastActivityAt time.Time                       `gorm:"not null" json:"last_activity_at"`
}

// TableName sets the database table name.
func (VisitorSession) TableName() string { return "visitor_sessions" }

// Expired reports whether the session is past its expiry at the given instant.
func (s VisitorSession) Expired(at time.Time) bool {
	return !s.ExpiresAt.After(at)
}
