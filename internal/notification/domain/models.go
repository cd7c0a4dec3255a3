// Package domain contains persistence models and contracts for inbound
// payment notifications.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status tracks a notification through reconciliation.
type Status string

const (
	StatusSMSReceived Status = "sms_received"
	StatusMatched     Status = "matched"
	StatusUnmatched   Status = "unmatched"
)

// Source names where a notification came from.
type Source string

const (
	SourceSMS         Source = "sms"
	SourceTransaction Source = "transaction"
)

// PaymentNotification is one deduplicated inbound payment message. The
// content fingerprint is the sole dedup key; re-ingesting the same
// fingerprint is a no-op.
type PaymentNotification struct {
	ID                 snowflake.ID       `gorm:"primaryKey" json:"id"`
	Source             Source             `gorm:"type:text;not null" json:"source"`
	Provider           string             `gorm:"type:text" json:"provider"`
	RawMessage         string             `gorm:"type:text" json:"raw_message"`
	ContentFingerprint string             `gorm:"type:text;not null;uniqueIndex" json:"content_fingerprint"`
	Reference          string             `gorm:"type:text;index" json:"reference"`
	Amount             int64              `json:"amount"`
	Currency           string             `gorm:"type:text" json:"currency"`
	Counterparty       string             `gorm:"type:text" json:"counterparty"`
	Confidence         float64            `json:"confidence"`
	Status             Status             `gorm:"type:text;not null" json:"status"`
	Metadata           datatypes.JSONMap  `json:"metadata,omitempty"`
	ReceivedAt         time.Time          `gorm:"not null;index" json:"received_at"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentNotification) TableName() string { return "payment_notifications" }
