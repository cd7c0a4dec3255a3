// Package domain contains persistence models and contracts for payment
// verification.
package domain

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "github.com/bamahomes/sigiyoro/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptPaid    AttemptStatus = "paid"
	AttemptFailed  AttemptStatus = "failed"
)

type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// BillingAttempt records one user's claim to have paid via an external
// payment reference. The (user_id, payment_reference) pair is unique so
// repeated verification calls reuse the same attempt.
type BillingAttempt struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID  `gorm:"not null;uniqueIndex:idx_attempt_user_reference" json:"user_id"`
	PlanID           snowflake.ID  `gorm:"not null" json:"plan_id"`
	Amount           int64         `json:"amount"`
	Status           AttemptStatus `gorm:"type:text;not null" json:"status"`
	Method           string        `gorm:"type:text" json:"method"`
	PaymentReference string        `gorm:"type:text;not null;uniqueIndex:idx_attempt_user_reference" json:"payment_reference"`
	CreatedAt        time.Time     `json:"created_at"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TableName sets the database table name.
func (BillingAttempt) TableName() string { return "billing_attempts" }

type VerifyRequest struct {
	UserID           snowflake.ID
	PlanID           *snowflake.ID
	PlanName         string
	AmountCents      int64
	PaymentReference string
}

type VerifyResult struct {
	Status       VerificationStatus              `json:"status"`
	Attempt      *BillingAttempt                 `json:"attempt,omitempty"`
	Subscription *subscriptiondomain.Subscription `json:"subscription,omitempty"`
	Notes        []string                        `json:"notes,omitempty"`
}

type Repository interface {
	// FindOrCreate returns the attempt keyed by (user, reference), creating
	// it when absent. Safe under concurrent calls for the same pair.
	FindOrCreate(ctx context.Context, db *gorm.DB, attempt *BillingAttempt) (*BillingAttempt, error)

	UpdateAmount(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status AttemptStatus, paidAt *time.Time) error
}

type Service interface {
	// Verify reconciles a claimed payment reference against stored
	// notifications and activates the subscription when they agree.
	// Business mismatches come back as StatusRejected, not as errors.
	Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error)
}

var (
	ErrMissingUserID    = errors.New("missing_user_id")
	ErrMissingReference = errors.New("missing_payment_reference")
)
