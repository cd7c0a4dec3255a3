// Package domain contains persistence models and contracts for user
// subscriptions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusCanceled Status = "canceled"
)

// Subscription is a user's current plan entitlement. One row per user;
// renewals and plan changes overwrite it in place.
type Subscription struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID    snowflake.ID `gorm:"not null" json:"plan_id"`
	Status    Status       `gorm:"type:text;not null" json:"status"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null" json:"end_date"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

type Repository interface {
	// Upsert inserts the subscription or, when the user already has one,
	// overwrites its plan, status and period.
	Upsert(ctx context.Context, db *gorm.DB, sub *Subscription) error

	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
}

type Service interface {
	// UpsertActive activates or renews the user's subscription. Keyed by
	// user: concurrent activations converge to one row.
	UpsertActive(ctx context.Context, userID, planID snowflake.ID, start, end time.Time) (*Subscription, error)

	GetByUserID(ctx context.Context, userID snowflake.ID) (*Subscription, error)
}
