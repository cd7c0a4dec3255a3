// Package domain contains persistence models and contracts for subscription
// plans.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Plan is a purchasable subscription tier. Price is in minor units; a zero
// price means the plan carries no amount constraint at reconciliation time.
type Plan struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null;uniqueIndex" json:"name"`
	PriceCents   int64        `json:"price_cents"`
	Currency     string       `gorm:"type:text" json:"currency"`
	BillingCycle string       `gorm:"type:text;not null" json:"billing_cycle"`
	Active       bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *Plan) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	FindActiveByName(ctx context.Context, db *gorm.DB, name string) (*Plan, error)
}

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Plan, error)
	GetActiveByName(ctx context.Context, name string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Create(ctx context.Context, plan *Plan) error
}

var (
	ErrPlanNotFound  = errors.New("plan_not_found")
	ErrPlanNameTaken = errors.New("plan_name_taken")
	ErrPlanInvalid   = errors.New("plan_invalid")
)
