package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *VisitorContact) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*VisitorContact, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*VisitorContact, error)
	FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*VisitorContact, error)
	FindByFingerprint(ctx context.Context, db *gorm.DB, fp string) (*VisitorContact, error)
	UpdateLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
