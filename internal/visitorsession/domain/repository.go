package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *VisitorSession) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*VisitorSession, error)
	Touch(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	DeactivateExpired(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
