package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.VisitorSession) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.VisitorSession, error) {
	var session domain.VisitorSession
	err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) Touch(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.VisitorSession{}).
		Where("id = ?", id).
		Update("last_activity_at", at).Error
}

func (r *repo) DeactivateExpired(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.VisitorSession{}).
		Where("active = ? AND expires_at <= ?", true, before).
		Update("active", false)
	return res.RowsAffected, res.Error
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.VisitorSession{}).
		Where("id = ?", id).
		Update("active", false).Error
}
