package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bamahomes/sigiyoro/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Create(plan).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindActiveByName(ctx context.Context, db *gorm.DB, name string) (*domain.Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return first(db.WithContext(ctx).Where("LOWER(name) = ? AND active = ?", strings.ToLower(name), true))
}

func first(stmt *gorm.DB) (*domain.Plan, error) {
	var plan domain.Plan
	err := stmt.First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
