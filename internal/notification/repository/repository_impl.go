package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bamahomes/sigiyoro/internal/notification/domain"
	"github.com/bamahomes/sigiyoro/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIgnoreDuplicate(ctx context.Context, db *gorm.DB, n *domain.PaymentNotification) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_fingerprint"}},
			DoNothing: true,
		}).
		Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByFingerprint(ctx context.Context, db *gorm.DB, fingerprint string) (*domain.PaymentNotification, error) {
	return first(db.WithContext(ctx).Where("content_fingerprint = ?", fingerprint))
}

func (r *repo) FindLatestByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentNotification, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	return first(db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("received_at DESC"))
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) error {
	return db.WithContext(ctx).
		Model(&domain.PaymentNotification{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repo) UpdateMetadata(ctx context.Context, db *gorm.DB, id snowflake.ID, metadata map[string]any) error {
	return db.WithContext(ctx).
		Model(&domain.PaymentNotification{}).
		Where("id = ?", id).
		Update("metadata", datatypes.JSONMap(metadata)).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status domain.Status, p pagination.Pagination) ([]*domain.PaymentNotification, error) {
	stmt := db.WithContext(ctx).Model(&domain.PaymentNotification{})
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	if p.PageToken != "" {
		cursor, err := pagination.DecodeCursor(p.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.ID != "" {
			id, err := snowflake.ParseString(cursor.ID)
			if err != nil {
				return nil, err
			}
			stmt = stmt.Where("id < ?", id.Int64())
		}
	}

	size := p.PageSize
	if size <= 0 {
		size = 10
	}

	var rows []*domain.PaymentNotification
	err := stmt.Order("id DESC").Limit(size + 1).Find(&rows).Error
	return rows, err
}

func first(stmt *gorm.DB) (*domain.PaymentNotification, error) {
	var n domain.PaymentNotification
	err := stmt.First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
