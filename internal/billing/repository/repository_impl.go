package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bamahomes/sigiyoro/internal/billing/domain"
	pkgdb "github.com/bamahomes/sigiyoro/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindOrCreate(ctx context.Context, db *gorm.DB, attempt *domain.BillingAttempt) (*domain.BillingAttempt, error) {
	existing, err := r.find(ctx, db, attempt.UserID, attempt.PaymentReference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		// A concurrent verification for the same pair won the insert.
		if pkgdb.IsDuplicateKeyErr(err) {
			return r.find(ctx, db, attempt.UserID, attempt.PaymentReference)
		}
		return nil, err
	}
	return attempt, nil
}

func (r *repo) UpdateAmount(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64) error {
	return db.WithContext(ctx).
		Model(&domain.BillingAttempt{}).
		Where("id = ?", id).
		Update("amount", amount).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.AttemptStatus, paidAt *time.Time) error {
	updates := map[string]any{"status": status}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	return db.WithContext(ctx).
		Model(&domain.BillingAttempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) find(ctx context.Context, db *gorm.DB, userID snowflake.ID, reference string) (*domain.BillingAttempt, error) {
	var attempt domain.BillingAttempt
	err := db.WithContext(ctx).
		Where("user_id = ? AND payment_reference = ?", userID, reference).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}
