package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bamahomes/sigiyoro/internal/visitor/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.VisitorContact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.VisitorContact, error) {
	return firstContact(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.VisitorContact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return firstContact(db.WithContext(ctx).Where("LOWER(email) = ?", email))
}

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.VisitorContact, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	return firstContact(db.WithContext(ctx).Where("phone = ?", phone))
}

func (r *repo) FindByFingerprint(ctx context.Context, db *gorm.DB, fp string) (*domain.VisitorContact, error) {
	fp = strings.TrimSpace(fp)
	if fp == "" {
		return nil, nil
	}
	return firstContact(db.WithContext(ctx).Where("fingerprint = ?", fp))
}

func (r *repo) UpdateLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.VisitorContact{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func firstContact(stmt *gorm.DB) (*domain.VisitorContact, error) {
	var contact domain.VisitorContact
	err := stmt.Order("first_seen_at ASC").First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}
