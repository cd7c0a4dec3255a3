package domain

import (
	"context"

	"github.com/bamahomes/sigiyoro/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertIgnoreDuplicate inserts the notification unless a row with the
	// same content fingerprint already exists. Returns false when the row
	// was dropped by the conflict clause.
	InsertIgnoreDuplicate(ctx context.Context, db *gorm.DB, n *PaymentNotification) (bool, error)

	FindByFingerprint(ctx context.Context, db *gorm.DB, fingerprint string) (*PaymentNotification, error)
	FindLatestByReference(ctx context.Context, db *gorm.DB, reference string) (*PaymentNotification, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
	UpdateMetadata(ctx context.Context, db *gorm.DB, id snowflake.ID, metadata map[string]any) error
	List(ctx context.Context, db *gorm.DB, status Status, p pagination.Pagination) ([]*PaymentNotification, error)
}
