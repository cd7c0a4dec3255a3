package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bamahomes/sigiyoro/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

// SMSPayload is an inbound mobile-money SMS forwarded by a gateway.
type SMSPayload struct {
	Sender     string
	Message    string
	ReceivedAt time.Time
}

// TransactionPayload is a generic provider webhook.
type TransactionPayload struct {
	TransactionID string
	Amount        int64
	Status        string
	Currency      string
	Provider      string
	Metadata      map[string]any
	ReceivedAt    time.Time
}

// ValidTransactionStatuses are the accepted webhook status values.
var ValidTransactionStatuses = map[string]bool{
	"pending":    true,
	"completed":  true,
	"failed":     true,
	"cancelled":  true,
	"processing": true,
}

// IngestResult reports what ingestion did with a payload. Filtered and
// Duplicate outcomes are successes, not errors.
type IngestResult struct {
	NotificationID *snowflake.ID `json:"notification_id,omitempty"`
	Parsed         bool          `json:"parsed"`
	Duplicate      bool          `json:"duplicate"`
	Filtered       bool          `json:"filtered"`
	Notes          []string      `json:"notes,omitempty"`
}

type ListRequest struct {
	Status     Status
	Pagination pagination.Pagination
}

type Service interface {
	// IngestSMS parses, filters, fingerprints and stores an SMS payload.
	IngestSMS(ctx context.Context, payload SMSPayload) (IngestResult, error)

	// IngestTransaction runs a generic provider payload through the same
	// filter and dedup pipeline.
	IngestTransaction(ctx context.Context, payload TransactionPayload) (IngestResult, error)

	// FindLatestByReference returns the most recently received notification
	// carrying the given extracted reference, or nil.
	FindLatestByReference(ctx context.Context, reference string) (*PaymentNotification, error)

	// MarkReconciled records the reconciliation outcome on a stored
	// notification.
	MarkReconciled(ctx context.Context, id snowflake.ID, status Status) error

	// List returns notifications for admin review, newest first.
	List(ctx context.Context, req ListRequest) ([]*PaymentNotification, *pagination.PageInfo, error)
}

var (
	ErrEmptyMessage      = errors.New("empty_message")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidStatus     = errors.New("invalid_transaction_status")
	ErrMissingReference  = errors.New("missing_transaction_id")
	ErrNotificationNotFound = errors.New("notification_not_found")
)
