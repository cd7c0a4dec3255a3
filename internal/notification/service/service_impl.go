package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/notification/domain"
	"github.com/bamahomes/sigiyoro/internal/notification/parser"
	"github.com/bamahomes/sigiyoro/internal/observability/metrics"
	"github.com/bamahomes/sigiyoro/pkg/db/pagination"
	"github.com/bamahomes/sigiyoro/pkg/log/ctxlogger"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.PolicyHolder
	Repo   domain.Repository

	ObsMetrics *metrics.Metrics `optional:"true"`
}

type notificationService struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	policy  *config.PolicyHolder
	repo    domain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &notificationService{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		policy:  p.Policy,
		repo:    p.Repo,
		metrics: p.ObsMetrics,
	}
}

func (s *notificationService) IngestSMS(ctx context.Context, payload domain.SMSPayload) (domain.IngestResult, error) {
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		return domain.IngestResult{}, domain.ErrEmptyMessage
	}

	receivedAt := payload.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.clock.Now()
	}

	tx, parsed := parser.Parse(message)
	if !parsed {
		// Unparsed messages are kept for manual review; amount filters do
		// not apply since nothing was extracted.
		n := &domain.PaymentNotification{
			ID:                 s.genID.Generate(),
			Source:             domain.SourceSMS,
			Provider:           strings.TrimSpace(payload.Sender),
			RawMessage:         message,
			ContentFingerprint: fingerprintOf(message, receivedAt),
			Status:             domain.StatusSMSReceived,
			Metadata:           notesMetadata([]string{"message did not match any known pattern"}),
			ReceivedAt:         receivedAt,
		}
		return s.persist(ctx, domain.SourceSMS, n, false, []string{"message did not match any known pattern"})
	}

	notes, filtered, reason := s.applyFilters(tx.Amount, tx.Currency, payload.Sender, receivedAt)
	if filtered {
		s.metrics.RecordNotificationFiltered(reason)
		s.metrics.RecordNotificationIngested(string(domain.SourceSMS), "filtered")
		return domain.IngestResult{Parsed: true, Filtered: true, Notes: notes}, nil
	}

	n := &domain.PaymentNotification{
		ID:                 s.genID.Generate(),
		Source:             domain.SourceSMS,
		Provider:           strings.TrimSpace(payload.Sender),
		RawMessage:         message,
		ContentFingerprint: fingerprintOf(tx.Reference, receivedAt),
		Reference:          tx.Reference,
		Amount:             tx.Amount,
		Currency:           tx.Currency,
		Counterparty:       tx.SenderNumber,
		Confidence:         tx.Confidence,
		Status:             domain.StatusSMSReceived,
		Metadata:           notesMetadata(notes),
		ReceivedAt:         receivedAt,
	}
	return s.persist(ctx, domain.SourceSMS, n, true, notes)
}

func (s *notificationService) IngestTransaction(ctx context.Context, payload domain.TransactionPayload) (domain.IngestResult, error) {
	reference := strings.TrimSpace(payload.TransactionID)
	if reference == "" {
		return domain.IngestResult{}, domain.ErrMissingReference
	}
	if payload.Amount <= 0 {
		return domain.IngestResult{}, domain.ErrInvalidAmount
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if !domain.ValidTransactionStatuses[status] {
		return domain.IngestResult{}, domain.ErrInvalidStatus
	}

	receivedAt := payload.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.clock.Now()
	}

	// A reference seen before is only processed when its provider status
	// changed; the transition updates the stored row instead of adding one.
	stored, err := s.repo.FindLatestByReference(ctx, s.db, reference)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if stored != nil {
		prev, _ := stored.Metadata["transaction_status"].(string)
		if prev == status {
			s.metrics.RecordNotificationIngested(string(domain.SourceTransaction), "duplicate")
			return domain.IngestResult{
				NotificationID: &stored.ID,
				Parsed:         true,
				Duplicate:      true,
				Notes:          []string{"reference already recorded with identical status"},
			}, nil
		}
		return s.recordTransition(ctx, stored, prev, status)
	}

	notes, filtered, reason := s.applyFilters(payload.Amount, payload.Currency, payload.Provider, receivedAt)
	if filtered {
		s.metrics.RecordNotificationFiltered(reason)
		s.metrics.RecordNotificationIngested(string(domain.SourceTransaction), "filtered")
		return domain.IngestResult{Parsed: true, Filtered: true, Notes: notes}, nil
	}

	metadata := notesMetadata(notes)
	metadata["transaction_status"] = status
	for k, v := range payload.Metadata {
		metadata[k] = v
	}

	n := &domain.PaymentNotification{
		ID:                 s.genID.Generate(),
		Source:             domain.SourceTransaction,
		Provider:           strings.TrimSpace(payload.Provider),
		ContentFingerprint: fingerprintOf(payload.Provider+"|"+reference, receivedAt),
		Reference:          reference,
		Amount:             payload.Amount,
		Currency:           strings.ToUpper(strings.TrimSpace(payload.Currency)),
		Confidence:         1,
		Status:             domain.StatusSMSReceived,
		Metadata:           metadata,
		ReceivedAt:         receivedAt,
	}
	return s.persist(ctx, domain.SourceTransaction, n, true, notes)
}

func (s *notificationService) FindLatestByReference(ctx context.Context, reference string) (*domain.PaymentNotification, error) {
	return s.repo.FindLatestByReference(ctx, s.db, strings.TrimSpace(reference))
}

func (s *notificationService) MarkReconciled(ctx context.Context, id snowflake.ID, status domain.Status) error {
	return s.repo.UpdateStatus(ctx, s.db, id, status)
}

func (s *notificationService) List(ctx context.Context, req domain.ListRequest) ([]*domain.PaymentNotification, *pagination.PageInfo, error) {
	size := req.Pagination.PageSize
	if size <= 0 {
		size = 10
	}

	rows, err := s.repo.List(ctx, s.db, req.Status, req.Pagination)
	if err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(rows, int32(size), func(n *domain.PaymentNotification) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: n.ID.String()})
		return token
	})
	if len(rows) > size {
		rows = rows[:size]
	}
	return rows, info, nil
}

func (s *notificationService) persist(ctx context.Context, source domain.Source, n *domain.PaymentNotification, parsed bool, notes []string) (domain.IngestResult, error) {
	created, err := s.repo.InsertIgnoreDuplicate(ctx, s.db, n)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if !created {
		s.metrics.RecordNotificationIngested(string(source), "duplicate")
		result := domain.IngestResult{Parsed: parsed, Duplicate: true, Notes: notes}
		if existing, ferr := s.repo.FindByFingerprint(ctx, s.db, n.ContentFingerprint); ferr == nil && existing != nil {
			result.NotificationID = &existing.ID
		}
		return result, nil
	}

	ctxlogger.WithContext(ctx, s.log).Info("payment notification stored",
		zap.String("source", string(source)),
		zap.String("reference", n.Reference),
		zap.Int64("amount", n.Amount),
	)
	s.metrics.RecordNotificationIngested(string(source), "created")
	return domain.IngestResult{NotificationID: &n.ID, Parsed: parsed, Notes: notes}, nil
}

func (s *notificationService) recordTransition(ctx context.Context, stored *domain.PaymentNotification, prev, next string) (domain.IngestResult, error) {
	metadata := map[string]any(stored.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["transaction_status"] = next
	note := fmt.Sprintf("status transition %s -> %s", orUnknown(prev), next)
	metadata["notes"] = append(notesOf(metadata), note)

	if err := s.repo.UpdateMetadata(ctx, s.db, stored.ID, metadata); err != nil {
		return domain.IngestResult{}, err
	}
	s.metrics.RecordNotificationIngested(string(domain.SourceTransaction), "transition")
	return domain.IngestResult{
		NotificationID: &stored.ID,
		Parsed:         true,
		Notes:          []string{note},
	}, nil
}

// applyFilters runs the business filters. Suppressing filters return
// filtered=true with a machine-readable reason; advisory filters only append
// a note.
func (s *notificationService) applyFilters(amount int64, currency, provider string, receivedAt time.Time) (notes []string, filtered bool, reason string) {
	policy := s.policy.Current()

	if amount < policy.MinAmount {
		notes = append(notes, fmt.Sprintf("amount %d below minimum threshold %d", amount, policy.MinAmount))
		return notes, true, "below_minimum"
	}
	if amount > policy.MaxAmount {
		notes = append(notes, fmt.Sprintf("amount %d above maximum threshold %d", amount, policy.MaxAmount))
		return notes, true, "above_maximum"
	}
	if currency != "" && !policy.SupportsCurrency(currency) {
		notes = append(notes, fmt.Sprintf("unsupported currency %s", currency))
		return notes, true, "unsupported_currency"
	}
	if provider != "" && !policy.ExpectsProvider(provider) {
		notes = append(notes, fmt.Sprintf("unexpected provider %s", provider))
	}
	if s.clock.Now().Sub(receivedAt) > time.Duration(policy.StaleAfterHours)*time.Hour {
		notes = append(notes, fmt.Sprintf("notification older than %d hours", policy.StaleAfterHours))
	}
	return notes, false, ""
}

func fingerprintOf(key string, ts time.Time) string {
	sum := sha256.Sum256([]byte(key + "|" + ts.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

func notesMetadata(notes []string) datatypes.JSONMap {
	metadata := datatypes.JSONMap{}
	if len(notes) > 0 {
		metadata["notes"] = notes
	}
	return metadata
}

func notesOf(metadata map[string]any) []string {
	raw, ok := metadata["notes"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
