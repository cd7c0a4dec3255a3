package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bamahomes/sigiyoro/internal/billing/domain"
	"github.com/bamahomes/sigiyoro/internal/clock"
	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	"github.com/bamahomes/sigiyoro/internal/observability/metrics"
	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	subscriptiondomain "github.com/bamahomes/sigiyoro/internal/subscription/domain"
	"github.com/bamahomes/sigiyoro/pkg/log/ctxlogger"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	Plans         plandomain.Service
	Notifications notificationdomain.Service
	Subscriptions subscriptiondomain.Service

	ObsMetrics *metrics.Metrics `optional:"true"`
}

type billingService struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	plans         plandomain.Service
	notifications notificationdomain.Service
	subscriptions subscriptiondomain.Service
	metrics       *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &billingService{
		db:            p.DB,
		log:           p.Log.Named("billing.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		plans:         p.Plans,
		notifications: p.Notifications,
		subscriptions: p.Subscriptions,
		metrics:       p.ObsMetrics,
	}
}

func (s *billingService) Verify(ctx context.Context, req domain.VerifyRequest) (domain.VerifyResult, error) {
	if req.UserID == 0 {
		return domain.VerifyResult{}, domain.ErrMissingUserID
	}
	reference := strings.TrimSpace(req.PaymentReference)
	if reference == "" {
		return domain.VerifyResult{}, domain.ErrMissingReference
	}

	log := ctxlogger.WithContext(ctx, s.log)

	plan, err := s.resolvePlan(ctx, req)
	if err != nil {
		return domain.VerifyResult{}, err
	}

	attempt, err := s.repo.FindOrCreate(ctx, s.db, &domain.BillingAttempt{
		ID:               s.genID.Generate(),
		UserID:           req.UserID,
		PlanID:           plan.ID,
		Amount:           req.AmountCents,
		Status:           domain.AttemptPending,
		Method:           "mobile_money",
		PaymentReference: reference,
		CreatedAt:        s.clock.Now(),
	})
	if err != nil {
		return domain.VerifyResult{}, err
	}

	notification, err := s.notifications.FindLatestByReference(ctx, reference)
	if err != nil {
		return domain.VerifyResult{}, err
	}

	if notification != nil && attempt.Amount == 0 && notification.Amount > 0 {
		attempt.Amount = notification.Amount
		if err := s.repo.UpdateAmount(ctx, s.db, attempt.ID, attempt.Amount); err != nil {
			return domain.VerifyResult{}, err
		}
	}

	var notes []string
	verified := notification != nil
	if notification == nil {
		notes = append(notes, fmt.Sprintf("no payment notification found for reference %s", reference))
	} else if plan.PriceCents > 0 && attempt.Amount != plan.PriceCents {
		verified = false
		notes = append(notes, fmt.Sprintf("amount %d does not match plan price %d", attempt.Amount, plan.PriceCents))
	}

	if err := s.settleAttempt(ctx, attempt, verified); err != nil {
		return domain.VerifyResult{}, err
	}
	if notification != nil {
		status := notificationdomain.StatusMatched
		if !verified {
			status = notificationdomain.StatusUnmatched
		}
		if err := s.notifications.MarkReconciled(ctx, notification.ID, status); err != nil {
			return domain.VerifyResult{}, err
		}
	}

	result := domain.VerifyResult{Attempt: attempt, Notes: notes}
	if !verified {
		result.Status = domain.StatusRejected
		s.metrics.RecordVerification("rejected")
		log.Info("payment verification rejected",
			zap.Int64("user_id", req.UserID.Int64()),
			zap.String("reference", reference),
			zap.Strings("notes", notes),
		)
		return result, nil
	}

	start := s.clock.Now()
	end := cycleEnd(start, plan.BillingCycle)
	subscription, err := s.subscriptions.UpsertActive(ctx, req.UserID, plan.ID, start, end)
	if err != nil {
		return domain.VerifyResult{}, err
	}

	result.Status = domain.StatusVerified
	result.Subscription = subscription
	s.metrics.RecordVerification("verified")
	log.Info("payment verified",
		zap.Int64("user_id", req.UserID.Int64()),
		zap.String("reference", reference),
		zap.Int64("plan_id", plan.ID.Int64()),
		zap.Time("subscription_end", end),
	)
	return result, nil
}

func (s *billingService) resolvePlan(ctx context.Context, req domain.VerifyRequest) (*plandomain.Plan, error) {
	if req.PlanID != nil && *req.PlanID != 0 {
		return s.plans.GetByID(ctx, *req.PlanID)
	}
	if strings.TrimSpace(req.PlanName) != "" {
		return s.plans.GetActiveByName(ctx, req.PlanName)
	}
	return nil, plandomain.ErrPlanNotFound
}

func (s *billingService) settleAttempt(ctx context.Context, attempt *domain.BillingAttempt, verified bool) error {
	if verified {
		now := s.clock.Now()
		attempt.Status = domain.AttemptPaid
		attempt.PaidAt = &now
		return s.repo.UpdateStatus(ctx, s.db, attempt.ID, domain.AttemptPaid, &now)
	}
	attempt.Status = domain.AttemptFailed
	return s.repo.UpdateStatus(ctx, s.db, attempt.ID, domain.AttemptFailed, nil)
}

// cycleEnd computes the subscription end for a billing cycle starting at
// start. Unknown cycles fall back to monthly.
func cycleEnd(start time.Time, cycle string) time.Time {
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case "quarterly":
		return start.AddDate(0, 3, 0)
	case "semestrial":
		return start.AddDate(0, 6, 0)
	case "yearly", "annual":
		return start.AddDate(1, 0, 0)
	case "weekly":
		return start.AddDate(0, 0, 7)
	case "lifetime":
		return start.AddDate(100, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
