package service

import (
	"context"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type subscriptionService struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &subscriptionService{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *subscriptionService) UpsertActive(ctx context.Context, userID, planID snowflake.ID, start, end time.Time) (*domain.Subscription, error) {
	now := s.clock.Now()
	sub := &domain.Subscription{
		ID:        s.genID.Generate(),
		UserID:    userID,
		PlanID:    planID,
		Status:    domain.StatusActive,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, s.db, sub); err != nil {
		return nil, err
	}

	// Re-read so the caller sees the surviving row when the upsert hit an
	// existing subscription.
	stored, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return sub, nil
	}

	s.log.Info("subscription activated",
		zap.Int64("user_id", userID.Int64()),
		zap.Int64("plan_id", planID.Int64()),
		zap.Time("end_date", stored.EndDate),
	)
	return stored, nil
}

func (s *subscriptionService) GetByUserID(ctx context.Context, userID snowflake.ID) (*domain.Subscription, error) {
	return s.repo.FindByUserID(ctx, s.db, userID)
}
