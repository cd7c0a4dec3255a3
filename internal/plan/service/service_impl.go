package service

import (
	"context"
	"strings"

	"github.com/bamahomes/sigiyoro/internal/plan/domain"
	"github.com/bamahomes/sigiyoro/pkg/db"
	"github.com/bamahomes/sigiyoro/pkg/db/option"
	"github.com/bamahomes/sigiyoro/pkg/repository"
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
	Repo  domain.Repository
}

type planService struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	store repository.Repository[domain.Plan]
}

func NewService(p Params) domain.Service {
	return &planService{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		repo:  p.Repo,
		store: repository.ProvideStore[domain.Plan](p.DB),
	}
}

func (s *planService) GetByID(ctx context.Context, id snowflake.ID) (*domain.Plan, error) {
	plan, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) GetActiveByName(ctx context.Context, name string) (*domain.Plan, error) {
	plan, err := s.repo.FindActiveByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// maxPlanList caps the admin catalog listing; it matches the page-size
// ceiling enforced by pkg/db/pagination.
const maxPlanList = 250

func (s *planService) List(ctx context.Context) ([]*domain.Plan, error) {
	return s.store.Find(ctx, &domain.Plan{}, option.OrderBy("name ASC"), option.Limit(maxPlanList))
}

func (s *planService) Create(ctx context.Context, plan *domain.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Name == "" || plan.PriceCents < 0 {
		return domain.ErrPlanInvalid
	}
	if plan.BillingCycle == "" {
		plan.BillingCycle = "monthly"
	}
	if plan.ID == 0 {
		plan.ID = s.genID.Generate()
	}

	if err := s.repo.Insert(ctx, s.db, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrPlanNameTaken
		}
		return err
	}
	return nil
}
