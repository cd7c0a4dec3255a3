// Package seed bootstraps the catalog rows the service expects at startup.
package seed

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var defaultPlans = []plandomain.Plan{
	{Name: "basic", PriceCents: 5000, Currency: "FCFA", BillingCycle: "monthly", Active: true},
	{Name: "premium", PriceCents: 15000, Currency: "FCFA", BillingCycle: "monthly", Active: true},
	{Name: "premium_annual", PriceCents: 150000, Currency: "FCFA", BillingCycle: "yearly", Active: true},
}

// EnsureDefaultPlans inserts the default plan catalog when the plans table is
// empty of them. Existing rows win; operators may reprice or deactivate plans
// without the seed undoing it.
func EnsureDefaultPlans(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, node, plan); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, plan plandomain.Plan) error {
	var existing plandomain.Plan
	err := tx.WithContext(ctx).Where("name = ?", plan.Name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	plan.ID = node.Generate()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return tx.WithContext(ctx).Create(&plan).Error
}
