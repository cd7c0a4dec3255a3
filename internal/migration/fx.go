package migration

import (
	billingdomain "github.com/bamahomes/sigiyoro/internal/billing/domain"
	"github.com/bamahomes/sigiyoro/internal/config"
	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	subscriptiondomain "github.com/bamahomes/sigiyoro/internal/subscription/domain"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations target postgres. Other dialects
		// (sqlite for local runs, mysql) derive the schema from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&visitordomain.VisitorContact{},
				&sessiondomain.VisitorSession{},
				&notificationdomain.PaymentNotification{},
				&plandomain.Plan{},
				&billingdomain.BillingAttempt{},
				&subscriptiondomain.Subscription{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
