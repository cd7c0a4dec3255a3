package main

import (
	"github.com/bamahomes/sigiyoro/internal/billing"
	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	"github.com/bamahomes/sigiyoro/internal/migration"
	"github.com/bamahomes/sigiyoro/internal/notification"
	"github.com/bamahomes/sigiyoro/internal/observability/metrics"
	"github.com/bamahomes/sigiyoro/internal/plan"
	"github.com/bamahomes/sigiyoro/internal/ratelimit"
	"github.com/bamahomes/sigiyoro/internal/scheduler"
	"github.com/bamahomes/sigiyoro/internal/seed"
	"github.com/bamahomes/sigiyoro/internal/server"
	"github.com/bamahomes/sigiyoro/internal/subscription"
	"github.com/bamahomes/sigiyoro/internal/visitor"
	"github.com/bamahomes/sigiyoro/internal/visitorsession"
	"github.com/bamahomes/sigiyoro/pkg/db"
	"github.com/bamahomes/sigiyoro/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		// Domains
		fingerprint.Module,
		visitorsession.Module,
		visitor.Module,
		notification.Module,
		plan.Module,
		subscription.Module,
		billing.Module,

		// Edge
		ratelimit.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
