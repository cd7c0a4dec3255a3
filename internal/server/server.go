package server

import (
	"context"
	"net/http"
	"time"

	billingdomain "github.com/bamahomes/sigiyoro/internal/billing/domain"
	"github.com/bamahomes/sigiyoro/internal/config"
	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	obsmiddleware "github.com/bamahomes/sigiyoro/internal/observability/logger"
	obsmetrics "github.com/bamahomes/sigiyoro/internal/observability/metrics"
	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	"github.com/bamahomes/sigiyoro/internal/ratelimit"
	subscriptiondomain "github.com/bamahomes/sigiyoro/internal/subscription/domain"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Cfg config.Config

	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           p.Cfg.Environment != "production",
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		MaxAge:       12 * time.Hour,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.ObsMetrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "server", payload.Type
	}
	return "client", payload.Type
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	visitors      visitordomain.Service
	sessions      sessiondomain.Service
	notifications notificationdomain.Service
	plans         plandomain.Service
	billing       billingdomain.Service
	subscriptions subscriptiondomain.Service

	limiter    *ratelimit.PaymentLimiter
	obsMetrics *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	Visitors      visitordomain.Service
	Sessions      sessiondomain.Service
	Notifications notificationdomain.Service
	Plans         plandomain.Service
	Billing       billingdomain.Service
	Subscriptions subscriptiondomain.Service

	Limiter    *ratelimit.PaymentLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("server"),
		genID:         p.GenID,
		visitors:      p.Visitors,
		sessions:      p.Sessions,
		notifications: p.Notifications,
		plans:         p.Plans,
		billing:       p.Billing,
		subscriptions: p.Subscriptions,
		limiter:       p.Limiter,
		obsMetrics:    p.ObsMetrics,
	}

	s.registerVisitorRoutes()
	s.registerPaymentRoutes()
	s.registerAdminRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerVisitorRoutes() {
	visitors := s.engine.Group("/api/visitors")

	visitors.POST("/recognize", s.RecognizeVisitor)
	visitors.POST("/identify", s.IdentifyVisitor)
	visitors.POST("/logout", s.LogoutVisitor)
	visitors.GET("/access", s.CheckAgencyAccess)
}

func (s *Server) registerPaymentRoutes() {
	payments := s.engine.Group("/api/payments")

	payments.POST("/notifications", s.rateLimit("ingest"), s.IngestPaymentNotification)
	payments.POST("/verify", s.rateLimit("verify"), s.VerifyPayment)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.GET("/notifications", s.ListNotifications)
	admin.GET("/plans", s.ListPlans)
	admin.POST("/plans", s.CreatePlan)
	admin.POST("/sessions/cleanup", s.CleanupSessions)
}
