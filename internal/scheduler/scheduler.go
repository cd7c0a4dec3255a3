// Package scheduler runs the periodic session cleanup sweep.
package scheduler

import (
	"context"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/ratelimit"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sweepTimeout = 30 * time.Second
	sweepLockKey = "sessions:cleanup:lock"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Sessions sessiondomain.Service

	Locker *ratelimit.Locker `optional:"true"`
}

// Sweeper deactivates expired visitor sessions on an interval. When a redis
// locker is available only one replica runs each sweep.
type Sweeper struct {
	log      *zap.Logger
	interval time.Duration
	clock    clock.Clock
	sessions sessiondomain.Service
	locker   *ratelimit.Locker

	stop chan struct{}
	done chan struct{}
}

func New(p Params) *Sweeper {
	interval := time.Duration(p.Cfg.SessionCleanupEvery) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		log:      p.Log.Named("scheduler"),
		interval: interval,
		clock:    p.Clock,
		sessions: p.Sessions,
		locker:   p.Locker,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop()
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.interval)
		if err != nil {
			s.log.Warn("cleanup lock unavailable", zap.Error(err))
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := s.locker.Release(ctx, sweepLockKey, token); err != nil {
				s.log.Warn("cleanup lock release failed", zap.Error(err))
			}
		}()
	}

	count, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		s.log.Error("session cleanup sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.log.Info("session cleanup sweep done", zap.Int64("count", count))
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, s *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
