package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	"github.com/bamahomes/sigiyoro/internal/observability/metrics"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ipLookupTimeout = 2 * time.Second

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Clock       clock.Clock
	Repo        domain.Repository
	Fingerprint *fingerprint.Generator
	ObsMetrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	clock       clock.Clock
	repo        domain.Repository
	fingerprint *fingerprint.Generator
	obsMetrics  *metrics.Metrics
	httpClient  *http.Client
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("visitorsession.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		clock:       p.Clock,
		repo:        p.Repo,
		fingerprint: p.Fingerprint,
		obsMetrics:  p.ObsMetrics,
		httpClient:  &http.Client{Timeout: ipLookupTimeout},
	}
}

func (s *Service) Create(ctx context.Context, store local.Store, req domain.CreateSessionRequest) domain.CreateSessionResult {
	if req.ContactID == 0 {
		return domain.CreateSessionResult{}
	}

	token, err := newToken()
	if err != nil {
		s.log.Error("session token generation failed", zap.Error(err))
		return domain.CreateSessionResult{}
	}

	duration := req.DurationDays
	if duration <= 0 {
		duration = s.cfg.SessionDurationDays
	}
	if duration <= 0 {
		duration = domain.DefaultDurationDays
	}

	now := s.clock.Now()
	session := &domain.VisitorSession{
		ID:             s.genID.Generate(),
		ContactID:      req.ContactID,
		Token:          token,
		Fingerprint:    req.Fingerprint,
		IPAddress:      s.resolveIP(ctx, req.ClientIP),
		UserAgent:      req.UserAgent,
		AgencyID:       req.AgencyID,
		Method:         req.Method,
		Active:         true,
		CreatedAt:      now,
		ExpiresAt:      now.AddDate(0, 0, duration),
		LastActivityAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, session); err != nil {
		// The visitor simply stays unrecognized on the next page view.
		s.log.Warn("session insert failed", zap.Error(err))
		return domain.CreateSessionResult{}
	}

	if store != nil {
		store.Set(local.TokenKey, session.Token, session.ExpiresAt)
		store.Set(local.VisitorKey, session.ContactID.String(), session.ExpiresAt)
	}

	s.obsMetrics.RecordSessionCreated()
	return domain.CreateSessionResult{Token: session.Token, ExpiresAt: session.ExpiresAt}
}

func (s *Service) Validate(ctx context.Context, token string, agencyID *snowflake.ID) (*domain.VisitorSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Active {
		return nil, domain.ErrSessionNotFound
	}
	if session.Expired(s.clock.Now()) {
		return nil, domain.ErrSessionExpired
	}
	if session.AgencyID != nil && agencyID != nil && *session.AgencyID != *agencyID {
		return nil, domain.ErrSessionScope
	}

	if err := s.repo.Touch(ctx, s.db, session.ID, s.clock.Now()); err != nil {
		s.log.Warn("session touch failed", zap.Error(err))
	}

	return session, nil
}

func (s *Service) HasAccessToAgency(ctx context.Context, store local.Store, agencyID snowflake.ID) bool {
	if store == nil {
		return false
	}
	token, ok := store.Get(local.TokenKey)
	if !ok {
		return false
	}
	if _, ok := store.Get(local.VisitorKey); !ok {
		return false
	}

	session, err := s.Validate(ctx, token, &agencyID)
	if err != nil {
		return false
	}
	return session != nil
}

func (s *Service) ClearLocal(store local.Store) {
	if store != nil {
		store.Remove(local.TokenKey)
		store.Remove(local.VisitorKey)
	}
	s.fingerprint.ClearCache()
}

func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateExpired(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("expired visitor sessions deactivated", zap.Int64("count", count))
	}
	s.obsMetrics.RecordSessionsCleaned(count)
	return count, nil
}

// resolveIP prefers the request's client IP and falls back to a best-effort
// echo service. Lookup failure degrades to "unknown".
func (s *Service) resolveIP(ctx context.Context, clientIP string) string {
	clientIP = strings.TrimSpace(clientIP)
	if clientIP != "" {
		return clientIP
	}
	if s.cfg.IPEchoURL == "" {
		return "unknown"
	}

	reqCtx, cancel := context.WithTimeout(ctx, ipLookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.cfg.IPEchoURL, nil)
	if err != nil {
		return "unknown"
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "unknown"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil || resp.StatusCode != http.StatusOK {
		return "unknown"
	}
	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return "unknown"
	}
	return ip
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
