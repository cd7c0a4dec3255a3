package service

import (
	"context"
	"strings"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	"github.com/bamahomes/sigiyoro/internal/observability/metrics"
	"github.com/bamahomes/sigiyoro/internal/visitor/domain"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bamahomes/sigiyoro/pkg/log/ctxlogger"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Sessions    sessiondomain.Service
	Fingerprint *fingerprint.Generator

	ObsMetrics *metrics.Metrics `optional:"true"`
}

type visitorService struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	sessions    sessiondomain.Service
	fingerprint *fingerprint.Generator
	metrics     *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &visitorService{
		db:          p.DB,
		log:         p.Log,
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		sessions:    p.Sessions,
		fingerprint: p.Fingerprint,
		metrics:     p.ObsMetrics,
	}
}

// Recognize resolves the visitor behind a request. Resolution order is
// session token, then email, then phone, then device fingerprint. A match
// found through a contact attribute mints a fresh session so subsequent
// requests recognize through the cheaper token path.
//
// Recognition never fails the caller: any storage or database error
// degrades to an anonymous result.
func (s *visitorService) Recognize(ctx context.Context, store local.Store, req domain.RecognizeRequest) domain.RecognitionResult {
	log := ctxlogger.WithContext(ctx, s.log)

	if token, ok := store.Get(local.TokenKey); ok && strings.TrimSpace(token) != "" {
		sess, err := s.sessions.Validate(ctx, token, req.AgencyID)
		if err == nil && sess != nil {
			result := domain.RecognitionResult{
				ContactID:    &sess.ContactID,
				Method:       domain.MethodSessionToken,
				SessionValid: true,
			}
			if contact, cerr := s.repo.FindByID(ctx, s.db, sess.ContactID); cerr == nil && contact != nil {
				result.DaysSinceLastVisit = s.daysSince(contact.LastSeenAt)
				s.touch(ctx, contact.ID)
			}
			s.record(domain.MethodSessionToken)
			return result
		}
		// A dead token is cleared so the attribute lookups below can
		// recover the visitor and mint a replacement.
		s.sessions.ClearLocal(store)
		log.Debug("session token rejected", zap.Error(err))
	}

	fp := s.fingerprint.Compute(req.Signals)

	contact, method := s.lookupContact(ctx, req, fp)
	if contact == nil {
		s.record(domain.MethodNone)
		return domain.RecognitionResult{Method: domain.MethodNone}
	}

	result := domain.RecognitionResult{
		ContactID:          &contact.ID,
		Method:             method,
		SessionValid:       false,
		DaysSinceLastVisit: s.daysSince(contact.LastSeenAt),
	}

	s.mintSession(ctx, store, contact.ID, req, method, fp)
	s.touch(ctx, contact.ID)
	s.record(method)
	return result
}

// Identify binds an email or phone to the current device, creating the
// contact when no existing one matches.
func (s *visitorService) Identify(ctx context.Context, store local.Store, req domain.IdentifyRequest) (domain.IdentifyResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return domain.IdentifyResult{}, domain.ErrMissingIdentifier
	}

	log := ctxlogger.WithContext(ctx, s.log)
	fp := s.fingerprint.Compute(req.Signals)
	now := s.clock.Now()

	var contact *domain.VisitorContact
	var method domain.RecognitionMethod
	var err error

	if email != "" {
		contact, err = s.repo.FindByEmail(ctx, s.db, email)
		method = domain.MethodEmail
	}
	if err == nil && contact == nil && phone != "" {
		contact, err = s.repo.FindByPhone(ctx, s.db, phone)
		method = domain.MethodPhone
	}
	if err != nil {
		return domain.IdentifyResult{}, err
	}

	created := false
	if contact == nil {
		contact = &domain.VisitorContact{
			ID:          s.genID.Generate(),
			Fingerprint: fp,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		if email != "" {
			contact.Email = &email
			method = domain.MethodEmail
		}
		if phone != "" {
			contact.Phone = &phone
			if email == "" {
				method = domain.MethodPhone
			}
		}
		if err := s.repo.Insert(ctx, s.db, contact); err != nil {
			return domain.IdentifyResult{}, err
		}
		created = true
		log.Info("visitor contact created", zap.Int64("contact_id", contact.ID.Int64()))
	} else {
		s.touch(ctx, contact.ID)
	}

	s.mintSession(ctx, store, contact.ID, domain.RecognizeRequest(req), method, fp)
	s.record(method)

	return domain.IdentifyResult{
		RecognitionResult: domain.RecognitionResult{
			ContactID:          &contact.ID,
			Method:             method,
			SessionValid:       false,
			DaysSinceLastVisit: s.daysSince(contact.LastSeenAt),
		},
		Created: created,
	}, nil
}

// Logout drops the locally stored session and the cached fingerprint.
func (s *visitorService) Logout(ctx context.Context, store local.Store) {
	s.sessions.ClearLocal(store)
}

func (s *visitorService) lookupContact(ctx context.Context, req domain.RecognizeRequest, fp string) (*domain.VisitorContact, domain.RecognitionMethod) {
	log := ctxlogger.WithContext(ctx, s.log)

	type probe struct {
		method domain.RecognitionMethod
		find   func() (*domain.VisitorContact, error)
	}
	probes := []probe{
		{domain.MethodEmail, func() (*domain.VisitorContact, error) {
			return s.repo.FindByEmail(ctx, s.db, req.Email)
		}},
		{domain.MethodPhone, func() (*domain.VisitorContact, error) {
			return s.repo.FindByPhone(ctx, s.db, req.Phone)
		}},
		{domain.MethodFingerprint, func() (*domain.VisitorContact, error) {
			return s.repo.FindByFingerprint(ctx, s.db, fp)
		}},
	}

	for _, p := range probes {
		contact, err := p.find()
		if err != nil {
			log.Warn("visitor lookup failed",
				zap.String("method", string(p.method)),
				zap.Error(err),
			)
			continue
		}
		if contact != nil {
			return contact, p.method
		}
	}
	return nil, domain.MethodNone
}

func (s *visitorService) mintSession(ctx context.Context, store local.Store, contactID snowflake.ID, req domain.RecognizeRequest, method domain.RecognitionMethod, fp string) {
	s.sessions.Create(ctx, store, sessiondomain.CreateSessionRequest{
		ContactID:   contactID,
		AgencyID:    req.AgencyID,
		Method:      method,
		Fingerprint: fp,
		UserAgent:   req.UserAgent,
		ClientIP:    req.ClientIP,
	})
}

func (s *visitorService) touch(ctx context.Context, id snowflake.ID) {
	if err := s.repo.UpdateLastSeen(ctx, s.db, id, s.clock.Now()); err != nil {
		ctxlogger.WithContext(ctx, s.log).Warn("update last_seen failed", zap.Error(err))
	}
}

func (s *visitorService) daysSince(lastSeen time.Time) *int {
	if lastSeen.IsZero() {
		return nil
	}
	days := int(s.clock.Now().Sub(lastSeen).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

func (s *visitorService) record(method domain.RecognitionMethod) {
	s.metrics.RecordRecognition(string(method))
}
