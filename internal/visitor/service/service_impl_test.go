package service

import (
	"context"
	"testing"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	"github.com/bamahomes/sigiyoro/internal/visitor/domain"
	visitorrepo "github.com/bamahomes/sigiyoro/internal/visitor/repository"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	sessionrepo "github.com/bamahomes/sigiyoro/internal/visitorsession/repository"
	sessionservice "github.com/bamahomes/sigiyoro/internal/visitorsession/service"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	node     *snowflake.Node
	visitors domain.Service
	sessions sessiondomain.Service
	store    *local.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.VisitorContact{}, &sessiondomain.VisitorSession{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gen := fingerprint.NewGenerator()

	sessions := sessionservice.NewService(sessionservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Cfg:         config.Config{SessionDurationDays: 30},
		Clock:       fc,
		Repo:        sessionrepo.Provide(),
		Fingerprint: gen,
	})

	visitors := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fc,
		Repo:        visitorrepo.Provide(),
		Sessions:    sessions,
		Fingerprint: gen,
	})

	return &fixture{
		db:       db,
		clock:    fc,
		node:     node,
		visitors: visitors,
		sessions: sessions,
		store:    local.NewMemoryStore(),
	}
}

func (f *fixture) seedContact(t *testing.T, email, phone, fp string) *domain.VisitorContact {
	t.Helper()
	contact := &domain.VisitorContact{
		ID:          f.node.Generate(),
		Fingerprint: fp,
		FirstSeenAt: f.clock.Now().AddDate(0, 0, -10),
		LastSeenAt:  f.clock.Now().AddDate(0, 0, -10),
	}
	if email != "" {
		contact.Email = &email
	}
	if phone != "" {
		contact.Phone = &phone
	}
	require.NoError(t, f.db.Create(contact).Error)
	return contact
}

func signals() fingerprint.Signals {
	return fingerprint.Signals{
		UserAgent:      "Mozilla/5.0",
		Language:       "fr-FR",
		Platform:       "Linux x86_64",
		ScreenWidth:    1920,
		ScreenHeight:   1080,
		ColorDepth:     24,
		TimezoneOffset: 0,
	}
}

func TestRecognizeUnknownVisitor(t *testing.T) {
	f := newFixture(t)

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{Signals: signals()})

	assert.Equal(t, domain.MethodNone, res.Method)
	assert.Nil(t, res.ContactID)
	assert.False(t, res.SessionValid)

	_, ok := f.store.Get(local.TokenKey)
	assert.False(t, ok, "no session should be minted for an unknown visitor")
}

func TestRecognizeByEmailMintsSession(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "amina@example.com", "", "other-device")

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{
		Email:   "Amina@Example.com",
		Signals: signals(),
	})

	assert.Equal(t, domain.MethodEmail, res.Method)
	require.NotNil(t, res.ContactID)
	assert.Equal(t, contact.ID, *res.ContactID)
	assert.False(t, res.SessionValid, "attribute matches report an invalid prior session")
	require.NotNil(t, res.DaysSinceLastVisit)
	assert.Equal(t, 10, *res.DaysSinceLastVisit)

	token, ok := f.store.Get(local.TokenKey)
	require.True(t, ok)
	assert.Len(t, token, 64)
}

func TestRecognizeSessionTokenBeatsEmail(t *testing.T) {
	f := newFixture(t)
	byToken := f.seedContact(t, "", "", "fp-token")
	f.seedContact(t, "amina@example.com", "", "fp-email")

	created := f.sessions.Create(context.Background(), f.store, sessiondomain.CreateSessionRequest{
		ContactID: byToken.ID,
		Method:    domain.MethodFingerprint,
	})
	require.NotEmpty(t, created.Token)

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{
		Email:   "amina@example.com",
		Signals: signals(),
	})

	assert.Equal(t, domain.MethodSessionToken, res.Method)
	require.NotNil(t, res.ContactID)
	assert.Equal(t, byToken.ID, *res.ContactID)
	assert.True(t, res.SessionValid)
}

func TestRecognizeEmailBeatsPhoneAndFingerprint(t *testing.T) {
	f := newFixture(t)
	byEmail := f.seedContact(t, "amina@example.com", "", "fp-a")
	byPhone := f.seedContact(t, "", "+22670000001", "fp-b")

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{
		Email:   "amina@example.com",
		Phone:   "+22670000001",
		Signals: signals(),
	})

	assert.Equal(t, domain.MethodEmail, res.Method)
	require.NotNil(t, res.ContactID)
	assert.Equal(t, byEmail.ID, *res.ContactID)
	assert.NotEqual(t, byPhone.ID, *res.ContactID)
}

func TestRecognizeByFingerprint(t *testing.T) {
	f := newFixture(t)
	gen := fingerprint.NewGenerator()
	fp := gen.Compute(signals())
	contact := f.seedContact(t, "", "", fp)

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{Signals: signals()})

	assert.Equal(t, domain.MethodFingerprint, res.Method)
	require.NotNil(t, res.ContactID)
	assert.Equal(t, contact.ID, *res.ContactID)
}

func TestRecognizeExpiredTokenFallsThrough(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "amina@example.com", "", "fp-a")

	created := f.sessions.Create(context.Background(), f.store, sessiondomain.CreateSessionRequest{
		ContactID:    contact.ID,
		Method:       domain.MethodEmail,
		DurationDays: 1,
	})
	require.NotEmpty(t, created.Token)

	f.clock.Advance(48 * time.Hour)

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{
		Email:   "amina@example.com",
		Signals: signals(),
	})

	assert.Equal(t, domain.MethodEmail, res.Method, "expired token must yield to attribute lookup")
	assert.False(t, res.SessionValid)

	token, ok := f.store.Get(local.TokenKey)
	require.True(t, ok, "a replacement session should be minted")
	assert.NotEqual(t, created.Token, token)
}

func TestRecognizeScopedSessionRejectedForOtherAgency(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "", "", "fp-a")

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	agencyA := node.Generate()
	agencyB := node.Generate()

	f.sessions.Create(context.Background(), f.store, sessiondomain.CreateSessionRequest{
		ContactID: contact.ID,
		AgencyID:  &agencyA,
		Method:    domain.MethodFingerprint,
	})

	res := f.visitors.Recognize(context.Background(), f.store, domain.RecognizeRequest{
		AgencyID: &agencyB,
		Signals:  signals(),
	})

	assert.NotEqual(t, domain.MethodSessionToken, res.Method)
}

func TestIdentifyCreatesContact(t *testing.T) {
	f := newFixture(t)

	res, err := f.visitors.Identify(context.Background(), f.store, domain.IdentifyRequest{
		Email:   "new@example.com",
		Signals: signals(),
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, domain.MethodEmail, res.Method)
	require.NotNil(t, res.ContactID)

	_, ok := f.store.Get(local.TokenKey)
	assert.True(t, ok)

	again, err := f.visitors.Identify(context.Background(), f.store, domain.IdentifyRequest{
		Email:   "new@example.com",
		Signals: signals(),
	})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, *res.ContactID, *again.ContactID)
}

func TestIdentifyRequiresIdentifier(t *testing.T) {
	f := newFixture(t)

	_, err := f.visitors.Identify(context.Background(), f.store, domain.IdentifyRequest{Signals: signals()})
	assert.ErrorIs(t, err, domain.ErrMissingIdentifier)
}

func TestLogoutClearsLocalState(t *testing.T) {
	f := newFixture(t)
	contact := f.seedContact(t, "amina@example.com", "", "fp-a")

	f.sessions.Create(context.Background(), f.store, sessiondomain.CreateSessionRequest{
		ContactID: contact.ID,
		Method:    domain.MethodEmail,
	})
	_, ok := f.store.Get(local.TokenKey)
	require.True(t, ok)

	f.visitors.Logout(context.Background(), f.store)

	_, ok = f.store.Get(local.TokenKey)
	assert.False(t, ok)
	_, ok = f.store.Get(local.VisitorKey)
	assert.False(t, ok)
}
