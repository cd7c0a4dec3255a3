package service

import (
	"context"
	"testing"
	"time"

	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/local"
	"github.com/bamahomes/sigiyoro/internal/visitorsession/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.VisitorSession{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Cfg:         config.Config{SessionDurationDays: 30},
		Clock:       fc,
		Repo:        repository.Provide(),
		Fingerprint: fingerprint.NewGenerator(),
	})

	return &fixture{svc: svc, clock: fc, node: node}
}

func (f *fixture) create(t *testing.T, store local.Store, agencyID *snowflake.ID) domain.CreateSessionResult {
	t.Helper()
	res := f.svc.Create(context.Background(), store, domain.CreateSessionRequest{
		ContactID:   f.node.Generate(),
		AgencyID:    agencyID,
		Method:      visitordomain.MethodEmail,
		Fingerprint: "fp",
	})
	require.False(t, res.Empty())
	return res
}

func TestCreateWritesTokenToStore(t *testing.T) {
	f := newFixture(t)
	store := local.NewMemoryStore()

	res := f.create(t, store, nil)

	token, ok := store.Get(local.TokenKey)
	require.True(t, ok)
	assert.Equal(t, res.Token, token)

	_, ok = store.Get(local.VisitorKey)
	assert.True(t, ok)

	sess, err := f.svc.Validate(context.Background(), res.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Token, sess.Token)
}

func TestValidateUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Validate(context.Background(), "no-such-token", nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestValidateExpiredToken(t *testing.T) {
	f := newFixture(t)
	res := f.create(t, local.NewMemoryStore(), nil)

	f.clock.Advance(31 * 24 * time.Hour)

	_, err := f.svc.Validate(context.Background(), res.Token, nil)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestValidateAgencyScope(t *testing.T) {
	f := newFixture(t)
	agencyA := f.node.Generate()
	agencyB := f.node.Generate()
	res := f.create(t, local.NewMemoryStore(), &agencyA)

	_, err := f.svc.Validate(context.Background(), res.Token, &agencyA)
	assert.NoError(t, err)

	_, err = f.svc.Validate(context.Background(), res.Token, &agencyB)
	assert.ErrorIs(t, err, domain.ErrSessionScope)
}

func TestUnscopedSessionGrantsAnyAgency(t *testing.T) {
	f := newFixture(t)
	store := local.NewMemoryStore()
	f.create(t, store, nil)

	assert.True(t, f.svc.HasAccessToAgency(context.Background(), store, f.node.Generate()))
}

func TestHasAccessToAgencyWithoutToken(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.svc.HasAccessToAgency(context.Background(), local.NewMemoryStore(), f.node.Generate()))
}

func TestClearLocalRemovesKeys(t *testing.T) {
	f := newFixture(t)
	store := local.NewMemoryStore()
	f.create(t, store, nil)

	f.svc.ClearLocal(store)

	_, ok := store.Get(local.TokenKey)
	assert.False(t, ok)
	_, ok = store.Get(local.VisitorKey)
	assert.False(t, ok)
}

func TestCleanupExpiredOnlyTouchesExpired(t *testing.T) {
	f := newFixture(t)
	old := f.create(t, local.NewMemoryStore(), nil)

	f.clock.Advance(31 * 24 * time.Hour)
	fresh := f.create(t, local.NewMemoryStore(), nil)

	count, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = f.svc.Validate(context.Background(), old.Token, nil)
	assert.Error(t, err)

	_, err = f.svc.Validate(context.Background(), fresh.Token, nil)
	assert.NoError(t, err)
}
