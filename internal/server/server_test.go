package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingdomain "github.com/bamahomes/sigiyoro/internal/billing/domain"
	billingrepo "github.com/bamahomes/sigiyoro/internal/billing/repository"
	billingservice "github.com/bamahomes/sigiyoro/internal/billing/service"
	"github.com/bamahomes/sigiyoro/internal/clock"
	"github.com/bamahomes/sigiyoro/internal/config"
	"github.com/bamahomes/sigiyoro/internal/fingerprint"
	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	notificationrepo "github.com/bamahomes/sigiyoro/internal/notification/repository"
	notificationservice "github.com/bamahomes/sigiyoro/internal/notification/service"
	plandomain "github.com/bamahomes/sigiyoro/internal/plan/domain"
	planrepo "github.com/bamahomes/sigiyoro/internal/plan/repository"
	planservice "github.com/bamahomes/sigiyoro/internal/plan/service"
	subscriptiondomain "github.com/bamahomes/sigiyoro/internal/subscription/domain"
	subscriptionrepo "github.com/bamahomes/sigiyoro/internal/subscription/repository"
	subscriptionservice "github.com/bamahomes/sigiyoro/internal/subscription/service"
	visitordomain "github.com/bamahomes/sigiyoro/internal/visitor/domain"
	visitorrepo "github.com/bamahomes/sigiyoro/internal/visitor/repository"
	visitorservice "github.com/bamahomes/sigiyoro/internal/visitor/service"
	sessiondomain "github.com/bamahomes/sigiyoro/internal/visitorsession/domain"
	sessionrepo "github.com/bamahomes/sigiyoro/internal/visitorsession/repository"
	sessionservice "github.com/bamahomes/sigiyoro/internal/visitorsession/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	server *Server
	db     *gorm.DB
	clock  *clock.FakeClock
	node   *snowflake.Node
	plans  plandomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&visitordomain.VisitorContact{},
		&sessiondomain.VisitorSession{},
		&notificationdomain.PaymentNotification{},
		&plandomain.Plan{},
		&billingdomain.BillingAttempt{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	policy := &config.PolicyHolder{}
	policy.Set(config.DefaultPolicyConfig())
	gen := fingerprint.NewGenerator()
	cfg := config.Config{SessionDurationDays: 30}

	sessions := sessionservice.NewService(sessionservice.Params{
		DB: db, Log: logger, GenID: node, Cfg: cfg, Clock: fc,
		Repo: sessionrepo.Provide(), Fingerprint: gen,
	})
	visitors := visitorservice.NewService(visitorservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fc,
		Repo: visitorrepo.Provide(), Sessions: sessions, Fingerprint: gen,
	})
	notifications := notificationservice.NewService(notificationservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fc, Policy: policy,
		Repo: notificationrepo.Provide(),
	})
	plans := planservice.NewService(planservice.Params{
		DB: db, Log: logger, GenID: node, Repo: planrepo.Provide(),
	})
	subscriptions := subscriptionservice.NewService(subscriptionservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fc, Repo: subscriptionrepo.Provide(),
	})
	billing := billingservice.NewService(billingservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fc,
		Repo: billingrepo.Provide(), Plans: plans,
		Notifications: notifications, Subscriptions: subscriptions,
	})

	engine := NewEngine(EngineParams{Cfg: cfg})
	server := NewServer(Params{
		Gin: engine, Cfg: cfg, DB: db, Log: logger, GenID: node,
		Visitors: visitors, Sessions: sessions, Notifications: notifications,
		Plans: plans, Billing: billing, Subscriptions: subscriptions,
	})

	return &fixture{server: server, db: db, clock: fc, node: node, plans: plans}
}

func (f *fixture) request(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIngestSMSNotification(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"sender":  "orange_money",
		"message": "Vous avez recu un transfert de 5000 FCFA du +22370010203. ID: REF-77",
	}

	rec := f.request(t, http.MethodPost, "/api/payments/notifications", body)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "notification stored", out["message"])

	// Absent an explicit timestamp the fake clock stamps both ingests
	// identically, so the second one dedups by fingerprint.
	rec = f.request(t, http.MethodPost, "/api/payments/notifications", body)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode(t, rec)
	assert.Equal(t, "duplicate notification ignored", out["message"])
}

func TestIngestRequiresDiscriminator(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/payments/notifications", map[string]any{
		"currency": "XOF",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestInvalidTransactionStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/payments/notifications", map[string]any{
		"transaction_id": "TX1",
		"amount":         5000,
		"status":         "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestFilteredStillSucceeds(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/payments/notifications", map[string]any{
		"sender":  "orange_money",
		"message": "Vous avez recu un transfert de 50 FCFA du +22370010203. ID: TINY",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "notification filtered", out["message"])
}

func TestVerifyMissingReferenceIsRejectedBeforePlanLookup(t *testing.T) {
	f := newFixture(t)
	// No plans exist at all; a missing reference must 400, not 404.
	rec := f.request(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"user_id":   f.node.Generate().String(),
		"plan_name": "Premium",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyMissingUserID(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"plan_name":         "Premium",
		"payment_reference": "REF1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyUnknownPlanIs404(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"user_id":           f.node.Generate().String(),
		"plan_name":         "Ghost",
		"payment_reference": "REF1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.plans.Create(ctx, &plandomain.Plan{
		Name: "Premium", PriceCents: 15000, Currency: "FCFA", BillingCycle: "monthly", Active: true,
	}))

	rec := f.request(t, http.MethodPost, "/api/payments/notifications", map[string]any{
		"sender":  "orange_money",
		"message": "Vous avez recu un transfert de 15000 FCFA du +22370010203. ID: REF1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"user_id":           f.node.Generate().String(),
		"plan_name":         "Premium",
		"payment_reference": "REF1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "verified", out["status"])
	assert.NotNil(t, out["subscription"])
}

func TestRecognizeUnknownVisitor(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/visitors/recognize", map[string]any{
		"signals": map[string]any{"user_agent": "Mozilla/5.0", "language": "fr-FR"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "none", out["recognition_method"])
}

func TestIdentifyThenRecognizeViaCookie(t *testing.T) {
	f := newFixture(t)
	signals := map[string]any{"user_agent": "Mozilla/5.0", "language": "fr-FR"}

	rec := f.request(t, http.MethodPost, "/api/visitors/identify", map[string]any{
		"email":   "amina@example.com",
		"signals": signals,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, true, out["created"])
	assert.Equal(t, "email", out["recognition_method"])

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "identify should set session cookies")

	rec = f.request(t, http.MethodPost, "/api/visitors/recognize", map[string]any{
		"signals": signals,
	}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	out = decode(t, rec)
	assert.Equal(t, "session_token", out["recognition_method"])
	assert.Equal(t, true, out["session_valid"])
}

func TestIdentifyWithoutContactDetails(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/visitors/identify", map[string]any{
		"signals": map[string]any{"user_agent": "Mozilla/5.0"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsCookies(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/visitors/identify", map[string]any{
		"email":   "amina@example.com",
		"signals": map[string]any{"user_agent": "Mozilla/5.0"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = f.request(t, http.MethodPost, "/api/visitors/logout", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		assert.LessOrEqual(t, cookie.MaxAge, 0, "logout must expire cookie %s", cookie.Name)
	}
}

func TestCheckAgencyAccess(t *testing.T) {
	f := newFixture(t)
	agencyA := f.node.Generate()
	agencyB := f.node.Generate()

	rec := f.request(t, http.MethodPost, "/api/visitors/identify", map[string]any{
		"email":     "amina@example.com",
		"agency_id": agencyA.String(),
		"signals":   map[string]any{"user_agent": "Mozilla/5.0"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = f.request(t, http.MethodGet, "/api/visitors/access?agency_id="+agencyA.String(), nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["has_access"])

	rec = f.request(t, http.MethodGet, "/api/visitors/access?agency_id="+agencyB.String(), nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["has_access"])
}

func TestCheckAgencyAccessWithoutSession(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/visitors/access?agency_id="+f.node.Generate().String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["has_access"])
}

func TestCheckAgencyAccessRequiresAgencyID(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/visitors/access", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPlansRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/admin/plans", map[string]any{
		"name":          "Premium",
		"price_cents":   15000,
		"currency":      "FCFA",
		"billing_cycle": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate name conflicts.
	rec = f.request(t, http.MethodPost, "/admin/plans", map[string]any{
		"name":          "Premium",
		"price_cents":   15000,
		"billing_cycle": "monthly",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.request(t, http.MethodGet, "/admin/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	data, ok := out["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestAdminNotificationsList(t *testing.T) {
	f := newFixture(t)

	for _, ref := range []string{"A1", "B2", "C3"} {
		rec := f.request(t, http.MethodPost, "/api/payments/notifications", map[string]any{
			"transaction_id": ref,
			"amount":         5000,
			"status":         "completed",
			"provider":       "wave",
			"currency":       "XOF",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.request(t, http.MethodGet, "/admin/notifications?page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	data, ok := out["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)

	pageInfo, ok := out["page_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, pageInfo["has_more"])
}

func TestAdminSessionCleanup(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/visitors/identify", map[string]any{
		"email":   "amina@example.com",
		"signals": map[string]any{"user_agent": "Mozilla/5.0"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	f.clock.Advance(31 * 24 * time.Hour)

	rec = f.request(t, http.MethodPost, "/admin/sessions/cleanup", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, float64(1), out["count"])
}
