package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bamahomes/sigiyoro/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyPaymentIngest = "payments:ingest:ip:%s"
	keyPaymentVerify = "payments:verify:ip:%s"
)

// PaymentLimiter throttles the public payment endpoints per client IP. A nil
// limiter (rate limiting disabled) allows everything.
type PaymentLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	ingestRate  float64
	ingestBurst int
	verifyRate  float64
	verifyBurst int
}

func NewPaymentLimiter(cfg config.Config) (*PaymentLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.IngestRate <= 0 || limitCfg.IngestBurst <= 0 {
		return nil, errors.New("ingest rate limit must be positive")
	}
	if limitCfg.VerifyRate <= 0 || limitCfg.VerifyBurst <= 0 {
		return nil, errors.New("verify rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &PaymentLimiter{
		enabled:     true,
		bucket:      NewTokenBucket(client),
		locker:      NewLocker(client),
		ingestRate:  limitCfg.IngestRate,
		ingestBurst: limitCfg.IngestBurst,
		verifyRate:  limitCfg.VerifyRate,
		verifyBurst: limitCfg.VerifyBurst,
	}, nil
}

func (l *PaymentLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PaymentLimiter) AllowIngest(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPaymentIngest, strings.TrimSpace(clientIP)), l.ingestRate, l.ingestBurst)
}

func (l *PaymentLimiter) AllowVerify(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPaymentVerify, strings.TrimSpace(clientIP)), l.verifyRate, l.verifyBurst)
}

// Locker exposes the shared redis lock, nil when rate limiting is disabled.
func (l *PaymentLimiter) Locker() *Locker {
	if !l.Enabled() {
		return nil
	}
	return l.locker
}
