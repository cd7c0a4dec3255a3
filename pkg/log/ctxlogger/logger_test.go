package ctxlogger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextEnrichesProvidedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithCorrelationID(context.Background(), "cid-123")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "cid-123", fields["correlation_id"])
	assert.Contains(t, fields, "service")
}

func TestWithContextNilContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	WithContext(nil, base).Info("hello")

	require.Len(t, logs.All(), 1)
}

func TestEnsureCorrelationIDGeneratesOnce(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	require.NotEmpty(t, cid)

	_, cid2 := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, cid2)
}
