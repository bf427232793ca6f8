package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/olekstore/primecod-sync-service/internal/contextkeys"
)

func TestFieldsFromContextEmpty(t *testing.T) {
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestFieldsFromContextExtractsStampedValues(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithStoreDomain(ctx, "test-store.myshopify.com")
	ctx = context.WithValue(ctx, contextkeys.TraceIDKey, "trace-abc")

	fields := FieldsFromContext(ctx)

	assert.Contains(t, fields, zap.String("run_id", "run-123"))
	assert.Contains(t, fields, zap.String("store_domain", "test-store.myshopify.com"))
	assert.Contains(t, fields, zap.String("trace_id", "trace-abc"))
}

func TestEmptyValuesAreNotStamped(t *testing.T) {
	ctx := WithRunID(context.Background(), "")
	ctx = WithStoreDomain(ctx, "")

	assert.Empty(t, FieldsFromContext(ctx))
}

func TestFieldsReachLogLines(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := WithRunID(context.Background(), "run-123")
	ctx = context.WithValue(ctx, contextkeys.TraceIDKey, "trace-abc")

	logger.With(FieldsFromContext(ctx)...).Info("run finished")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-123", fields["run_id"])
	assert.Equal(t, "trace-abc", fields["trace_id"])
}
