// internal/logging/context.go
package logging

import (
	"context"

	"github.com/olekstore/primecod-sync-service/internal/contextkeys"
	"go.uber.org/zap"
)

// FieldsFromContext extracts the logging fields (run_id, store_domain,
// trace_id) from the context as zap fields, skipping absent ones.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if rid, ok := ctx.Value(contextkeys.RunIDKey).(string); ok && rid != "" {
		fields = append(fields, zap.String("run_id", rid))
	}
	if sd, ok := ctx.Value(contextkeys.StoreDomainKey).(string); ok && sd != "" {
		fields = append(fields, zap.String("store_domain", sd))
	}
	if tid, ok := ctx.Value(contextkeys.TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, zap.String("trace_id", tid))
	}
	return fields
}

// WithRunID stamps a sync run ID onto the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.RunIDKey, runID)
}

// WithStoreDomain stamps the store domain onto the context.
func WithStoreDomain(ctx context.Context, domain string) context.Context {
	if domain == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.StoreDomainKey, domain)
}
