package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/olekstore/primecod-sync-service/internal/models"
	"github.com/olekstore/primecod-sync-service/internal/retry"
)

// OrderMutator is the store-side surface the reconciler mutates through.
// The production implementation is the shopify client; tests substitute a
// recorder.
type OrderMutator interface {
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateOrderTagsNote(ctx context.Context, orderID int64, tags, note string) error
	CreateFulfillment(ctx context.Context, orderID int64, trackingNumber, carrier string) error
	MarkOrderAsPaid(ctx context.Context, orderID int64) error
	CreateFullRefund(ctx context.Context, order *models.Order, note string) error
}

// Reconciler applies the decision table to matched pairs. Per-action
// failures are soft: every planned action is attempted and the errors are
// joined, mirroring the report-not-abort contract of the sync run. A crash
// mid-sequence leaves the remote side partially updated; the next run's
// pre-checks pick up from there.
type Reconciler struct {
	store   OrderMutator
	carrier string
	logger  *zap.Logger
}

func New(store OrderMutator, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:   store,
		carrier: Carrier,
		logger:  logger,
	}
}

// Apply plans and executes the reconciliation for one matched pair. It
// returns the action types that were actually applied (skipped no-op
// upserts excluded) and the joined soft errors.
func (r *Reconciler) Apply(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
	plan := Plan(lead, order)

	var applied []string
	var errs error

	for _, action := range plan {
		select {
		case <-ctx.Done():
			return applied, multierr.Append(errs, ctx.Err())
		default:
		}

		var err error
		ran := true

		switch action.Type {
		case ActionCreateFulfillment:
			err = r.store.CreateFulfillment(ctx, order.ID, action.TrackingNumber, r.carrier)
		case ActionMarkAsPaid:
			err = r.store.MarkOrderAsPaid(ctx, order.ID)
		case ActionCreateRefund:
			err = r.store.CreateFullRefund(ctx, order, action.Note)
		case ActionUpsertTagsNote:
			ran, err = r.upsertTagsNote(ctx, order.ID, action.Tags, action.Note)
		default:
			err = fmt.Errorf("unknown action type %q", action.Type)
		}

		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", action.Type, err))
			r.logger.Warn("reconcile action failed",
				zap.String("reference", lead.Reference),
				zap.Int64("order_id", order.ID),
				zap.String("action", action.Type),
				zap.Error(err),
			)
			continue
		}
		if ran {
			applied = append(applied, action.Type)
		}
	}

	return applied, errs
}

// upsertTagsNote is the single read-modify-write path for tags and notes:
// re-fetch the order, merge the tag set (deduplicated, insertion order),
// append the note line if absent, PUT the whole order back. The write is
// retried with backoff since it races with other order mutations; a no-op
// merge skips the PUT entirely. Returns whether a write happened.
func (r *Reconciler) upsertTagsNote(ctx context.Context, orderID int64, tags []string, note string) (bool, error) {
	wrote := false
	err := retry.WithRetry(ctx, 3, 500*time.Millisecond, func() error {
		current, err := r.store.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		mergedTags, tagsChanged := MergeTags(current.TagList(), tags)
		mergedNote, noteChanged := AppendNote(current.Note, note)
		if !tagsChanged && !noteChanged {
			return nil
		}

		if err := r.store.UpdateOrderTagsNote(ctx, orderID, mergedTags, mergedNote); err != nil {
			return err
		}
		wrote = true
		return nil
	})
	return wrote, err
}

// MergeTags merges new tags into the existing set, deduplicating
// case-insensitively while keeping insertion order. Returns the
// comma-joined result and whether it differs from the existing set.
func MergeTags(existing []string, add []string) (string, bool) {
	seen := make(map[string]bool, len(existing)+len(add))
	merged := make([]string, 0, len(existing)+len(add))
	for _, t := range existing {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			merged = append(merged, t)
		}
	}

	changed := false
	for _, t := range add {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			merged = append(merged, t)
			changed = true
		}
	}
	return strings.Join(merged, ", "), changed
}

// AppendNote appends a line to the free-text note unless it is already
// present. Notes are append-only, nothing is ever rewritten.
func AppendNote(existing, line string) (string, bool) {
	if line == "" {
		return existing, false
	}
	if strings.Contains(existing, line) {
		return existing, false
	}
	if existing == "" {
		return line, true
	}
	return existing + "\n" + line, true
}
