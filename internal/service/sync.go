package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olekstore/primecod-sync-service/internal/config"
	"github.com/olekstore/primecod-sync-service/internal/logging"
	"github.com/olekstore/primecod-sync-service/internal/match"
	"github.com/olekstore/primecod-sync-service/internal/models"
	"github.com/olekstore/primecod-sync-service/internal/reconcile"
	"github.com/olekstore/primecod-sync-service/internal/shopify"
	"github.com/olekstore/primecod-sync-service/internal/worker"
)

// LeadSource is the COD-provider surface the sync needs.
type LeadSource interface {
	FetchAllLeads(ctx context.Context, maxPages int) ([]models.Lead, int, error)
}

// OrderSearcher is the store-platform read surface the sync needs.
type OrderSearcher interface {
	SearchOrders(ctx context.Context, q shopify.OrdersQuery) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

// Applier reconciles one matched pair.
type Applier interface {
	Apply(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error)
}

// candidateWindow bounds the order search; leads older than this have no
// business matching anything.
const candidateWindow = 60 * 24 * time.Hour

// SyncService drives one reconciliation run: page through leads, match each
// against the candidate orders, apply the decision table to matched pairs,
// and report per-lead outcomes without aborting on per-lead failure.
type SyncService struct {
	leads      LeadSource
	orders     OrderSearcher
	matcher    *match.Matcher
	reconciler Applier
	cfg        config.SyncConfig
	logger     *zap.Logger
}

func NewSyncService(
	leads LeadSource,
	orders OrderSearcher,
	reconciler Applier,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		leads:      leads,
		orders:     orders,
		matcher:    match.New(cfg.MatchWindow, logger),
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
	}
}

// HandleSyncRequest runs a full reconciliation pass.
func (s *SyncService) HandleSyncRequest(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	logger := s.logger.With(logging.FieldsFromContext(ctx)...)

	maxPages := req.MaxPages
	if maxPages <= 0 || maxPages > s.cfg.MaxPages {
		maxPages = s.cfg.MaxPages
	}

	leads, pages, err := s.leads.FetchAllLeads(ctx, maxPages)
	if err != nil {
		logger.Error("error fetching leads", zap.Error(err))
		return nil, err
	}

	result := &models.SyncResult{
		RunID:        runID,
		TotalLeads:   len(leads),
		PagesFetched: pages,
		DryRun:       req.DryRun,
		Details:      make([]models.LeadOutcome, 0, len(leads)),
		Errors:       []string{},
	}

	if len(leads) == 0 {
		logger.Info("no leads to reconcile")
		result.DurationMS = time.Since(start).Milliseconds()
		return result, nil
	}

	candidates, err := s.orders.SearchOrders(ctx, shopify.OrdersQuery{
		Status:       "any",
		CreatedAtMin: time.Now().Add(-candidateWindow),
	})
	if err != nil {
		logger.Error("error fetching candidate orders", zap.Error(err))
		return nil, err
	}
	logger.Info("run prepared",
		zap.Int("total_leads", len(leads)),
		zap.Int("candidate_orders", len(candidates)),
		zap.Bool("dry_run", req.DryRun),
	)

	statusFilter := map[string]bool{}
	for _, st := range req.Statuses {
		statusFilter[st] = true
	}

	var tasks []worker.Task
	claimed := map[int64]string{}
	for i := range leads {
		select {
		case <-ctx.Done():
			// Partial timeout: surface what got done instead of a 500.
			result.Errors = append(result.Errors,
				fmt.Sprintf("processing cancelled after %d leads: timeout", result.LeadsProcessed))
			result.PartialTimeout = true
			logger.Warn("partial timeout",
				zap.Int("leads_processed", result.LeadsProcessed),
				zap.Int("leads_remaining", len(leads)-i),
			)
			result.DurationMS = time.Since(start).Milliseconds()
			return result, nil
		default:
		}

		lead := &leads[i]
		outcome := models.LeadOutcome{
			Reference:      lead.Reference,
			ShippingStatus: lead.ShippingStatus,
		}

		if reason, skip := skipReason(lead, statusFilter); skip {
			result.LeadsSkipped++
			outcome.Skipped = true
			outcome.SkipReason = reason
			result.Details = append(result.Details, outcome)
			continue
		}

		result.LeadsProcessed++

		order, method, ok := s.matcher.Match(lead, candidates)
		if !ok {
			result.Unmatched++
			logger.Info("no order matched lead",
				zap.String("reference", lead.Reference),
				zap.String("shipping_status", lead.ShippingStatus),
			)
			result.Details = append(result.Details, outcome)
			continue
		}

		// Two leads can match the same order. Reconciling both would race
		// the tag read-modify-write in the pool, so only the first claim
		// gets reconciled.
		if first, taken := claimed[order.ID]; taken {
			result.LeadsSkipped++
			outcome.Skipped = true
			outcome.MatchedOrderID = order.ID
			outcome.MatchMethod = method
			outcome.SkipReason = fmt.Sprintf("order %d already claimed by lead %s in this run", order.ID, first)
			logger.Warn("order claimed twice in one run",
				zap.String("reference", lead.Reference),
				zap.String("first_reference", first),
				zap.Int64("order_id", order.ID),
			)
			result.Details = append(result.Details, outcome)
			continue
		}
		claimed[order.ID] = lead.Reference

		result.Matched++
		outcome.MatchedOrderID = order.ID
		outcome.MatchMethod = method

		if req.DryRun {
			for _, a := range reconcile.Plan(lead, order) {
				outcome.Actions = append(outcome.Actions, a.Type)
			}
			result.Details = append(result.Details, outcome)
			continue
		}

		tasks = append(tasks, worker.Task{
			Index: len(result.Details),
			Lead:  *lead,
			Order: *order,
		})
		result.Details = append(result.Details, outcome)
	}

	if len(tasks) > 0 {
		pool := worker.NewPool(s.reconciler.Apply, s.cfg.MaxConcurrency, logger)
		for _, res := range pool.Run(ctx, tasks) {
			outcome := &result.Details[res.Task.Index]
			outcome.Actions = res.Applied
			result.ActionsApplied += len(res.Applied)
			if res.Err != nil {
				outcome.Errors = append(outcome.Errors, res.Err.Error())
				result.Errors = append(result.Errors,
					fmt.Sprintf("lead %s / order %d: %s", res.Task.Lead.Reference, res.Task.Order.ID, res.Err.Error()))
			}
		}
	}

	result.DurationMS = time.Since(start).Milliseconds()
	logger.Info("run finished",
		zap.Int("matched", result.Matched),
		zap.Int("unmatched", result.Unmatched),
		zap.Int("skipped", result.LeadsSkipped),
		zap.Int("actions_applied", result.ActionsApplied),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// HandleLeadRequest reconciles a single lead by its reference.
func (s *SyncService) HandleLeadRequest(ctx context.Context, reference string, dryRun bool) (*models.SyncResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	logger := s.logger.With(logging.FieldsFromContext(ctx)...)

	leads, pages, err := s.leads.FetchAllLeads(ctx, s.cfg.MaxPages)
	if err != nil {
		logger.Error("error fetching leads", zap.Error(err))
		return nil, err
	}

	result := &models.SyncResult{
		RunID:        runID,
		PagesFetched: pages,
		DryRun:       dryRun,
		Details:      []models.LeadOutcome{},
		Errors:       []string{},
	}

	var lead *models.Lead
	for i := range leads {
		if leads[i].Reference == reference {
			lead = &leads[i]
			break
		}
	}
	if lead == nil {
		result.DurationMS = time.Since(start).Milliseconds()
		return result, nil
	}

	result.TotalLeads = 1
	outcome := models.LeadOutcome{
		Reference:      lead.Reference,
		ShippingStatus: lead.ShippingStatus,
	}

	if reason, skip := skipReason(lead, nil); skip {
		result.LeadsSkipped++
		outcome.Skipped = true
		outcome.SkipReason = reason
		result.Details = append(result.Details, outcome)
		result.DurationMS = time.Since(start).Milliseconds()
		return result, nil
	}

	result.LeadsProcessed++

	candidates, err := s.orders.SearchOrders(ctx, shopify.OrdersQuery{
		Status:       "any",
		CreatedAtMin: time.Now().Add(-candidateWindow),
	})
	if err != nil {
		return nil, err
	}

	order, method, ok := s.matcher.Match(lead, candidates)
	if !ok {
		result.Unmatched++
		result.Details = append(result.Details, outcome)
		result.DurationMS = time.Since(start).Milliseconds()
		return result, nil
	}

	result.Matched++
	outcome.MatchedOrderID = order.ID
	outcome.MatchMethod = method

	if dryRun {
		for _, a := range reconcile.Plan(lead, order) {
			outcome.Actions = append(outcome.Actions, a.Type)
		}
	} else {
		applied, err := s.reconciler.Apply(ctx, lead, order)
		outcome.Actions = applied
		result.ActionsApplied += len(applied)
		if err != nil {
			logger.Error("lead reconcile failed",
				zap.String("reference", lead.Reference),
				zap.Int64("order_id", order.ID),
				zap.Error(err),
			)
			outcome.Errors = append(outcome.Errors, err.Error())
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Details = append(result.Details, outcome)
	result.DurationMS = time.Since(start).Milliseconds()
	return result, nil
}

// PreviewOrder returns the decision-table plan for one order against one
// lead without executing anything. Diagnostic surface.
func (s *SyncService) PreviewOrder(ctx context.Context, orderID int64, lead *models.Lead) ([]reconcile.Action, *models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return reconcile.Plan(lead, order), order, nil
}

// FindLead scans the lead pages for a reference. Returns nil when absent.
func (s *SyncService) FindLead(ctx context.Context, reference string) (*models.Lead, error) {
	leads, _, err := s.leads.FetchAllLeads(ctx, s.cfg.MaxPages)
	if err != nil {
		return nil, err
	}
	for i := range leads {
		if leads[i].Reference == reference {
			return &leads[i], nil
		}
	}
	return nil, nil
}

// skipReason decides whether a lead is excluded before matching. Duplicate
// and no-answer leads can never reconcile; a status filter narrows a run.
func skipReason(lead *models.Lead, statusFilter map[string]bool) (string, bool) {
	switch lead.ConfirmationStatus {
	case models.ConfirmationDuplicate:
		return "duplicate lead", true
	case models.ConfirmationNoAnswer:
		return "no-answer lead", true
	}
	if len(statusFilter) > 0 && !statusFilter[lead.ShippingStatus] {
		return "shipping status filtered out", true
	}
	return "", false
}
