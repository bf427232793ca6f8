package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/olekstore/primecod-sync-service/internal/errors"
	"github.com/olekstore/primecod-sync-service/internal/logging"
	"github.com/olekstore/primecod-sync-service/internal/models"
	"github.com/olekstore/primecod-sync-service/internal/reconcile"
	"github.com/olekstore/primecod-sync-service/internal/service"
	"github.com/olekstore/primecod-sync-service/internal/validator"
)

// SyncHandler exposes the reconciliation endpoints. GET is what the
// scheduled trigger hits, POST allows narrowing a manual run.
type SyncHandler struct {
	svc        *service.SyncService
	validator  *validator.RequestValidator
	runTimeout time.Duration
}

func NewSyncHandler(svc *service.SyncService, runTimeout time.Duration) *SyncHandler {
	if runTimeout <= 0 {
		runTimeout = 180 * time.Second
	}
	return &SyncHandler{
		svc:        svc,
		validator:  validator.NewRequestValidator(),
		runTimeout: runTimeout,
	}
}

// Sync runs a full reconciliation pass. GET runs with defaults; POST takes
// a SyncRequest body.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	logger := zap.L().With(logging.FieldsFromContext(r.Context())...)

	var req models.SyncRequest

	switch r.Method {
	case http.MethodGet:
		req.DryRun = r.URL.Query().Get("dry_run") == "true"
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid JSON", zap.Error(err))
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.validator.ValidateSyncRequest(&req); err != nil {
		logger.Error("sync request validation failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	logger.Info("sync run requested",
		zap.Int("max_pages", req.MaxPages),
		zap.Bool("dry_run", req.DryRun),
		zap.Strings("statuses", req.Statuses),
	)

	result, err := h.svc.HandleSyncRequest(ctx, req)
	if err != nil {
		logger.Error("sync run failed", zap.Error(err))
		http.Error(w, err.Error(), apperrors.GetStatusCode(err))
		return
	}

	writeJSON(w, result)

	logger.Info("sync run completed",
		zap.String("run_id", result.RunID),
		zap.Int("total_leads", result.TotalLeads),
		zap.Int("matched", result.Matched),
		zap.Int("actions_applied", result.ActionsApplied),
		zap.Bool("partial_timeout", result.PartialTimeout),
	)
}

// SyncLead reconciles a single lead: GET /sync/lead?reference=PCOD-1.
func (h *SyncHandler) SyncLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reference := r.URL.Query().Get("reference")
	if err := h.validator.ValidateReference(reference); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	result, err := h.svc.HandleLeadRequest(ctx, reference, dryRun)
	if err != nil {
		zap.L().With(logging.FieldsFromContext(r.Context())...).
			Error("lead sync failed", zap.String("reference", reference), zap.Error(err))
		http.Error(w, err.Error(), apperrors.GetStatusCode(err))
		return
	}
	if result.TotalLeads == 0 {
		http.Error(w, "lead not found: "+reference, http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

// previewResponse is the dry-run view of one order against one lead.
type previewResponse struct {
	OrderID        int64    `json:"order_id"`
	Reference      string   `json:"reference"`
	ShippingStatus string   `json:"shipping_status"`
	Tags           []string `json:"order_tags"`
	Financial      string   `json:"financial_status"`
	Fulfilled      bool     `json:"fulfilled"`
	PlannedActions []string `json:"planned_actions"`
}

// ReconcilePreview shows the planned actions for one pair without executing:
// GET /orders/reconcile-preview?order_id=1&reference=PCOD-1.
func (h *SyncHandler) ReconcilePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orderID, err := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "order_id must be a positive integer", http.StatusBadRequest)
		return
	}
	reference := r.URL.Query().Get("reference")
	if err := h.validator.ValidateReference(reference); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	lead, err := h.svc.FindLead(ctx, reference)
	if err != nil {
		http.Error(w, err.Error(), apperrors.GetStatusCode(err))
		return
	}
	if lead == nil {
		http.Error(w, "lead not found: "+reference, http.StatusNotFound)
		return
	}

	plan, order, err := h.svc.PreviewOrder(ctx, orderID, lead)
	if err != nil {
		http.Error(w, err.Error(), apperrors.GetStatusCode(err))
		return
	}

	resp := previewResponse{
		OrderID:        order.ID,
		Reference:      lead.Reference,
		ShippingStatus: lead.ShippingStatus,
		Tags:           order.TagList(),
		Financial:      order.FinancialStatus,
		Fulfilled:      order.IsFulfilled(),
		PlannedActions: actionTypes(plan),
	}
	writeJSON(w, resp)
}

func actionTypes(plan []reconcile.Action) []string {
	types := make([]string, 0, len(plan))
	for _, a := range plan {
		types = append(types, a.Type)
	}
	return types
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("error encoding response", zap.Error(err))
	}
}
