package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekstore/primecod-sync-service/internal/config"
	"github.com/olekstore/primecod-sync-service/internal/models"
	"github.com/olekstore/primecod-sync-service/internal/service"
	"github.com/olekstore/primecod-sync-service/internal/shopify"
)

type fakeLeads struct {
	leads []models.Lead
}

func (f *fakeLeads) FetchAllLeads(ctx context.Context, maxPages int) ([]models.Lead, int, error) {
	return f.leads, 1, nil
}

type fakeOrders struct {
	orders []models.Order
}

func (f *fakeOrders) SearchOrders(ctx context.Context, q shopify.OrdersQuery) ([]models.Order, error) {
	return f.orders, nil
}

func (f *fakeOrders) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			return &f.orders[i], nil
		}
	}
	return nil, nil
}

type fakeApplier struct {
	calls int
}

func (f *fakeApplier) Apply(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
	f.calls++
	return []string{"upsert_tags_note"}, nil
}

func newTestHandler(leads []models.Lead, orders []models.Order) (*SyncHandler, *fakeApplier) {
	applier := &fakeApplier{}
	svc := service.NewSyncService(
		&fakeLeads{leads: leads},
		&fakeOrders{orders: orders},
		applier,
		config.SyncConfig{MaxPages: 10, MatchWindow: 48 * time.Hour, MaxConcurrency: 2},
		nil,
	)
	return NewSyncHandler(svc, 10*time.Second), applier
}

func shippedLead(reference, email string) models.Lead {
	return models.Lead{
		Reference:          reference,
		Email:              email,
		ShippingStatus:     models.ShippingShipped,
		ConfirmationStatus: models.ConfirmationConfirmed,
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
	}
}

func TestSyncGetRunsWithDefaults(t *testing.T) {
	handler, applier := newTestHandler(
		[]models.Lead{shippedLead("PCOD-1", "a@b.com")},
		[]models.Order{{ID: 1, Email: "a@b.com"}},
	)

	rec := httptest.NewRecorder()
	handler.Sync(rec, httptest.NewRequest(http.MethodGet, "/sync", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.TotalLeads)
	assert.Equal(t, 1, result.Matched)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, applier.calls)
}

func TestSyncPostRejectsInvalidBody(t *testing.T) {
	handler, _ := newTestHandler(nil, nil)

	rec := httptest.NewRecorder()
	handler.Sync(rec, httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncPostRejectsBadStatuses(t *testing.T) {
	handler, _ := newTestHandler(nil, nil)

	body := `{"statuses":["lost"]}`
	rec := httptest.NewRecorder()
	handler.Sync(rec, httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(nil, nil)

	rec := httptest.NewRecorder()
	handler.Sync(rec, httptest.NewRequest(http.MethodDelete, "/sync", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSyncLeadValidatesReference(t *testing.T) {
	handler, _ := newTestHandler(nil, nil)

	rec := httptest.NewRecorder()
	handler.SyncLead(rec, httptest.NewRequest(http.MethodGet, "/sync/lead?reference=not+valid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncLeadNotFound(t *testing.T) {
	handler, _ := newTestHandler(
		[]models.Lead{shippedLead("PCOD-1", "a@b.com")},
		nil,
	)

	rec := httptest.NewRecorder()
	handler.SyncLead(rec, httptest.NewRequest(http.MethodGet, "/sync/lead?reference=PCOD-404", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncLeadDryRun(t *testing.T) {
	handler, applier := newTestHandler(
		[]models.Lead{shippedLead("PCOD-1", "a@b.com")},
		[]models.Order{{ID: 1, Email: "a@b.com"}},
	)

	rec := httptest.NewRecorder()
	handler.SyncLead(rec, httptest.NewRequest(http.MethodGet, "/sync/lead?reference=PCOD-1&dry_run=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, applier.calls)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.DryRun)
}

func TestReconcilePreview(t *testing.T) {
	lead := shippedLead("PCOD-1", "a@b.com")
	handler, applier := newTestHandler(
		[]models.Lead{lead},
		[]models.Order{{ID: 7, Email: "a@b.com", FinancialStatus: models.FinancialPending}},
	)

	rec := httptest.NewRecorder()
	handler.ReconcilePreview(rec, httptest.NewRequest(http.MethodGet, "/orders/reconcile-preview?order_id=7&reference=PCOD-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, applier.calls, "preview never mutates")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["order_id"])
	assert.Equal(t, "PCOD-1", resp["reference"])
	assert.Contains(t, resp["planned_actions"], "upsert_tags_note")
}

func TestReconcilePreviewBadOrderID(t *testing.T) {
	handler, _ := newTestHandler(nil, nil)

	rec := httptest.NewRecorder()
	handler.ReconcilePreview(rec, httptest.NewRequest(http.MethodGet, "/orders/reconcile-preview?order_id=abc&reference=PCOD-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
