package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

func strPtr(s string) *string { return &s }

func deliveredLead(tracking string) *models.Lead {
	l := &models.Lead{
		Reference:      "PCOD-1",
		Email:          "a@b.com",
		ShippingStatus: models.ShippingDelivered,
	}
	if tracking != "" {
		l.TrackingNumber = strPtr(tracking)
	}
	return l
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:              1,
		Email:           "a@b.com",
		FinancialStatus: models.FinancialPending,
	}
}

func planTypes(actions []Action) []string {
	types := make([]string, 0, len(actions))
	for _, a := range actions {
		types = append(types, a.Type)
	}
	return types
}

func TestPlanDeliveredWithTracking(t *testing.T) {
	plan := Plan(deliveredLead("123"), pendingOrder())

	assert.Equal(t,
		[]string{ActionCreateFulfillment, ActionMarkAsPaid, ActionUpsertTagsNote},
		planTypes(plan),
	)
	assert.Equal(t, "123", plan[0].TrackingNumber)
	assert.Equal(t, []string{TagDelivered, TagCODFulfilled}, plan[2].Tags)
}

func TestPlanDeliveredWithoutTrackingSkipsFulfillment(t *testing.T) {
	plan := Plan(deliveredLead(""), pendingOrder())

	assert.Equal(t, []string{ActionMarkAsPaid, ActionUpsertTagsNote}, planTypes(plan))
}

func TestPlanDeliveredIdempotentWhenAlreadyTagged(t *testing.T) {
	order := pendingOrder()
	order.FinancialStatus = models.FinancialPaid
	order.Tags = TagDelivered + ", " + TagCODFulfilled

	plan := Plan(deliveredLead("123"), order)

	// Already reconciled: no fulfillment call, no payment call.
	assert.Equal(t, []string{ActionUpsertTagsNote}, planTypes(plan))
}

func TestPlanDeliveredSkipsFulfillmentWhenFulfilled(t *testing.T) {
	order := pendingOrder()
	order.FulfillmentStatus = strPtr(models.FulfillmentFulfilled)

	plan := Plan(deliveredLead("123"), order)

	assert.Equal(t, []string{ActionMarkAsPaid, ActionUpsertTagsNote}, planTypes(plan))
}

func TestPlanReturnedPendingMarksPaidThenRefunds(t *testing.T) {
	lead := deliveredLead("")
	lead.ShippingStatus = models.ShippingReturned

	plan := Plan(lead, pendingOrder())

	assert.Equal(t,
		[]string{ActionMarkAsPaid, ActionCreateRefund, ActionUpsertTagsNote},
		planTypes(plan),
	)
	assert.Equal(t, []string{TagReturned}, plan[2].Tags)
}

func TestPlanReturnedPaidRefundsOnly(t *testing.T) {
	lead := deliveredLead("")
	lead.ShippingStatus = models.ShippingReturned
	order := pendingOrder()
	order.FinancialStatus = models.FinancialPaid

	plan := Plan(lead, order)

	assert.Equal(t, []string{ActionCreateRefund, ActionUpsertTagsNote}, planTypes(plan))
}

func TestPlanReturnedRefundedDoesNothingDestructive(t *testing.T) {
	lead := deliveredLead("")
	lead.ShippingStatus = models.ShippingReturned
	order := pendingOrder()
	order.FinancialStatus = models.FinancialRefunded

	plan := Plan(lead, order)

	assert.Equal(t, []string{ActionUpsertTagsNote}, planTypes(plan))
}

func TestPlanInTransitStatusesOnlyNoteAndTag(t *testing.T) {
	for _, status := range []string{models.ShippingOrderPlaced, models.ShippingShipped, models.ShippingUnknown} {
		lead := deliveredLead("")
		lead.ShippingStatus = status

		plan := Plan(lead, pendingOrder())

		require.Len(t, plan, 1, status)
		assert.Equal(t, ActionUpsertTagsNote, plan[0].Type)
		assert.Equal(t, []string{TagProcessing}, plan[0].Tags)
	}
}

func TestStatusNoteIncludesTracking(t *testing.T) {
	assert.Equal(t, "PrimeCOD PCOD-1: delivered (tracking 123)", statusNote(deliveredLead("123")))
	assert.Equal(t, "PrimeCOD PCOD-1: delivered", statusNote(deliveredLead("")))
}
