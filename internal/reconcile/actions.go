package reconcile

import (
	"fmt"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

// Tags stamped onto reconciled orders. The tag set is the only idempotency
// signal across runs, so these never change casing or spelling.
const (
	TagDelivered    = "primecod-delivered"
	TagCODFulfilled = "cod-fulfilled"
	TagReturned     = "primecod-returned"
	TagProcessing   = "primecod-processing"
)

// Carrier is the tracking company attached to created fulfillments.
const Carrier = "PrimeCOD"

// Action types, in the order they are executed for one matched pair.
const (
	ActionCreateFulfillment = "create_fulfillment"
	ActionMarkAsPaid        = "mark_as_paid"
	ActionCreateRefund      = "create_refund"
	ActionUpsertTagsNote    = "upsert_tags_note"
)

// Action is one mutation the decision table wants applied to an order.
type Action struct {
	Type           string
	TrackingNumber string
	Tags           []string
	Note           string
}

// Plan is the decision table keyed by the lead's shipping status. It is a
// pure function of the pair: every substantive action carries its
// precondition check here, so re-running against an already-reconciled
// order plans no fulfillment, payment or refund calls. The tags/note upsert
// is always planned and the executor skips it when nothing would change.
func Plan(lead *models.Lead, order *models.Order) []Action {
	var actions []Action

	switch lead.ShippingStatus {
	case models.ShippingDelivered:
		if lead.Tracking() != "" && !order.IsFulfilled() && !order.HasTag(TagCODFulfilled) {
			actions = append(actions, Action{
				Type:           ActionCreateFulfillment,
				TrackingNumber: lead.Tracking(),
			})
		}
		if order.FinancialStatus == models.FinancialPending {
			actions = append(actions, Action{Type: ActionMarkAsPaid})
		}
		actions = append(actions, Action{
			Type: ActionUpsertTagsNote,
			Tags: []string{TagDelivered, TagCODFulfilled},
			Note: statusNote(lead),
		})

	case models.ShippingReturned:
		// A pending return is settled before refunding; an already-paid
		// order only gets the refund. Already-refunded orders get neither.
		if order.FinancialStatus == models.FinancialPending {
			actions = append(actions, Action{Type: ActionMarkAsPaid})
		}
		if order.FinancialStatus != models.FinancialRefunded {
			actions = append(actions, Action{Type: ActionCreateRefund, Note: statusNote(lead)})
		}
		actions = append(actions, Action{
			Type: ActionUpsertTagsNote,
			Tags: []string{TagReturned},
			Note: statusNote(lead),
		})

	default:
		// order placed, shipped, unknown: noted, tagged, nothing mutated.
		actions = append(actions, Action{
			Type: ActionUpsertTagsNote,
			Tags: []string{TagProcessing},
			Note: statusNote(lead),
		})
	}

	return actions
}

// statusNote builds the note line for a lead. Deterministic on purpose: the
// append is skipped when the order note already contains the line, which
// keeps reruns from growing the note.
func statusNote(lead *models.Lead) string {
	if t := lead.Tracking(); t != "" {
		return fmt.Sprintf("PrimeCOD %s: %s (tracking %s)", lead.Reference, lead.ShippingStatus, t)
	}
	return fmt.Sprintf("PrimeCOD %s: %s", lead.Reference, lead.ShippingStatus)
}
