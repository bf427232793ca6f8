package shopify

import "encoding/json"

// GraphQLRequest is the envelope POSTed to the Admin GraphQL endpoint.
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse has Data holding the raw "data" object; mutation-level
// userErrors live inside Data and are checked per call site.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// UserError is the mutation-level error shape shared by the Admin mutations.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// FulfillmentCreateMutation attaches tracking to an open fulfillment order.
// notifyCustomer stays false, the COD provider already messages the buyer.
const FulfillmentCreateMutation = `
mutation fulfillmentCreateV2($fulfillment: FulfillmentV2Input!) {
  fulfillmentCreateV2(fulfillment: $fulfillment) {
    fulfillment {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// OrderMarkAsPaidMutation synthesizes a payment transaction on a pending
// COD order.
const OrderMarkAsPaidMutation = `
mutation orderMarkAsPaid($input: OrderMarkAsPaidInput!) {
  orderMarkAsPaid(input: $input) {
    order {
      id
      displayFinancialStatus
    }
    userErrors {
      field
      message
    }
  }
}`

// RefundCreateMutation creates a full refund without restocking.
const RefundCreateMutation = `
mutation refundCreate($input: RefundInput!) {
  refundCreate(input: $input) {
    refund {
      id
    }
    userErrors {
      field
      message
    }
  }
}`
