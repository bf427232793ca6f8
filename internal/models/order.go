package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Financial statuses on a store order.
const (
	FinancialPending  = "pending"
	FinancialPaid     = "paid"
	FinancialRefunded = "refunded"
)

// FulfillmentFulfilled is the only non-null fulfillment_status we act on.
const FulfillmentFulfilled = "fulfilled"

// Order is a store-platform order resource. Tags travel as a single
// comma-joined string, note is free text.
type Order struct {
	ID                int64            `json:"id"`
	OrderNumber       int64            `json:"order_number"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Phone             *string          `json:"phone"`
	FinancialStatus   string           `json:"financial_status"`
	FulfillmentStatus *string          `json:"fulfillment_status"`
	Tags              string           `json:"tags"`
	Note              string           `json:"note"`
	Currency          string           `json:"currency"`
	TotalPrice        decimal.Decimal  `json:"total_price"`
	CreatedAt         string           `json:"created_at"`
	BillingAddress    *Address         `json:"billing_address,omitempty"`
	ShippingAddress   *Address         `json:"shipping_address,omitempty"`
	LineItems         []LineItem       `json:"line_items,omitempty"`
}

type Address struct {
	Name    string  `json:"name,omitempty"`
	Phone   *string `json:"phone"`
	City    string  `json:"city,omitempty"`
	Zip     string  `json:"zip,omitempty"`
	Country string  `json:"country,omitempty"`
}

type LineItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrdersEnvelope wraps the orders.json search response.
type OrdersEnvelope struct {
	Orders []Order `json:"orders"`
}

// OrderEnvelope wraps the orders/{id}.json response.
type OrderEnvelope struct {
	Order Order `json:"order"`
}

// FulfillmentOrder is the open fulfillment-request sub-resource a
// fulfillmentCreate mutation must target.
type FulfillmentOrder struct {
	ID        int64                      `json:"id"`
	OrderID   int64                      `json:"order_id"`
	Status    string                     `json:"status"`
	LineItems []FulfillmentOrderLineItem `json:"line_items"`
}

type FulfillmentOrderLineItem struct {
	ID                  int64 `json:"id"`
	LineItemID          int64 `json:"line_item_id"`
	FulfillableQuantity int   `json:"fulfillable_quantity"`
}

// FulfillmentOrdersEnvelope wraps orders/{id}/fulfillment_orders.json.
type FulfillmentOrdersEnvelope struct {
	FulfillmentOrders []FulfillmentOrder `json:"fulfillment_orders"`
}

// IsFulfilled reports whether fulfillment_status is "fulfilled" (the field
// is null on untouched orders).
func (o *Order) IsFulfilled() bool {
	return o.FulfillmentStatus != nil && *o.FulfillmentStatus == FulfillmentFulfilled
}

// TagList splits the comma-joined tag string, trimming whitespace and
// dropping empties.
func (o *Order) TagList() []string {
	if o.Tags == "" {
		return []string{}
	}
	parts := strings.Split(o.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HasTag reports whether the order carries the tag (case-insensitive).
func (o *Order) HasTag(tag string) bool {
	for _, t := range o.TagList() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Phones returns the top-level, billing and shipping phone numbers that are
// present, in that order. The matcher compares all of them.
func (o *Order) Phones() []string {
	phones := make([]string, 0, 3)
	if o.Phone != nil && *o.Phone != "" {
		phones = append(phones, *o.Phone)
	}
	if o.BillingAddress != nil && o.BillingAddress.Phone != nil && *o.BillingAddress.Phone != "" {
		phones = append(phones, *o.BillingAddress.Phone)
	}
	if o.ShippingAddress != nil && o.ShippingAddress.Phone != nil && *o.ShippingAddress.Phone != "" {
		phones = append(phones, *o.ShippingAddress.Phone)
	}
	return phones
}

// CreatedTime parses the order creation timestamp.
func (o *Order) CreatedTime() time.Time {
	return ParseVendorTime(o.CreatedAt)
}
