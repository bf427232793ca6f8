package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipping statuses as PrimeCOD reports them.
const (
	ShippingOrderPlaced = "order placed"
	ShippingShipped     = "shipped"
	ShippingDelivered   = "delivered"
	ShippingReturned    = "returned"
	ShippingUnknown     = "unknown"
)

// Confirmation statuses on a lead. Duplicates and no-answers never reconcile.
const (
	ConfirmationConfirmed   = "confirmed"
	ConfirmationUnconfirmed = "unconfirmed"
	ConfirmationDuplicate   = "duplicate"
	ConfirmationNoAnswer    = "no-answer"
)

// Lead is a cash-on-delivery order record from the PrimeCOD API.
type Lead struct {
	Reference          string           `json:"reference"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone"`
	ShippingStatus     string           `json:"shipping_status"`
	ConfirmationStatus string           `json:"confirmation_status"`
	TrackingNumber     *string          `json:"tracking_number"`
	CreatedAt          string           `json:"created_at"`
	Country            *string          `json:"country,omitempty"`
	City               *string          `json:"city,omitempty"`
	TotalPrice         *decimal.Decimal `json:"total_price,omitempty"`
	Products           []LeadProduct    `json:"products,omitempty"`
}

type LeadProduct struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LeadsPage is one page of GET /api/leads. PrimeCOD sends no has_more flag;
// an empty Data slice is the end-of-data signal.
type LeadsPage struct {
	Data        []Lead `json:"data"`
	CurrentPage int    `json:"current_page,omitempty"`
}

// Tracking returns the tracking number or "" when absent.
func (l *Lead) Tracking() string {
	if l.TrackingNumber == nil {
		return ""
	}
	return *l.TrackingNumber
}

// CreatedTime parses the lead timestamp. PrimeCOD uses a plain datetime
// format; fall back to RFC3339 for safety. Zero time when unparseable.
func (l *Lead) CreatedTime() time.Time {
	return ParseVendorTime(l.CreatedAt)
}

var vendorTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02",
}

// ParseVendorTime parses the handful of timestamp layouts the two vendors
// emit. Returns the zero time when nothing matches.
func ParseVendorTime(s string) time.Time {
	for _, layout := range vendorTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
