package validator

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

// maxPagesCeiling caps what a request may ask for regardless of config.
const maxPagesCeiling = 50

// RequestValidator validates inbound request parameters before they reach
// the vendor APIs.
type RequestValidator struct {
	referenceRegex *regexp.Regexp
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		// Lead references look like "PCOD-12345": short uppercase prefix,
		// dash, digits.
		referenceRegex: regexp.MustCompile(`^[A-Z]{2,10}-\d{1,12}$`),
	}
}

// ValidateReference checks a lead reference before it is used in lookups.
func (v *RequestValidator) ValidateReference(reference string) error {
	if reference == "" {
		return errors.New("reference is required")
	}
	if !v.referenceRegex.MatchString(reference) {
		return errors.New("reference must look like PCOD-12345")
	}
	return nil
}

var validStatuses = map[string]bool{
	models.ShippingOrderPlaced: true,
	models.ShippingShipped:     true,
	models.ShippingDelivered:   true,
	models.ShippingReturned:    true,
	models.ShippingUnknown:     true,
}

// ValidateSyncRequest checks the body of POST /sync.
func (v *RequestValidator) ValidateSyncRequest(req *models.SyncRequest) error {
	if req.MaxPages < 0 || req.MaxPages > maxPagesCeiling {
		return fmt.Errorf("max_pages must be between 0 and %d", maxPagesCeiling)
	}
	for _, st := range req.Statuses {
		if !validStatuses[st] {
			return fmt.Errorf("unknown shipping status %q", st)
		}
	}
	return nil
}
