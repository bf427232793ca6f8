package match

import (
	"time"

	"github.com/olekstore/primecod-sync-service/internal/models"
	"go.uber.org/zap"
)

// Strategy is one method of associating a lead with store orders. It
// returns every order it considers a match; the Matcher breaks ties.
type Strategy interface {
	Name() string
	Match(lead *models.Lead, orders []models.Order) []models.Order
}

// Matcher runs an ordered list of strategies, first hit wins. Exhausting
// every strategy is "no match", not an error; the caller logs and skips.
type Matcher struct {
	strategies []Strategy
	window     time.Duration
	logger     *zap.Logger
}

// New builds the production matcher with the strategy precedence the sync
// relies on: exact email, normalized phone, email local part, domain
// variants.
func New(window time.Duration, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		strategies: []Strategy{
			EmailExact{},
			PhoneNumber{},
			EmailLocalPart{},
			EmailDomainVariant{},
		},
		window: window,
		logger: logger,
	}
}

// NewWithStrategies builds a matcher over an explicit strategy list, in
// precedence order. Used by tests and the preview endpoint.
func NewWithStrategies(window time.Duration, logger *zap.Logger, strategies ...Strategy) *Matcher {
	m := New(window, logger)
	m.strategies = strategies
	return m
}

// Match resolves a lead against the candidate orders. Returns the matched
// order, the name of the strategy that found it, and whether anything
// matched at all.
func (m *Matcher) Match(lead *models.Lead, orders []models.Order) (*models.Order, string, bool) {
	if lead == nil || len(orders) == 0 {
		return nil, "", false
	}

	for _, strategy := range m.strategies {
		candidates := strategy.Match(lead, orders)
		if len(candidates) == 0 {
			continue
		}

		picked := m.pick(lead, candidates)
		m.logger.Debug("lead matched",
			zap.String("reference", lead.Reference),
			zap.String("strategy", strategy.Name()),
			zap.Int64("order_id", picked.ID),
			zap.Int("candidates", len(candidates)),
		)
		return picked, strategy.Name(), true
	}

	return nil, "", false
}

// pick breaks ties within one strategy: prefer an order created within the
// configured window of the lead's creation time, otherwise take the first
// result as returned by the query.
func (m *Matcher) pick(lead *models.Lead, candidates []models.Order) *models.Order {
	if len(candidates) == 1 {
		return &candidates[0]
	}

	leadCreated := lead.CreatedTime()
	if !leadCreated.IsZero() {
		for i := range candidates {
			orderCreated := candidates[i].CreatedTime()
			if orderCreated.IsZero() {
				continue
			}
			delta := orderCreated.Sub(leadCreated)
			if delta < 0 {
				delta = -delta
			}
			if delta <= m.window {
				return &candidates[i]
			}
		}
	}
	return &candidates[0]
}

// EmailExact matches on exact, case-insensitive, trimmed email equality.
type EmailExact struct{}

func (EmailExact) Name() string { return "email_exact" }

func (EmailExact) Match(lead *models.Lead, orders []models.Order) []models.Order {
	email := NormalizeEmail(lead.Email)
	if email == "" {
		return nil
	}
	return matchByEmail(email, orders)
}

// PhoneNumber matches on phone equality after Polish-plan normalization,
// against the order's top-level, billing and shipping phones.
type PhoneNumber struct{}

func (PhoneNumber) Name() string { return "phone" }

func (PhoneNumber) Match(lead *models.Lead, orders []models.Order) []models.Order {
	phone := NormalizePhone(lead.Phone)
	if phone == "" {
		return nil
	}

	var out []models.Order
	for i := range orders {
		for _, candidate := range orders[i].Phones() {
			if NormalizePhone(candidate) == phone {
				out = append(out, orders[i])
				break
			}
		}
	}
	return out
}

// EmailLocalPart matches on the part before the @, ignoring the domain.
type EmailLocalPart struct{}

func (EmailLocalPart) Name() string { return "email_local_part" }

func (EmailLocalPart) Match(lead *models.Lead, orders []models.Order) []models.Order {
	local := LocalPart(lead.Email)
	if local == "" {
		return nil
	}

	var out []models.Order
	for i := range orders {
		if LocalPart(orders[i].Email) == local {
			out = append(out, orders[i])
		}
	}
	return out
}

// EmailDomainVariant retries exact email matching through the fixed table
// of regional domain swaps. First variant with a hit wins.
type EmailDomainVariant struct{}

func (EmailDomainVariant) Name() string { return "email_domain_variant" }

func (EmailDomainVariant) Match(lead *models.Lead, orders []models.Order) []models.Order {
	for _, variant := range DomainVariants(lead.Email) {
		if out := matchByEmail(variant, orders); len(out) > 0 {
			return out
		}
	}
	return nil
}

func matchByEmail(normalized string, orders []models.Order) []models.Order {
	var out []models.Order
	for i := range orders {
		if NormalizeEmail(orders[i].Email) == normalized {
			out = append(out, orders[i])
		}
	}
	return out
}
