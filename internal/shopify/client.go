package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/olekstore/primecod-sync-service/internal/config"
	apperrors "github.com/olekstore/primecod-sync-service/internal/errors"
	"github.com/olekstore/primecod-sync-service/internal/models"
)

// Client talks to the store platform's Admin REST and GraphQL APIs with a
// static access token. One circuit breaker covers both surfaces, they share
// the same backend.
type Client struct {
	http    *http.Client
	domain  string
	token   string
	version string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) (*Client, error) {
	if cfg.StoreDomain == "" {
		return nil, errors.New("shopify store domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("shopify access token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	version := cfg.APIVersion
	if version == "" {
		version = "2024-01"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "shopify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		http:    &http.Client{Timeout: timeout},
		domain:  cfg.StoreDomain,
		token:   cfg.AccessToken,
		version: version,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (c *Client) restURL(path string) string {
	base := c.domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", base, c.version, path)
}

// doREST performs one REST call and decodes the 2xx body into out.
func (c *Client) doREST(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL(path), reqBody)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, apperrors.ErrUpstream("shopify", resp.StatusCode,
				fmt.Sprintf("%s %s: %s", method, path, string(detail)), nil)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("invalid JSON from store API: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// OrdersQuery bounds an orders.json search.
type OrdersQuery struct {
	Email        string
	Status       string // "any" unless narrowed
	CreatedAtMin time.Time
	Limit        int
}

// SearchOrders fetches candidate orders for matching.
func (c *Client) SearchOrders(ctx context.Context, q OrdersQuery) ([]models.Order, error) {
	params := url.Values{}
	status := q.Status
	if status == "" {
		status = "any"
	}
	params.Set("status", status)
	limit := q.Limit
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if q.Email != "" {
		params.Set("email", q.Email)
	}
	if !q.CreatedAtMin.IsZero() {
		params.Set("created_at_min", q.CreatedAtMin.Format(time.RFC3339))
	}

	var envelope models.OrdersEnvelope
	if err := c.doREST(ctx, http.MethodGet, "orders.json?"+params.Encode(), nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Orders, nil
}

// GetOrder fetches a single order fresh. Reconciliation always re-reads
// before mutating, the remote state is the only state there is.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var envelope models.OrderEnvelope
	path := fmt.Sprintf("orders/%d.json", orderID)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Order, nil
}

// UpdateOrderTagsNote PUTs the whole order back with new tags and note.
// Last write wins on the remote side, there is no concurrency token.
func (c *Client) UpdateOrderTagsNote(ctx context.Context, orderID int64, tags, note string) error {
	body := map[string]interface{}{
		"order": map[string]interface{}{
			"id":   orderID,
			"tags": tags,
			"note": note,
		},
	}
	path := fmt.Sprintf("orders/%d.json", orderID)
	return c.doREST(ctx, http.MethodPut, path, body, nil)
}

// GetFulfillmentOrders resolves the fulfillment-request sub-resources of an
// order. fulfillmentCreateV2 must target these, not the order itself.
func (c *Client) GetFulfillmentOrders(ctx context.Context, orderID int64) ([]models.FulfillmentOrder, error) {
	var envelope models.FulfillmentOrdersEnvelope
	path := fmt.Sprintf("orders/%d/fulfillment_orders.json", orderID)
	if err := c.doREST(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.FulfillmentOrders, nil
}

// execute performs one GraphQL call and returns the raw data object.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("error marshaling GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL("graphql.json"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, apperrors.ErrUpstream("shopify", resp.StatusCode,
				fmt.Sprintf("POST graphql.json: %s", string(detail)), nil)
		}

		var gqlResp GraphQLResponse
		if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
			return nil, fmt.Errorf("invalid GraphQL JSON: %w", err)
		}
		if len(gqlResp.Errors) > 0 {
			return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
		}
		return gqlResp.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}

func orderGID(orderID int64) string {
	return fmt.Sprintf("gid://shopify/Order/%d", orderID)
}

// CreateFulfillment attaches the COD tracking number to the order's open
// fulfillment orders. The customer is not notified.
func (c *Client) CreateFulfillment(ctx context.Context, orderID int64, trackingNumber, carrier string) error {
	fulfillmentOrders, err := c.GetFulfillmentOrders(ctx, orderID)
	if err != nil {
		return fmt.Errorf("resolve fulfillment orders: %w", err)
	}

	lineItemsByFO := make([]map[string]interface{}, 0, len(fulfillmentOrders))
	for _, fo := range fulfillmentOrders {
		if fo.Status != "open" && fo.Status != "in_progress" {
			continue
		}
		items := make([]map[string]interface{}, 0, len(fo.LineItems))
		for _, li := range fo.LineItems {
			if li.FulfillableQuantity <= 0 {
				continue
			}
			items = append(items, map[string]interface{}{
				"id":       fmt.Sprintf("gid://shopify/FulfillmentOrderLineItem/%d", li.ID),
				"quantity": li.FulfillableQuantity,
			})
		}
		if len(items) == 0 {
			continue
		}
		lineItemsByFO = append(lineItemsByFO, map[string]interface{}{
			"fulfillmentOrderId":        fmt.Sprintf("gid://shopify/FulfillmentOrder/%d", fo.ID),
			"fulfillmentOrderLineItems": items,
		})
	}
	if len(lineItemsByFO) == 0 {
		return fmt.Errorf("order %d has no open fulfillment orders", orderID)
	}

	variables := map[string]interface{}{
		"fulfillment": map[string]interface{}{
			"lineItemsByFulfillmentOrder": lineItemsByFO,
			"notifyCustomer":              false,
			"trackingInfo": map[string]interface{}{
				"company": carrier,
				"number":  trackingNumber,
			},
		},
	}

	data, err := c.execute(ctx, FulfillmentCreateMutation, variables)
	if err != nil {
		return fmt.Errorf("fulfillmentCreateV2: %w", err)
	}

	var result struct {
		FulfillmentCreateV2 struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"fulfillmentCreateV2"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse fulfillmentCreateV2 response: %w", err)
	}
	if len(result.FulfillmentCreateV2.UserErrors) > 0 {
		return fmt.Errorf("fulfillmentCreateV2 userErrors: %v", result.FulfillmentCreateV2.UserErrors)
	}

	c.logger.Info("fulfillment created",
		zap.Int64("order_id", orderID),
		zap.String("tracking_number", trackingNumber),
	)
	return nil
}

// MarkOrderAsPaid settles a pending COD order by synthesizing a payment
// transaction.
func (c *Client) MarkOrderAsPaid(ctx context.Context, orderID int64) error {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"id": orderGID(orderID),
		},
	}

	data, err := c.execute(ctx, OrderMarkAsPaidMutation, variables)
	if err != nil {
		return fmt.Errorf("orderMarkAsPaid: %w", err)
	}

	var result struct {
		OrderMarkAsPaid struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"orderMarkAsPaid"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse orderMarkAsPaid response: %w", err)
	}
	if len(result.OrderMarkAsPaid.UserErrors) > 0 {
		return fmt.Errorf("orderMarkAsPaid userErrors: %v", result.OrderMarkAsPaid.UserErrors)
	}

	c.logger.Info("order marked as paid", zap.Int64("order_id", orderID))
	return nil
}

// CreateFullRefund refunds the full order amount without restocking the
// returned items.
func (c *Client) CreateFullRefund(ctx context.Context, order *models.Order, note string) error {
	refundLineItems := make([]map[string]interface{}, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		refundLineItems = append(refundLineItems, map[string]interface{}{
			"lineItemId":  fmt.Sprintf("gid://shopify/LineItem/%d", li.ID),
			"quantity":    li.Quantity,
			"restockType": "NO_RESTOCK",
		})
	}

	amount := order.TotalPrice
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("order %d has no refundable amount", order.ID)
	}

	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"orderId":         orderGID(order.ID),
			"note":            note,
			"notify":          false,
			"refundLineItems": refundLineItems,
			"transactions": []map[string]interface{}{
				{
					"orderId": orderGID(order.ID),
					"kind":    "REFUND",
					"gateway": "manual",
					"amount":  amount.StringFixed(2),
				},
			},
		},
	}

	data, err := c.execute(ctx, RefundCreateMutation, variables)
	if err != nil {
		return fmt.Errorf("refundCreate: %w", err)
	}

	var result struct {
		RefundCreate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"refundCreate"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse refundCreate response: %w", err)
	}
	if len(result.RefundCreate.UserErrors) > 0 {
		return fmt.Errorf("refundCreate userErrors: %v", result.RefundCreate.UserErrors)
	}

	c.logger.Info("refund created",
		zap.Int64("order_id", order.ID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("currency", order.Currency),
	)
	return nil
}
