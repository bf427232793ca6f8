package primecod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/olekstore/primecod-sync-service/internal/config"
	apperrors "github.com/olekstore/primecod-sync-service/internal/errors"
	"github.com/olekstore/primecod-sync-service/internal/models"
)

// Client talks to the PrimeCOD leads API. All calls go through a circuit
// breaker so a flapping upstream fails fast instead of eating the whole
// invocation budget.
type Client struct {
	http    *http.Client
	base    string
	token   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewClient(cfg config.PrimeCODConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("primecod base URL is required")
	}
	if cfg.APIToken == "" {
		return nil, errors.New("primecod API token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "primecod",
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
		base:    cfg.BaseURL,
		token:   cfg.APIToken,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// FetchLeads fetches one page of leads. Pages are 1-based.
func (c *Client) FetchLeads(ctx context.Context, page int) ([]models.Lead, error) {
	if page <= 0 {
		page = 1
	}

	url := fmt.Sprintf("%s/api/leads?page=%d", c.base, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, apperrors.ErrUpstream("primecod", resp.StatusCode,
				fmt.Sprintf("GET /api/leads?page=%d: %s", page, string(body)), nil)
		}

		var pageResp models.LeadsPage
		if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
			return nil, fmt.Errorf("invalid JSON from PrimeCOD: %w", err)
		}
		return pageResp.Data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]models.Lead), nil
}

// FetchAllLeads walks pages sequentially until an empty page or the page
// ceiling. The API sends no has_more flag, an empty page is end-of-data.
func (c *Client) FetchAllLeads(ctx context.Context, maxPages int) ([]models.Lead, int, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	var all []models.Lead
	pagesFetched := 0

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return all, pagesFetched, ctx.Err()
		default:
		}

		leads, err := c.FetchLeads(ctx, page)
		if err != nil {
			// A failed later page degrades to a partial result, a failed
			// first page is a real error.
			if page == 1 {
				return nil, 0, err
			}
			c.logger.Warn("leads page fetch failed, returning partial result",
				zap.Int("page", page),
				zap.Error(err),
			)
			return all, pagesFetched, nil
		}

		pagesFetched++
		if len(leads) == 0 {
			break
		}
		all = append(all, leads...)
	}

	c.logger.Info("leads fetched",
		zap.Int("total_leads", len(all)),
		zap.Int("pages", pagesFetched),
	)
	return all, pagesFetched, nil
}
