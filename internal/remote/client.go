// Package remote implements the HTTP client for the supplier catalog API.
// Every lookup is a GET returning JSON; 404 means the entity does not exist
// and any other non-2xx is a generic remote error.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// Config holds the settings for the supplier API client. Credentials are
// fixed header values supplied at construction time.
type Config struct {
	BaseURL   string
	APIKey    string
	ClientID  string
	Timeout   time.Duration
	// MaxRPS caps outgoing requests per second. Zero or negative means
	// unlimited; the pipeline's own pauses are the only pacing then.
	MaxRPS float64
}

// StatusError carries a non-2xx, non-404 response status.
type StatusError struct {
	Code   int
	Status string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Client talks to the supplier catalog API. It implements
// catalog.RemoteCatalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	clientID   string
	limiter    *rate.Limiter
	retry      catalog.RetryPolicy
	clock      catalog.Clock
	logger     *zap.Logger
}

// New builds a Client. A nil retry policy disables retries.
func New(cfg Config, retry catalog.RetryPolicy, clock catalog.Clock, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	limit := rate.Inf
	if cfg.MaxRPS > 0 {
		limit = rate.Limit(cfg.MaxRPS)
	}
	if retry == nil {
		retry = NoRetryPolicy{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		clientID:   cfg.ClientID,
		limiter:    rate.NewLimiter(limit, 1),
		retry:      retry,
		clock:      clock,
		logger:     logger,
	}
}

// ProductByReference resolves a product from its caller-supplied reference.
func (c *Client) ProductByReference(ctx context.Context, reference string) (*catalog.Product, error) {
	var p catalog.Product
	path := fmt.Sprintf("/api/products/by-reference/%s", reference)
	if err := c.getJSON(ctx, "product", path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// BrandByID fetches a brand by its remote numeric id.
func (c *Client) BrandByID(ctx context.Context, id int64) (*catalog.Brand, error) {
	var b catalog.Brand
	if err := c.getJSON(ctx, "brand", fmt.Sprintf("/api/brands/%d", id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CategoryByID fetches a category by its remote numeric id.
func (c *Client) CategoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	var cat catalog.Category
	if err := c.getJSON(ctx, "category", fmt.Sprintf("/api/categories/%d", id), &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// SkusByProductID lists the SKUs owned by a product.
func (c *Client) SkusByProductID(ctx context.Context, productID int64) ([]catalog.Sku, error) {
	var skus []catalog.Sku
	if err := c.getJSON(ctx, "skus", fmt.Sprintf("/api/products/%d/skus", productID), &skus); err != nil {
		return nil, err
	}
	return skus, nil
}

// ImagesBySkuID lists the images attached to a SKU.
func (c *Client) ImagesBySkuID(ctx context.Context, skuID int64) ([]catalog.Image, error) {
	var images []catalog.Image
	if err := c.getJSON(ctx, "images", fmt.Sprintf("/api/skus/%d/images", skuID), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// StockBySkuID lists per-warehouse stock rows for a SKU.
func (c *Client) StockBySkuID(ctx context.Context, skuID int64) ([]catalog.StockRecord, error) {
	var stock []catalog.StockRecord
	if err := c.getJSON(ctx, "stock", fmt.Sprintf("/api/skus/%d/stock", skuID), &stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// AttributesByProductID lists the free-form attributes of a product.
func (c *Client) AttributesByProductID(ctx context.Context, productID int64) ([]catalog.Attribute, error) {
	var attrs []catalog.Attribute
	if err := c.getJSON(ctx, "attributes", fmt.Sprintf("/api/products/%d/attributes", productID), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (c *Client) getJSON(ctx context.Context, entity, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = c.doOnce(ctx, entity, path, out)
		if lastErr == nil {
			return nil
		}
		// A 404 is an answer, not a transient fault.
		if errors.Is(lastErr, catalog.ErrNotFound) {
			return lastErr
		}
		if !c.retry.ShouldRetry(lastErr, attempt+1) {
			return lastErr
		}
		backoff := c.retry.Backoff(attempt + 1)
		c.logger.Warn("retrying remote call",
			zap.String("entity", entity),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)
		c.clock.Sleep(ctx, backoff)
		if ctx.Err() != nil {
			return fmt.Errorf("remote call canceled: %w", ctx.Err())
		}
	}
}

func (c *Client) doOnce(ctx context.Context, entity, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	telemetry.ObserveRemoteRequest(entity, strconv.Itoa(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", entity, path, catalog.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: %w", entity, path, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", entity, err)
	}
	return nil
}
