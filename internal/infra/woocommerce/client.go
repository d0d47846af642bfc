// Package woocommerce provides a client for the WooCommerce REST API
// (wc/v3) and Store API. Used as the real commerce backend for accounts,
// billing profiles, carts, orders and the product catalog.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("woocommerce")

const (
	// restAPIPath is the base path for the authenticated wc/v3 REST API.
	restAPIPath = "/wp-json/wc/v3"
	// storeAPIPath is the base path for the session-scoped Store API,
	// which serves cart reads and mutations keyed by Cart-Token.
	storeAPIPath = "/wp-json/wc/store/v1"
)

// Client wraps HTTP calls to a WooCommerce store. It implements the
// identity, profile, cart, order and catalog ports.
type Client struct {
	httpClient     *http.Client
	storeURL       string
	consumerKey    string
	consumerSecret string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	bulkhead       *resilience.Bulkhead
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a WooCommerce client. consumerKey/consumerSecret are the
// REST API credentials; the Store API needs no credentials, only the
// per-session Cart-Token header.
func NewClient(httpClient *http.Client, storeURL, consumerKey, consumerSecret string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Client{
		httpClient:     httpClient,
		storeURL:       storeURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		cb:             cb,
		cfg:            cfg,
		bulkhead:       resilience.NewBulkhead(maxConcurrency),
		metrics:        metrics,
		logger:         logger,
	}
}

// doREST executes an authenticated request against the wc/v3 REST API.
// Returns nil body for 404/204 so callers can treat "no data" uniformly.
func (c *Client) doREST(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	url := c.storeURL + restAPIPath + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Content-Type", "application/json")

	return c.execute(req, method, path)
}

// doStore executes a request against the Store API, scoped to a cart
// session via the Cart-Token header.
func (c *Client) doStore(ctx context.Context, method, path, cartToken string) ([]byte, error) {
	url := c.storeURL + storeAPIPath + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cart-Token", cartToken)
	req.Header.Set("Content-Type", "application/json")

	return c.execute(req, method, path)
}

func (c *Client) execute(req *http.Request, method, path string) ([]byte, error) {
	if err := c.bulkhead.Acquire(req.Context()); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("woocommerce: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("woocommerce: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	c.metrics.RecordCallDuration(method+" "+path, time.Since(start))

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("woocommerce: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("woocommerce returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("woocommerce: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// callRead wraps an idempotent read in the shared circuit breaker and the
// retry policy.
func (c *Client) callRead(ctx context.Context, service string, fn func() error) error {
	return c.call(service, func() error {
		return resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
}

// callWrite executes a mutating call exactly once under the circuit
// breaker. Writes are never retried automatically: a timeout after
// WooCommerce commits would otherwise duplicate the order or account.
// Resubmission is the caller's decision.
func (c *Client) callWrite(ctx context.Context, service string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.call(service, fn)
}

// call runs fn through the circuit breaker, mapping terminal failures to
// the domain's external-service error. Domain errors raised inside fn (not
// found, conflict) pass through unchanged.
func (c *Client) call(service string, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return &domain.ErrCircuitOpen{Service: service}
		}
		var notFound *domain.ErrNotFound
		var conflict *domain.ErrConflict
		if errors.As(err, &notFound) || errors.As(err, &conflict) {
			return err
		}
		c.metrics.IncrExternalError(service)
		return &domain.ErrExternalService{Service: service, Err: err}
	}
	return nil
}
