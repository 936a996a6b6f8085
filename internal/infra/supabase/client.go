// Package supabase implements the data and identity ports against a
// hosted Supabase project (PostgREST + GoTrue). All table access goes
// through the service-role key; row-level security is not relied on here.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bagianprojects/client-area-api/internal/domain"
	"github.com/bagianprojects/client-area-api/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase REST and Auth APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	anonKey        string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client. cfg.MaxConcurrency > 0 caps the
// in-flight reads against the project with a bulkhead.
func NewClient(httpClient *http.Client, baseURL, anonKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	var bh *resilience.Bulkhead
	if cfg.MaxConcurrency > 0 {
		bh = resilience.NewBulkhead(cfg.MaxConcurrency)
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bulkhead:       bh,
		cfg:            cfg,
		logger:         logger,
	}
}

// get executes a PostgREST read through the bulkhead and circuit
// breaker with retries. Writes never go through here; they must not be
// replayed.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return nil, err
		}
		defer c.bulkhead.Release()
	}

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		// A rejected call never reached the project; surface it as the
		// breaker being open so handlers answer 503, not 500.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return nil, err
	}
	return body, nil
}

// doRequest executes a single authenticated request to PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}
