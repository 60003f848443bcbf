package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/autostore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/metrics"
)

const (
	breakerName             = "catalog"
	responseBodyLimit int64 = 4 << 20
)

var errBaseURLRequired = errors.New("catalog base url is required")

// StatusError is a non-2xx (or success=false) catalog response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog responded %d", e.Status)
	}
	return fmt.Sprintf("catalog responded %d: %s", e.Status, e.Message)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

// Client consumes the remote catalog API. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.CatalogMetrics
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records request latency and failures.
func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker guards every request with a circuit breaker that opens after
// maxFailures consecutive dependency failures. 404s and other 4xx responses
// count as successes.
func WithBreaker(maxFailures uint32, openTimeout, interval time.Duration) Option {
	return func(c *Client) {
		if maxFailures == 0 {
			maxFailures = 1
		}
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:     breakerName,
			Interval: interval,
			Timeout:  openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				var statusErr *StatusError
				if errors.As(err, &statusErr) {
					return statusErr.Status < http.StatusInternalServerError
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, _, to gobreaker.State) {
				c.metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
			},
		})
	}
}

// NewClient builds a catalog client rooted at baseURL. The default HTTP
// client has no timeout.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// NewFromConfig wires timeout and breaker settings from configuration.
func NewFromConfig(cfg config.CatalogConfig, m *metrics.CatalogMetrics) (*Client, error) {
	opts := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithMetrics(m),
	}
	if cfg.BreakerEnabled {
		opts = append(opts, WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, cfg.BreakerInterval))
	}
	return NewClient(cfg.BaseURL, opts...)
}

// ListCars runs a faceted search.
func (c *Client) ListCars(ctx context.Context, filters Filters) (List, error) {
	var cars []Car
	count, err := c.get(ctx, "list_cars", "/cars", filters.Query(), &cars)
	if err != nil {
		return List{}, err
	}
	if cars == nil {
		cars = []Car{}
	}
	if count == nil {
		n := len(cars)
		count = &n
	}
	return List{Cars: cars, Count: *count}, nil
}

// GetCar fetches a single car. A missing car yields CodeNotFound.
func (c *Client) GetCar(ctx context.Context, id string) (*Car, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car id is required")
	}
	var car Car
	if _, err := c.get(ctx, "get_car", "/cars/"+url.PathEscape(trimmed), nil, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

func (c *Client) CarsByBrand(ctx context.Context, brand string) ([]Car, error) {
	trimmed := strings.TrimSpace(brand)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	return c.getCars(ctx, "cars_by_brand", "/cars/brand/"+url.PathEscape(trimmed))
}

func (c *Client) AvailableCars(ctx context.Context) ([]Car, error) {
	return c.getCars(ctx, "available_cars", "/cars/available")
}

func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	if _, err := c.get(ctx, "statistics", "/cars/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) getCars(ctx context.Context, endpoint, path string) ([]Car, error) {
	var cars []Car
	if _, err := c.get(ctx, endpoint, path, nil, &cars); err != nil {
		return nil, err
	}
	if cars == nil {
		cars = []Car{}
	}
	return cars, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// failureMessage prefers message, then error as a string or {message}.
func (e envelope) failureMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &obj); err == nil {
		return obj.Message
	}
	return ""
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (*int, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}

	start := time.Now()
	body, err := c.execute(ctx, c.buildURL(path, query))
	c.metrics.ObserveDuration(endpoint, time.Since(start))
	if err != nil {
		return nil, c.classify(endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.IncFailure(endpoint, "decode")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	if !env.Success {
		c.metrics.IncFailure(endpoint, "envelope")
		statusErr := &StatusError{Status: http.StatusOK, Message: env.failureMessage()}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, statusErr, messageOr(statusErr.Message, "catalog request failed"))
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.metrics.IncFailure(endpoint, "decode")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog data")
		}
	}
	return env.Count, nil
}

func (c *Client) execute(ctx context.Context, target string) ([]byte, error) {
	if c.breaker == nil {
		return c.fetch(ctx, target)
	}
	return c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, target)
	})
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(body, &env)
		return nil, &StatusError{Status: resp.StatusCode, Message: env.failureMessage()}
	}
	return body, nil
}

func (c *Client) classify(endpoint string, err error) error {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, messageOr(statusErr.Message, "car not found"))
	case errors.As(err, &statusErr):
		c.metrics.IncFailure(endpoint, "status")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, messageOr(statusErr.Message, "catalog request failed"))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.IncFailure(endpoint, "breaker_open")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog temporarily unavailable")
	default:
		c.metrics.IncFailure(endpoint, "transport")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unreachable")
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
