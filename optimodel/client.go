// Package optimodel queries models through the Lytix Optimodel gateway,
// falling back to other models when one fails.
package optimodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/observability/metrics"
)

// Client talks to the Optimodel query endpoint.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration

	httpClient *http.Client
	logger     observability.Logger
	metrics    observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Per-attempt timeouts still
// apply through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for failed attempts.
func WithLogger(l observability.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records one duration and outcome per attempt, keyed by model.
func WithMetrics(m observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient returns a client for the gateway under lx.BaseURL.
func NewClient(lx config.LytixConfig, om config.OptimodelConfig, opts ...Option) *Client {
	if om.QueryPath == "" {
		om.QueryPath = config.DefaultOptimodelQueryPath
	}
	if om.Timeout <= 0 {
		om.Timeout = 5 * time.Minute
	}

	c := &Client{
		url:     strings.TrimRight(lx.BaseURL, "/") + "/" + strings.Trim(om.QueryPath, "/"),
		apiKey:  lx.APIKey,
		timeout: om.Timeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = observability.Default().Logger("optimodel")
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop{}
	}
	return c
}

// URL returns the query endpoint.
func (c *Client) URL() string {
	return c.url
}

// QueryModel asks p.Model and then each fallback in turn, returning the
// first response that has a modelResponse and passes p.Validator. When
// every model fails the last model's error is returned.
func (c *Client) QueryModel(ctx context.Context, p QueryParams) (*QueryResponse, error) {
	models := make([]ModelType, 0, 1+len(p.FallbackModels))
	if p.Model != "" {
		models = append(models, p.Model)
	}
	models = append(models, p.FallbackModels...)
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	var lastErr error
	for i, model := range models {
		resp, err := c.attempt(ctx, model, p)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if i < len(models)-1 {
			c.logger.Warn(ctx, "Optimodel attempt failed, trying next model", observability.Fields{
				"model":      string(model),
				"next_model": string(models[i+1]),
				"error":      err.Error(),
			})
		}
	}

	c.logger.Error(ctx, "Error querying model", lastErr, observability.Fields{
		"models": len(models),
	})
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, model ModelType, p QueryParams) (resp *QueryResponse, err error) {
	start := time.Now()
	c.metrics.StartOperation("query")
	defer func() {
		c.metrics.EndOperation("query")
		c.metrics.RecordDuration(string(model), time.Since(start).Seconds())
		if err != nil {
			c.metrics.RecordError(string(model), "query")
		} else {
			c.metrics.RecordSuccess(string(model))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(queryRequest{
		ModelToUse:    model,
		Messages:      p.Messages,
		SpeedPriority: p.SpeedPriority,
		MaxGenLen:     p.MaxGenLen,
		Temperature:   p.Temperature,
		JSONMode:      p.JSONMode,
		Provider:      p.Provider,
		UserID:        p.UserID,
		SessionID:     p.SessionID,
		Guards:        p.Guards,
		WorkflowName:  p.WorkflowName,
		Credentials:   p.Credentials,
	})
	if err != nil {
		return nil, fmt.Errorf("encode query for %s: %w", model, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", model, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", model, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", model, err)
	}

	var out QueryResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.ModelResponse == "" {
		return nil, fmt.Errorf("bad request: %s", strings.TrimSpace(string(raw)))
	}

	if p.Validator != nil && !p.Validator(out.ModelResponse) {
		c.logger.Warn(ctx, "Failed validation when trying model "+string(model), nil)
		return nil, fmt.Errorf("%s: %w", model, ErrValidation)
	}
	return &out, nil
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the process-wide client built from the environment.
func Default() *Client {
	defaultOnce.Do(func() {
		provider := observability.Default()
		cfg, err := config.Load()
		if err != nil {
			provider.Logger("optimodel").Error(context.Background(), "Failed to load Lytix configuration, using defaults", err, nil)
			cfg = config.DefaultConfig()
		}
		defaultClient = NewClient(cfg.Lytix, cfg.Optimodel,
			WithLogger(provider.Logger("optimodel")),
			WithMetrics(provider.Metrics("optimodel")),
		)
	})
	return defaultClient
}

// QueryModel is Client.QueryModel on the default client.
func QueryModel(ctx context.Context, p QueryParams) (*QueryResponse, error) {
	return Default().QueryModel(ctx, p)
}
