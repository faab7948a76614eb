// Package collector sends metric, model and error events to the Lytix
// collector. Delivery is one best-effort POST per event: failures are
// logged through the SDK logger and never returned to the caller.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/observability/metrics"
)

// APIKeyHeader carries the credential on every collector request.
const APIKeyHeader = "lx-api-key"

// Client posts events to the collector and tracks in-flight sends.
type Client struct {
	baseURL       string
	apiKey        string
	drainInterval time.Duration

	httpClient *http.Client
	logger     observability.Logger
	metrics    observability.Metrics

	outstanding atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for sends.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger that receives transport failures.
func WithLogger(l observability.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics mirrors every send into m.
func WithMetrics(m observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client for the collector rooted at cfg.MetricsURL().
func NewClient(cfg config.LytixConfig, opts ...Option) *Client {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = config.DefaultMetricsPath
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = 100 * time.Millisecond
	}

	c := &Client{
		baseURL:       cfg.MetricsURL(),
		apiKey:        cfg.APIKey,
		drainInterval: cfg.DrainInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = observability.Default().Logger("collector")
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop{}
	}

	return c
}

// BaseURL returns the root every endpoint is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendEvent posts payload as JSON to BaseURL()+endpoint.
//
// The returned response has its body fully buffered so callers can decode
// it after the connection is released. It is nil when the request could not
// be built or sent. A non-200 response is returned as is after being logged.
func (c *Client) SendEvent(ctx context.Context, endpoint string, payload any) *http.Response {
	c.outstanding.Add(1)
	defer c.outstanding.Add(-1)

	c.metrics.StartOperation("send")
	defer c.metrics.EndOperation("send")

	start := time.Now()
	defer func() {
		c.metrics.RecordDuration(endpoint, time.Since(start).Seconds())
	}()

	url := c.baseURL + endpoint
	fields := observability.Fields{"endpoint": endpoint, "url": url}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error(ctx, "Failed to encode Lytix event", err, fields)
		c.metrics.RecordError(endpoint, "encode")
		return nil
	}
	c.metrics.RecordPayloadSize(endpoint, int64(len(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error(ctx, "Failed to send to Lytix", err, fields)
		c.metrics.RecordError(endpoint, "network")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "Failed to send to Lytix", err, fields)
		c.metrics.RecordError(endpoint, "network")
		return nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn(ctx, "Failed to read Lytix response", observability.Fields{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	if resp.StatusCode != http.StatusOK {
		fields["status"] = resp.StatusCode
		fields["body"] = string(data)
		c.logger.Warn(ctx, fmt.Sprintf("Failed to send to Lytix: %d", resp.StatusCode), fields)
		c.metrics.RecordError(endpoint, "http_status")
		return resp
	}

	c.metrics.RecordSuccess(endpoint)
	return resp
}

// Outstanding returns the number of sends currently in flight.
func (c *Client) Outstanding() int64 {
	return c.outstanding.Load()
}

// Drain blocks until no send is in flight or ctx is done, checking every
// interval. A non-positive interval uses the configured drain interval.
func (c *Client) Drain(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = c.drainInterval
	}
	if c.Outstanding() == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("drain interrupted with %d sends in flight: %w", c.Outstanding(), ctx.Err())
		case <-ticker.C:
			if c.Outstanding() == 0 {
				return nil
			}
		}
	}
}

// DrainInterval returns the configured polling interval.
func (c *Client) DrainInterval() time.Duration {
	return c.drainInterval
}

// Go runs fn on a new goroutine and counts it as in flight until fn
// returns, so a Drain started after Go returns waits for it. fn receives a
// context that is not cancelled with ctx.
func (c *Client) Go(ctx context.Context, fn func(ctx context.Context)) {
	c.outstanding.Add(1)
	go func() {
		defer c.outstanding.Add(-1)
		fn(context.WithoutCancel(ctx))
	}()
}
