package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lytix-Labs/lytix-go/observability"
)

// Collector endpoints, relative to the metrics root.
const (
	EndpointIncrement     = "/increment"
	EndpointModelIO       = "/modelIO"
	EndpointError         = "/lerror"
	EndpointAzureVideoURL = "/azureVideoURL"
)

// MetricEvent is the body of an increment or trace.
type MetricEvent struct {
	MetricName     string         `json:"metricName"`
	MetricValue    float64        `json:"metricValue"`
	MetricMetadata map[string]any `json:"metricMetadata"`
	Logs           []string       `json:"logs,omitempty"`
}

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelIO describes one model call.
type ModelIO struct {
	ModelName         string         `json:"modelName"`
	ModelInput        string         `json:"modelInput,omitempty"`
	ModelOutput       string         `json:"modelOutput,omitempty"`
	Messages          []Message      `json:"messages,omitempty"`
	SystemPrompt      string         `json:"systemPrompt,omitempty"`
	MetricMetadata    map[string]any `json:"metricMetadata,omitempty"`
	UserIdentifier    string         `json:"userIdentifier,omitempty"`
	SessionID         string         `json:"sessionId,omitempty"`
	ModelResponseTime int64          `json:"modelResponseTime,omitempty"`
}

// ErrorEvent is the body of an error report.
type ErrorEvent struct {
	ErrorName string         `json:"errorName"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
	Logs      []string       `json:"logs"`
}

type videoURLRequest struct {
	VideoURL string `json:"videoUrl"`
	MimeType string `json:"mimeType"`
}

type videoURLResponse struct {
	ID string `json:"id"`
}

// ErrNoAssetID is returned when the collector did not assign an id to an
// uploaded asset.
var ErrNoAssetID = errors.New("collector: no asset id in response")

// Increment sends a plain metric with no logs attached.
func (c *Client) Increment(ctx context.Context, name string, value float64, metadata map[string]any) {
	c.SendEvent(ctx, EndpointIncrement, MetricEvent{
		MetricName:     name,
		MetricValue:    value,
		MetricMetadata: nonNil(metadata),
	})
}

// CaptureTrace sends a metric carrying a bundle of log records. A nil logs
// slice sends no logs field.
func (c *Client) CaptureTrace(ctx context.Context, name string, value float64, metadata map[string]any, logs []string) {
	c.SendEvent(ctx, EndpointIncrement, MetricEvent{
		MetricName:     name,
		MetricValue:    value,
		MetricMetadata: nonNil(metadata),
		Logs:           logs,
	})
}

// CaptureModelIO sends a model input/output event.
func (c *Client) CaptureModelIO(ctx context.Context, io ModelIO) {
	c.SendEvent(ctx, EndpointModelIO, io)
}

// CaptureModelTrace runs generate, then reports its output together with a
// model.responseTime metric. A generate error is returned unchanged and
// nothing is reported. Reporting never changes the returned output.
func (c *Client) CaptureModelTrace(ctx context.Context, io ModelIO, generate func(ctx context.Context) (string, error)) (string, error) {
	start := time.Now()
	output, err := generate(ctx)
	if err != nil {
		return "", err
	}
	elapsed := time.Since(start).Milliseconds()

	io.ModelOutput = output
	io.ModelResponseTime = elapsed

	timing := map[string]any{"modelName": io.ModelName}
	for k, v := range io.MetricMetadata {
		timing[k] = v
	}

	// sends never fail, so the group only joins the two requests
	var g errgroup.Group
	g.Go(func() error {
		c.CaptureModelIO(ctx, io)
		return nil
	})
	g.Go(func() error {
		c.Increment(ctx, "model.responseTime", float64(elapsed), timing)
		return nil
	})
	_ = g.Wait()

	return output, nil
}

// CaptureError sends an error report.
func (c *Client) CaptureError(ctx context.Context, ev ErrorEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	ev.Metadata = nonNil(ev.Metadata)
	if ev.Logs == nil {
		ev.Logs = []string{}
	}
	c.SendEvent(ctx, EndpointError, ev)
}

// CaptureVideoURL registers a hosted video with Lytix and returns the id
// later referenced from model events.
func (c *Client) CaptureVideoURL(ctx context.Context, videoURL, mimeType string) (string, error) {
	resp := c.SendEvent(ctx, EndpointAzureVideoURL, videoURLRequest{VideoURL: videoURL, MimeType: mimeType})
	if resp == nil {
		return "", fmt.Errorf("capture video url: %w", ErrNoAssetID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capture video url: collector returned %d: %w", resp.StatusCode, ErrNoAssetID)
	}

	var out videoURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn(ctx, "Failed to decode video url response", observability.Fields{"error": err.Error()})
		return "", fmt.Errorf("capture video url: decode response: %w", err)
	}
	if out.ID == "" {
		return "", ErrNoAssetID
	}
	return out.ID, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
