package prompts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
)

// Client calls the Lytix CLI API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     observability.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(l observability.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a client for {cfg.BaseURL}/cli/v1. It fails with
// ErrMissingAPIKey when cfg has no API key.
func NewClient(cfg config.LytixConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/cli/v1",
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = observability.Default().Logger("prompts")
	}
	return c, nil
}

// SavedPrompts returns every prompt saved upstream.
func (c *Client) SavedPrompts(ctx context.Context) ([]Prompt, error) {
	var out []Prompt
	if err := c.do(ctx, http.MethodGet, "/savedPrompts", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch saved prompts: %w", err)
	}
	return out, nil
}

type updateRequest struct {
	PromptsToUpdate []Prompt `json:"promptsToUpdate"`
}

// UpdatePrompts pushes prompts and returns the upstream state after the
// update.
func (c *Client) UpdatePrompts(ctx context.Context, prompts []Prompt) ([]Prompt, error) {
	var out []Prompt
	if err := c.do(ctx, http.MethodPost, "/updatePrompts", updateRequest{PromptsToUpdate: prompts}, &out); err != nil {
		return nil, fmt.Errorf("update prompts: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn(ctx, "Lytix CLI API returned an error", observability.Fields{
			"path":   path,
			"status": resp.StatusCode,
		})
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
