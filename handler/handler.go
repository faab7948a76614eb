package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
)

// Handler runs a Worker behind a middleware chain.
type Handler struct {
	worker      Worker
	obs         observability.Provider
	middlewares []Middleware
	config      *config.HandlerConfig
}

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// HandlerFunc processes one request.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

type ctxKey string

const (
	workerKey   ctxKey = "worker"
	platformKey ctxKey = "platform"
)

// NewHandler returns a Handler with an empty chain. Most callers want
// Factory.Create, which installs the default stack.
func NewHandler(worker Worker, provider observability.Provider, cfg *config.HandlerConfig) *Handler {
	if cfg == nil {
		def := config.DefaultHandlerConfig()
		cfg = &def
	}
	return &Handler{
		worker: worker,
		obs:    provider,
		config: cfg,
	}
}

// Use appends a middleware. The first one added is the outermost.
func (h *Handler) Use(middleware Middleware) {
	h.middlewares = append(h.middlewares, middleware)
}

// Handle runs req through the chain and the worker.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	chain := h.buildHandlerChain()

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	ctx = context.WithValue(ctx, logger.RequestIDKey, req.ID)
	if traceID := req.TraceID(); traceID != "" {
		ctx = context.WithValue(ctx, logger.TraceIDKey, traceID)
	}
	ctx = context.WithValue(ctx, workerKey, h.worker.Name())
	ctx = context.WithValue(ctx, platformKey, h.config.Platform)

	return chain(ctx, req)
}

// WorkerName returns the name of the worker handling the request in ctx.
func WorkerName(ctx context.Context) string {
	name, _ := ctx.Value(workerKey).(string)
	return name
}

// Platform returns the platform the request in ctx arrived on.
func Platform(ctx context.Context) string {
	platform, _ := ctx.Value(platformKey).(string)
	return platform
}

// Shutdown waits for the collector to finish every in-flight send. Call it
// before the process exits so no telemetry is lost.
func Shutdown(ctx context.Context, c *collector.Client, log observability.Logger, startTime time.Time) error {
	log.Info(ctx, "Shutting down, draining Lytix sends", observability.Fields{
		"uptime_seconds": time.Since(startTime).Seconds(),
		"outstanding":    c.Outstanding(),
	})

	if err := c.Drain(ctx, c.DrainInterval()); err != nil {
		log.Error(ctx, "Shutdown drain interrupted", err, observability.Fields{
			"outstanding": c.Outstanding(),
		})
		return fmt.Errorf("drain collector: %w", err)
	}

	log.Info(ctx, "Shutdown complete", nil)
	return nil
}

func (h *Handler) buildHandlerChain() HandlerFunc {
	chain := h.workerHandler
	for i := len(h.middlewares) - 1; i >= 0; i-- {
		chain = h.middlewares[i](chain)
	}
	return chain
}

func (h *Handler) workerHandler(ctx context.Context, req Request) (Response, error) {
	return h.worker.Process(ctx, req)
}

// Health checks the worker.
func (h *Handler) Health(ctx context.Context) error {
	return h.worker.Health(ctx)
}

// Config returns the handler configuration.
func (h *Handler) Config() *config.HandlerConfig {
	return h.config
}

// Worker returns the wrapped worker.
func (h *Handler) Worker() Worker {
	return h.worker
}
