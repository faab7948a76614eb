package handler

import (
	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/llogger"
	"github.com/Lytix-Labs/lytix-go/observability"
)

// Factory builds Handlers with the default middleware stack.
type Factory struct {
	worker     Worker
	provider   observability.Provider
	logger     *llogger.ScopedLogger
	handlerCfg config.HandlerConfig
}

// NewFactory returns a factory using the default handler configuration.
// log is the logger whose scopes wrap each request.
func NewFactory(worker Worker, provider observability.Provider, log *llogger.ScopedLogger) *Factory {
	return &Factory{
		worker:     worker,
		provider:   provider,
		logger:     log,
		handlerCfg: config.DefaultHandlerConfig(),
	}
}

// WithHandlerConfig replaces the handler configuration.
func (f *Factory) WithHandlerConfig(cfg config.HandlerConfig) *Factory {
	f.handlerCfg = cfg
	return f
}

// Create builds a handler for the configured platform, detecting it when
// the configuration leaves it empty or "auto".
func (f *Factory) Create() *Handler {
	if f.handlerCfg.Platform == "" || f.handlerCfg.Platform == "auto" {
		f.handlerCfg.Platform = DetectPlatform()
	}

	cfg := f.handlerCfg
	h := NewHandler(f.worker, f.provider, &cfg)
	f.applyDefaultMiddleware(h)
	return h
}

// CreateHTTP builds a handler for an HTTP server.
func (f *Factory) CreateHTTP() *Handler {
	f.handlerCfg.Platform = "http"
	return f.Create()
}

// CreateLambda builds a handler for the Lambda runtime.
func (f *Factory) CreateLambda() *Handler {
	f.handlerCfg.Platform = "lambda"
	return f.Create()
}

// applyDefaultMiddleware installs, outermost first: scope, recovery,
// timeout, metrics, logging, validation.
func (f *Factory) applyDefaultMiddleware(h *Handler) {
	h.Use(ScopeMiddleware(f.logger, f.handlerCfg.CaptureErrors))
	h.Use(RecoveryMiddleware(f.provider, f.logger))

	if f.handlerCfg.Timeout > 0 {
		h.Use(TimeoutMiddleware(f.handlerCfg.Timeout))
	}
	if f.handlerCfg.EnableMetrics {
		h.Use(MetricsMiddleware(f.provider))
	}

	h.Use(LoggingMiddleware(f.logger))
	h.Use(ValidationMiddleware(f.handlerCfg.MaxRequestSize))
}

// DetectPlatform returns "lambda" inside the Lambda runtime and "http"
// everywhere else.
func DetectPlatform() string {
	if config.IsLambda() {
		return "lambda"
	}
	return "http"
}
