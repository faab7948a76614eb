// Package observability provides a centralized provider for the SDK's own
// logging and metrics components.
package observability

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Lytix-Labs/lytix-go/observability/logger"
	"github.com/Lytix-Labs/lytix-go/observability/metrics"
	"github.com/Lytix-Labs/lytix-go/observability/types"
)

// Logger is a type alias for the Logger interface from the types package.
type Logger = types.Logger

// Metrics is a type alias for the Metrics interface from the types package.
type Metrics = types.Metrics

// Fields is a type alias for structured logging fields.
type Fields = types.Fields

// Config is a type alias for the observability configuration.
type Config = types.Config

// Provider is a type alias for the Provider interface from the types package.
type Provider = types.Provider

// DefaultProvider implements the Provider interface.
// Loggers and metrics are created lazily, once per component.
type DefaultProvider struct {
	config  *Config
	loggers map[string]Logger
	metrics map[string]Metrics
	mu      sync.RWMutex
}

// NewProvider creates a new observability provider with the given configuration.
// If LogOutput is not specified in the config, it defaults to os.Stderr.
//
// Example:
//
//	provider := NewProvider(&Config{
//		ServiceName: "lytix",
//		Environment: "production",
//		LogLevel:    "info",
//	})
//	log := provider.Logger("collector")
func NewProvider(config *Config) Provider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stderr
	}

	return &DefaultProvider{
		config:  config,
		loggers: make(map[string]Logger),
		metrics: make(map[string]Metrics),
	}
}

// Logger returns a Logger instance for the specified component.
//
// The returned logger includes:
//   - All fields from the provider's config.AdditionalFields
//   - A "component" field set to the provided component name
//   - Service name formatted as "{config.ServiceName}.{component}"
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, exists := p.loggers[component]; exists {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if l, exists := p.loggers[component]; exists {
		return l
	}

	fields := make(Fields)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		fmt.Sprintf("%s.%s", p.config.ServiceName, component),
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)

	p.loggers[component] = l
	return l
}

// Metrics returns a Metrics instance for the specified component.
// Metric names are prefixed with "{ServiceName}_{component}".
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.RLock()
	if m, exists := p.metrics[component]; exists {
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if m, exists := p.metrics[component]; exists {
		return m
	}

	name := component
	if p.config.ServiceName != "" {
		name = p.config.ServiceName + "_" + component
	}
	m := metrics.New(name, p.config.Registerer)
	p.metrics[component] = m

	return m
}

// Close closes the LogOutput if it implements io.Closer, except for
// os.Stdout and os.Stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}

	return nil
}

var (
	defaultProvider Provider
	defaultOnce     sync.Once
)

// Default returns the process-wide provider configured from the
// environment (SERVICE_NAME, ENVIRONMENT, LOG_LEVEL). It logs to stderr and
// registers metrics with the default Prometheus registry.
func Default() Provider {
	defaultOnce.Do(func() {
		defaultProvider = NewProvider(&Config{
			ServiceName: envOr("SERVICE_NAME", "lytix"),
			Environment: envOr("ENVIRONMENT", "local"),
			LogLevel:    envOr("LOG_LEVEL", "info"),
		})
	})
	return defaultProvider
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
