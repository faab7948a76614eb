// Package types holds the contracts shared by the observability components.
package types

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines the contract for the SDK's own structured logging.
// It is used for infrastructure messages (failed sends, missing
// configuration, store warnings) and never feeds the telemetry scope.
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs an error message with the associated error.
	// err may be nil when there is no underlying error value.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a warning message.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs a debug message.
	// These messages are typically filtered out in production.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a new Logger instance with additional persistent fields.
	WithFields(fields Fields) Logger
}

// Metrics mirrors collector traffic into local Prometheus series so an
// operator can see how many events left the process and how many failed.
type Metrics interface {
	// RecordSuccess counts an event accepted by the collector.
	//
	// Parameters:
	//   - endpoint: The collector endpoint (e.g., "/increment", "/modelIO")
	RecordSuccess(endpoint string)

	// RecordError counts an event that did not reach the collector.
	//
	// Parameters:
	//   - endpoint: The collector endpoint
	//   - errorType: One of "http_status", "network", "encode"
	RecordError(endpoint string, errorType string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, duration float64)

	// RecordPayloadSize records the encoded body size of an event.
	RecordPayloadSize(endpoint string, bytes int64)

	// StartOperation increments the in-progress gauge for an operation.
	// Must be paired with EndOperation to maintain accurate counts.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	EndOperation(operation string)
}

// Fields represents structured logging fields as key-value pairs.
// Values can be any type that is JSON-serializable.
type Fields map[string]interface{}

// Config holds observability configuration for the provider.
type Config struct {
	// ServiceName identifies the service in logs and metrics.
	ServiceName string

	// Environment specifies the deployment environment.
	Environment string

	// LogLevel sets the minimum log level to output.
	// Valid values: "debug", "info", "warn", "error".
	LogLevel string

	// LogOutput specifies where logs should be written.
	// If nil, defaults to os.Stderr so application stdout stays clean.
	LogOutput io.Writer

	// Registerer receives the metric collectors.
	// If nil, prometheus.DefaultRegisterer is used.
	Registerer prometheus.Registerer

	// AdditionalFields are fields included in every log entry.
	AdditionalFields Fields
}

// Provider manages the lifecycle of observability components.
// Multiple calls with the same component name return the same instance.
type Provider interface {
	// Logger returns a Logger instance for the specified component.
	Logger(component string) Logger

	// Metrics returns a Metrics instance for the specified component.
	Metrics(component string) Metrics

	// Close shuts down the provider and releases all resources.
	Close() error
}
