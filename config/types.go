package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds all SDK configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string

	// Component configurations
	Lytix     LytixConfig
	HTTP      HTTPConfig
	Optimodel OptimodelConfig
	Storage   StorageConfig
	Lambda    LambdaConfig
	Handler   HandlerConfig
}

// LytixConfig holds the collector credentials and transport settings
type LytixConfig struct {
	APIKey  string
	BaseURL string
	// MetricsPath is joined onto BaseURL for every metric endpoint
	MetricsPath string
	Timeout     time.Duration
	// DrainInterval is how often a finishing scope polls for in-flight sends
	DrainInterval time.Duration
}

// HTTPConfig holds settings for the HTTP middleware and example servers
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	Addr      string
}

// OptimodelConfig holds model-routing client configuration
type OptimodelConfig struct {
	Timeout   time.Duration
	QueryPath string
}

// StorageConfig holds asset storage configuration
type StorageConfig struct {
	Provider string
	Timeout  time.Duration
	S3       S3Config
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Only for local development
}

// LambdaConfig holds Lambda-specific configuration
type LambdaConfig struct {
	Timeout                   time.Duration
	EnablePartialBatchFailure bool
}

// HandlerConfig holds handler chain configuration
type HandlerConfig struct {
	Timeout        time.Duration
	MaxRequestSize int64
	EnableMetrics  bool
	CaptureErrors  bool
	Platform       string // auto-detected if empty
}

// Validate validates the entire configuration.
// Missing credentials are not errors here, see Warnings.
func (c *Config) Validate() error {
	var errors []string

	if c.ServiceName == "" {
		errors = append(errors, "SERVICE_NAME is required")
	}

	if c.Lytix.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Lytix.BaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("LX_BASE_URL is not a valid URL: %v", err))
		}
	}

	// Range validations
	if c.Lytix.Timeout <= 0 {
		errors = append(errors, "LX_HTTP_TIMEOUT must be positive")
	}
	if c.Lytix.DrainInterval <= 0 {
		errors = append(errors, "LX_DRAIN_INTERVAL must be positive")
	}
	if c.Optimodel.Timeout <= 0 {
		errors = append(errors, "OPTIMODEL_TIMEOUT must be positive")
	}
	if c.Handler.MaxRequestSize <= 0 {
		errors = append(errors, "HANDLER_MAX_REQUEST_SIZE must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Warnings lists problems that degrade telemetry without stopping the
// process. Calls made without credentials fail at the transport and are
// swallowed there.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Lytix.APIKey == "" {
		warnings = append(warnings, "Missing LX_API_KEY. Set it in the environment or a .env file before making any calls")
	}
	if c.Lytix.BaseURL == "" {
		warnings = append(warnings, "Missing LX_BASE_URL")
	}
	return warnings
}

// MetricsURL returns the collector root every metric endpoint is appended to
func (c LytixConfig) MetricsURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.MetricsPath, "/")
}

// IsStorageEnabled reports whether an upload bucket is configured
func (c *Config) IsStorageEnabled() bool {
	return c.Storage.Provider != "" && c.Storage.S3.Bucket != ""
}
