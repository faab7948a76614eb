package config

import "time"

const (
	// DefaultBaseURL is the hosted Lytix API
	DefaultBaseURL = "https://api.lytix.co"
	// DefaultMetricsPath is the collector prefix under the base URL
	DefaultMetricsPath = "v1/metrics"
	// DefaultOptimodelQueryPath is the model-routing query endpoint
	DefaultOptimodelQueryPath = "optimodel/api/v1/query"
)

// DefaultLytixConfig returns sensible defaults for the collector client
func DefaultLytixConfig() LytixConfig {
	return LytixConfig{
		BaseURL:       DefaultBaseURL,
		MetricsPath:   DefaultMetricsPath,
		Timeout:       30 * time.Second,
		DrainInterval: 100 * time.Millisecond,
	}
}

// DefaultHandlerConfig returns sensible defaults for handler configuration
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		Timeout:        30 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
		EnableMetrics:  true,
		CaptureErrors:  true,
		Platform:       "", // Auto-detect
	}
}

// DefaultHTTPConfig returns sensible defaults for HTTP configuration
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   30 * time.Second,
		UserAgent: "lytix-go/1.0",
		Addr:      ":8080",
	}
}

// DefaultOptimodelConfig returns sensible defaults for model queries
func DefaultOptimodelConfig() OptimodelConfig {
	return OptimodelConfig{
		Timeout:   5 * time.Minute,
		QueryPath: DefaultOptimodelQueryPath,
	}
}

// DefaultLambdaConfig returns sensible defaults for Lambda configuration
func DefaultLambdaConfig() LambdaConfig {
	return LambdaConfig{
		Timeout:                   180 * time.Second,
		EnablePartialBatchFailure: true,
	}
}

// DefaultStorageConfig returns sensible defaults for storage configuration
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Provider: "s3",
		Timeout:  30 * time.Second,
		S3: S3Config{
			Region: "us-east-2",
			Bucket: "lytix-gemini-videos",
		},
	}
}

// DefaultConfig returns a complete configuration with sensible defaults.
// This is useful for testing or when you want to start with defaults and override specific parts
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		ServiceName: "lytix-service",
		LogLevel:    "info",

		Lytix:     DefaultLytixConfig(),
		HTTP:      DefaultHTTPConfig(),
		Optimodel: DefaultOptimodelConfig(),
		Storage:   DefaultStorageConfig(),
		Lambda:    DefaultLambdaConfig(),
		Handler:   DefaultHandlerConfig(),
	}
}
