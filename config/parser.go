package config

// parse reads configuration from environment variables
func parse() (*Config, error) {
	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "lytix-service"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Collector
		Lytix: LytixConfig{
			APIKey:        getEnv("LX_API_KEY", ""),
			BaseURL:       getEnv("LX_BASE_URL", DefaultBaseURL),
			MetricsPath:   getEnv("LX_METRICS_PATH", DefaultMetricsPath),
			Timeout:       getDuration("LX_HTTP_TIMEOUT", "30s"),
			DrainInterval: getDuration("LX_DRAIN_INTERVAL", "100ms"),
		},

		// HTTP
		HTTP: HTTPConfig{
			Timeout:   getDuration("HTTP_TIMEOUT", "30s"),
			UserAgent: getEnv("HTTP_USER_AGENT", "lytix-go/1.0"),
			Addr:      getEnv("HTTP_ADDR", ":8080"),
		},

		// Model routing
		Optimodel: OptimodelConfig{
			Timeout:   getDuration("OPTIMODEL_TIMEOUT", "5m"),
			QueryPath: getEnv("OPTIMODEL_QUERY_PATH", DefaultOptimodelQueryPath),
		},

		// Lambda
		Lambda: LambdaConfig{
			Timeout:                   getDuration("LAMBDA_TIMEOUT", "180s"),
			EnablePartialBatchFailure: getBool("LAMBDA_PARTIAL_BATCH_FAILURE", true),
		},

		// Handler
		Handler: HandlerConfig{
			Timeout:        getDuration("HANDLER_TIMEOUT", "30s"),
			MaxRequestSize: int64(getInt("HANDLER_MAX_REQUEST_SIZE", 10*1024*1024)),
			EnableMetrics:  getBool("HANDLER_ENABLE_METRICS", true),
			CaptureErrors:  getBool("HANDLER_CAPTURE_ERRORS", true),
			Platform:       getEnv("HANDLER_PLATFORM", ""),
		},

		// Storage
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "s3"),
			Timeout:  getDuration("STORAGE_TIMEOUT", "30s"),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-2"),
				Bucket:          getEnv("S3_BUCKET", "lytix-gemini-videos"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults applies environment-specific defaults
func (c *Config) applyDefaults() {
	if c.Lytix.MetricsPath == "" {
		c.Lytix.MetricsPath = DefaultMetricsPath
	}
	if c.Optimodel.QueryPath == "" {
		c.Optimodel.QueryPath = DefaultOptimodelQueryPath
	}

	if c.IsLocal() || c.IsTest() {
		// Surface every debug line while developing
		if c.LogLevel == "" {
			c.LogLevel = "debug"
		}
	}
}
