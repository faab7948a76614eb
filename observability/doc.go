/*
Package observability provides the SDK's own structured logging and
Prometheus metrics.

This layer is separate from the telemetry the SDK ships to Lytix. It is
where the SDK reports on itself: a collector that answered 401, a network
error while sending an event, a scope opened before the store was
initialized, a missing LX_API_KEY.

# Architecture

	Provider (one instance per component)
	    ├── Logger  (JSON lines, stderr by default)
	    └── Metrics (Prometheus, mirrors collector traffic)

# Usage

	provider := observability.NewProvider(&observability.Config{
	    ServiceName: "lytix",
	    Environment: "production",
	    LogLevel:    "warn",
	    Registerer:  prometheus.NewRegistry(),
	})
	defer provider.Close()

	log := provider.Logger("collector")
	m := provider.Metrics("collector")

	m.StartOperation("send")
	defer m.EndOperation("send")

	if err != nil {
	    log.Error(ctx, "failed to send event", err, observability.Fields{
	        "endpoint": "/increment",
	    })
	    m.RecordError("/increment", "network")
	}

Default returns a process-wide provider configured from SERVICE_NAME,
ENVIRONMENT and LOG_LEVEL.

# Metrics

  - {service}_{component}_events_total: Counter [status, endpoint]
  - {service}_{component}_errors_total: Counter [error_type, endpoint]
  - {service}_{component}_duration_seconds: Histogram [operation]
  - {service}_{component}_payload_bytes: Histogram [endpoint]
  - {service}_{component}_in_progress: Gauge [operation]

Registering the same component twice against one registry reuses the
existing collectors. Expose them with promhttp.Handler() if needed.

# Testing

Use the mocks package:

	mockMetrics := new(mocks.MockMetrics)
	mockMetrics.On("StartOperation", "send").Return()
	mockMetrics.On("EndOperation", "send").Return()
*/
package observability
