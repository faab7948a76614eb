package collector

import (
	"context"
	"sync"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
)

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the process-wide client built from the environment.
// Missing credentials are logged once and sends will fail at the transport.
func Default() *Client {
	defaultOnce.Do(func() {
		provider := observability.Default()
		log := provider.Logger("collector")

		cfg, err := config.Load()
		if err != nil {
			log.Error(context.Background(), "Failed to load Lytix configuration, using defaults", err, nil)
			cfg = config.DefaultConfig()
		}
		for _, w := range cfg.Warnings() {
			log.Error(context.Background(), "Lytix ERROR: "+w, nil, nil)
		}

		defaultClient = NewClient(cfg.Lytix,
			WithLogger(log),
			WithMetrics(provider.Metrics("collector")),
		)
	})
	return defaultClient
}
