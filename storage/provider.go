// Package storage uploads media assets referenced by model events.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/storage/adapters/s3"
	"github.com/Lytix-Labs/lytix-go/storage/types"
)

// Provider owns the process-wide object storage client.
type Provider struct {
	storage     types.ObjectStorage
	config      *config.Config
	logger      observability.Logger
	metrics     observability.Metrics
	mu          sync.RWMutex
	initialized bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the singleton storage provider.
func GetProvider() *Provider {
	once.Do(func() {
		instance = &Provider{}
	})
	return instance
}

// Initialize creates the storage client. Calling it again is a no-op.
func (p *Provider) Initialize(cfg *config.Config, logger observability.Logger, metrics observability.Metrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if !cfg.IsStorageEnabled() {
		return fmt.Errorf("storage is not configured")
	}

	storage, err := createStorage(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	p.storage = storage
	p.config = cfg
	p.logger = logger
	p.metrics = metrics
	p.initialized = true
	return nil
}

// InitializeWith installs an existing storage implementation.
func (p *Provider) InitializeWith(s types.ObjectStorage, logger observability.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.storage = s
	p.logger = logger
	p.initialized = true
}

func createStorage(cfg *config.Config, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return s3.NewClient(cfg.Storage, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

// GetStorage returns the storage instance or an error before Initialize.
func (p *Provider) GetStorage() (types.ObjectStorage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized || p.storage == nil {
		return nil, fmt.Errorf("storage not initialized; call Initialize() first")
	}
	return p.storage, nil
}

// MustGetStorage panics if storage has not been initialized.
func (p *Provider) MustGetStorage() types.ObjectStorage {
	storage, err := p.GetStorage()
	if err != nil {
		panic(fmt.Sprintf("failed to get storage: %v", err))
	}
	return storage
}

func (p *Provider) IsInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// Reset drops the storage client. Used by tests.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.storage = nil
	p.config = nil
	p.logger = nil
	p.metrics = nil
	p.initialized = false
}

// UploadFileAndCapture uploads with the process-wide storage and collector,
// initializing storage from the environment on first use.
func UploadFileAndCapture(ctx context.Context, path, mimeType string) (string, error) {
	provider := observability.Default()
	logger := provider.Logger("storage")

	p := GetProvider()
	if !p.IsInitialized() {
		cfg, err := config.Load()
		if err != nil {
			logger.Error(ctx, "Failed to upload file and capture URL in Lytix", err, nil)
			return "", err
		}
		if err := p.Initialize(cfg, logger, provider.Metrics("storage")); err != nil {
			logger.Error(ctx, "Failed to upload file and capture URL in Lytix", err, nil)
			return "", err
		}
	}

	s, err := p.GetStorage()
	if err != nil {
		return "", err
	}
	return NewUploader(s, collector.Default(), logger).UploadFileAndCapture(ctx, path, mimeType)
}
