// Package mocks holds testify doubles for handler chains and workers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/handler"
)

type MockWorker struct {
	mock.Mock
}

var _ handler.Worker = (*MockWorker)(nil)

// NewMockWorker returns a worker whose Name is name.
func NewMockWorker(name string) *MockWorker {
	w := new(MockWorker)
	w.On("Name").Return(name).Maybe()
	return w
}

func (m *MockWorker) Name() string {
	return m.Called().String(0)
}

func (m *MockWorker) Process(ctx context.Context, req handler.Request) (handler.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(handler.Response)
	return resp, args.Error(1)
}

func (m *MockWorker) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockHandler stands in for *handler.Handler in platform adapter tests.
type MockHandler struct {
	mock.Mock
	config *config.HandlerConfig
	worker handler.Worker
}

// NewMockHandler returns a MockHandler. A nil cfg uses the defaults and a
// nil worker one named "mock".
func NewMockHandler(cfg *config.HandlerConfig, worker handler.Worker) *MockHandler {
	if cfg == nil {
		def := config.DefaultHandlerConfig()
		cfg = &def
	}
	if worker == nil {
		worker = NewMockWorker("mock")
	}
	return &MockHandler{config: cfg, worker: worker}
}

func (m *MockHandler) Handle(ctx context.Context, req handler.Request) (handler.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(handler.Response)
	return resp, args.Error(1)
}

func (m *MockHandler) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandler) Config() *config.HandlerConfig {
	return m.config
}

func (m *MockHandler) Worker() handler.Worker {
	return m.worker
}
