// Package mocks holds testify doubles for the observability contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Lytix-Labs/lytix-go/observability/types"
)

var (
	_ types.Logger   = (*MockLogger)(nil)
	_ types.Metrics  = (*MockMetrics)(nil)
	_ types.Provider = (*MockProvider)(nil)
)

type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	m.Called(ctx, msg, fields)
}

func (m *MockLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	m.Called(ctx, msg, err, fields)
}

func (m *MockLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	m.Called(ctx, msg, fields)
}

func (m *MockLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	m.Called(ctx, msg, fields)
}

// WithFields returns the logger set with Return, or m itself.
func (m *MockLogger) WithFields(fields types.Fields) types.Logger {
	args := m.Called(fields)
	if l, ok := args.Get(0).(types.Logger); ok {
		return l
	}
	return m
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordSuccess(endpoint string) {
	m.Called(endpoint)
}

func (m *MockMetrics) RecordError(endpoint string, errorType string) {
	m.Called(endpoint, errorType)
}

func (m *MockMetrics) RecordDuration(operation string, duration float64) {
	m.Called(operation, duration)
}

func (m *MockMetrics) RecordPayloadSize(endpoint string, bytes int64) {
	m.Called(endpoint, bytes)
}

func (m *MockMetrics) StartOperation(operation string) {
	m.Called(operation)
}

func (m *MockMetrics) EndOperation(operation string) {
	m.Called(operation)
}

// ExpectOperation expects one Start/EndOperation pair and one duration
// sample for operation.
func (m *MockMetrics) ExpectOperation(operation string) {
	m.On("StartOperation", operation).Return().Once()
	m.On("EndOperation", operation).Return().Once()
	m.On("RecordDuration", operation, mock.AnythingOfType("float64")).Return().Once()
}

type MockProvider struct {
	mock.Mock
}

// NewMockProvider returns a provider handing out logger and metrics for
// every component. Either may be nil.
func NewMockProvider(logger types.Logger, metrics types.Metrics) *MockProvider {
	p := new(MockProvider)
	if logger != nil {
		p.On("Logger", mock.Anything).Return(logger)
	}
	if metrics != nil {
		p.On("Metrics", mock.Anything).Return(metrics)
	}
	return p
}

func (m *MockProvider) Logger(component string) types.Logger {
	args := m.Called(component)
	l, _ := args.Get(0).(types.Logger)
	return l
}

func (m *MockProvider) Metrics(component string) types.Metrics {
	args := m.Called(component)
	mt, _ := args.Get(0).(types.Metrics)
	return mt
}

func (m *MockProvider) Close() error {
	return m.Called().Error(0)
}
