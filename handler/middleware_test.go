package handler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Lytix-Labs/lytix-go/llogger"
	"github.com/Lytix-Labs/lytix-go/observability/mocks"
)

func TestScopeMiddleware_SeedsRequestMetadata(t *testing.T) {
	log, srv := newScopedLogger(t, llogger.WithMetadata(llogger.Metadata{"service": "billing"}))

	var seen llogger.Metadata
	h := ScopeMiddleware(log, true)(func(ctx context.Context, req Request) (Response, error) {
		seen = log.Metadata(ctx)
		return NewSuccessResponse(req.ID, nil)
	})

	ctx := context.WithValue(context.Background(), workerKey, "echo")
	resp, err := h(ctx, jsonRequest("req-1", "charge", `{}`))

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, llogger.Metadata{
		"service":   "billing",
		"requestId": "req-1",
		"source":    "unit-test",
		"type":      "charge",
		"worker":    "echo",
	}, seen)
	assert.Empty(t, srv.Events())

	// request metadata never leaks into the instance
	assert.Equal(t, llogger.Metadata{"service": "billing"}, log.Metadata(context.Background()))
}

func TestScopeMiddleware_CapturesErrors(t *testing.T) {
	log, srv := newScopedLogger(t)
	boom := errors.New("boom")

	h := ScopeMiddleware(log, true)(func(ctx context.Context, req Request) (Response, error) {
		log.Info(ctx, "loaded invoice")
		return Response{}, boom
	})

	_, err := h(context.Background(), jsonRequest("req-2", "charge", `{}`))
	assert.ErrorIs(t, err, boom)

	events := srv.Named("LLoggerError")
	require.Len(t, events, 1)
	md := events[0].Metadata()
	assert.Equal(t, "req-2", md["requestId"])
	assert.Equal(t, "handler-test", md["loggerName"])
	assert.Equal(t, "boom", md["$no-index:errorMessage"])

	logs := strings.Join(events[0].Logs(), "\n")
	assert.Contains(t, logs, "loaded invoice")
	assert.Contains(t, logs, "Error in async context")
}

func TestScopeMiddleware_FailedResponseIsCapturedButNotReturnedAsError(t *testing.T) {
	log, srv := newScopedLogger(t)

	h := ScopeMiddleware(log, true)(func(ctx context.Context, req Request) (Response, error) {
		return NewErrorResponse(req.ID, "NOT_FOUND", "no such invoice", "inv-9"), nil
	})

	resp, err := h(context.Background(), jsonRequest("req-3", "lookup", `{}`))
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	events := srv.Named("LLoggerError")
	require.Len(t, events, 1)
	assert.Equal(t, "NOT_FOUND: no such invoice (inv-9)", events[0].Metadata()["$no-index:errorMessage"])
}

func TestScopeMiddleware_CaptureDisabled(t *testing.T) {
	log, srv := newScopedLogger(t)

	h := ScopeMiddleware(log, false)(func(ctx context.Context, req Request) (Response, error) {
		return Response{}, errors.New("quiet failure")
	})

	_, err := h(context.Background(), jsonRequest("req-4", "charge", `{}`))
	assert.EqualError(t, err, "quiet failure")
	assert.Empty(t, srv.Events())
}

func TestScopeMiddleware_ConcurrentRequestsAreIsolated(t *testing.T) {
	log, _ := newScopedLogger(t)

	h := ScopeMiddleware(log, false)(func(ctx context.Context, req Request) (Response, error) {
		log.Info(ctx, "handling "+req.ID)
		time.Sleep(20 * time.Millisecond)
		resp, _ := NewSuccessResponse(req.ID, nil)
		resp.Metadata = map[string]string{"logs": strings.Join(log.Logs(ctx), "\n")}
		return resp, nil
	})

	results := make(chan Response, 2)
	for _, id := range []string{"a", "b"} {
		go func(id string) {
			resp, _ := h(context.Background(), jsonRequest(id, "t", `{}`))
			results <- resp
		}(id)
	}

	for i := 0; i < 2; i++ {
		resp := <-results
		other := "a"
		if resp.ID == "a" {
			other = "b"
		}
		assert.Contains(t, resp.Metadata["logs"], "handling "+resp.ID)
		assert.NotContains(t, resp.Metadata["logs"], "handling "+other)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		next     HandlerFunc
		expected string
	}{
		{
			name: "success",
			next: func(ctx context.Context, req Request) (Response, error) {
				return NewSuccessResponse(req.ID, nil)
			},
			expected: "Request completed in",
		},
		{
			name: "failed response",
			next: func(ctx context.Context, req Request) (Response, error) {
				return NewErrorResponse(req.ID, "NOT_FOUND", "missing", ""), nil
			},
			expected: "Request completed with NOT_FOUND",
		},
		{
			name: "error",
			next: func(ctx context.Context, req Request) (Response, error) {
				return Response{}, errors.New("db down")
			},
			expected: "Request failed after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			log := llogger.NewConsole("logging-test", llogger.WithOutput(&out), llogger.WithLevel("debug"))

			_, _ = LoggingMiddleware(log)(tt.next)(context.Background(), jsonRequest("req", "test", `{}`))

			assert.Contains(t, out.String(), "Processing test request from unit-test (2 bytes)")
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		next   HandlerFunc
		expect func(m *mocks.MockMetrics)
	}{
		{
			name: "success",
			next: func(ctx context.Context, req Request) (Response, error) {
				return NewSuccessResponse(req.ID, nil)
			},
			expect: func(m *mocks.MockMetrics) {
				m.On("RecordSuccess", "test").Return().Once()
			},
		},
		{
			name: "failed response",
			next: func(ctx context.Context, req Request) (Response, error) {
				return NewErrorResponse(req.ID, CodeValidation, "bad", ""), nil
			},
			expect: func(m *mocks.MockMetrics) {
				m.On("RecordError", "test", CodeValidation).Return().Once()
			},
		},
		{
			name: "error",
			next: func(ctx context.Context, req Request) (Response, error) {
				return Response{}, errors.New("broken")
			},
			expect: func(m *mocks.MockMetrics) {
				m.On("RecordError", "test", "processing_error").Return().Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := new(mocks.MockMetrics)
			provider := mocks.NewMockProvider(nil, metrics)

			metrics.ExpectOperation("test")
			tt.expect(metrics)

			_, _ = MetricsMiddleware(provider)(tt.next)(context.Background(), jsonRequest("req", "test", `{}`))

			provider.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	provider := new(mocks.MockProvider)
	sdkLog := new(mocks.MockLogger)
	metrics := new(mocks.MockMetrics)

	provider.On("Logger", "handler").Return(sdkLog)
	provider.On("Metrics", "handler").Return(metrics)
	sdkLog.On("Error", mock.Anything, "Panic recovered", mock.Anything, mock.Anything).Return()
	metrics.On("RecordError", "test", "panic").Return()

	var out bytes.Buffer
	log := llogger.NewConsole("recovery-test", llogger.WithOutput(&out))

	h := RecoveryMiddleware(provider, log)(func(ctx context.Context, req Request) (Response, error) {
		panic("kaboom")
	})

	resp, err := h(context.Background(), jsonRequest("req-5", "test", `{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: kaboom")
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInternal, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
	assert.Contains(t, out.String(), "Panic while processing request")

	sdkLog.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestTimeoutMiddleware(t *testing.T) {
	middleware := TimeoutMiddleware(50 * time.Millisecond)

	t.Run("completes in time", func(t *testing.T) {
		h := middleware(func(ctx context.Context, req Request) (Response, error) {
			return NewSuccessResponse(req.ID, nil)
		})

		resp, err := h(context.Background(), Request{ID: "fast"})
		assert.NoError(t, err)
		assert.True(t, resp.Success)
	})

	t.Run("exceeds timeout", func(t *testing.T) {
		h := middleware(func(ctx context.Context, req Request) (Response, error) {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(time.Second):
				return NewSuccessResponse(req.ID, nil)
			}
		})

		resp, err := h(context.Background(), Request{ID: "slow"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeTimeout, resp.Error.Code)
		assert.True(t, resp.Error.Retryable)
	})
}

func TestValidationMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		maxSize int64
		message string
	}{
		{name: "valid", req: Request{Type: "t", Payload: []byte(`{"a":1}`)}},
		{name: "missing type", req: Request{Payload: []byte(`{}`)}, message: "Request type is required"},
		{name: "empty payload", req: Request{Type: "t"}, message: "Request payload is required"},
		{name: "invalid json", req: Request{Type: "t", Payload: []byte(`{nope`)}, message: "Invalid JSON payload"},
		{name: "too large", req: Request{Type: "t", Payload: []byte(`{"a":"0123456789"}`)}, maxSize: 8, message: "Request payload too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Request
			h := ValidationMiddleware(tt.maxSize)(func(ctx context.Context, req Request) (Response, error) {
				got = req
				return NewSuccessResponse(req.ID, nil)
			})

			resp, err := h(context.Background(), tt.req)
			require.NoError(t, err)

			if tt.message == "" {
				assert.True(t, resp.Success)
				assert.NotEmpty(t, got.ID)
				assert.False(t, got.Timestamp.IsZero())
				assert.NotNil(t, got.Metadata)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, CodeValidation, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestTimeoutMiddleware_ForwardsPanics(t *testing.T) {
	h := TimeoutMiddleware(time.Second)(func(ctx context.Context, req Request) (Response, error) {
		panic("inside timeout")
	})

	assert.PanicsWithValue(t, "inside timeout", func() {
		_, _ = h(context.Background(), Request{ID: "p"})
	})
}
