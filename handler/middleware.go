package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Lytix-Labs/lytix-go/llogger"
	"github.com/Lytix-Labs/lytix-go/observability"

	"github.com/google/uuid"
)

// ScopeMiddleware runs each request in its own async scope. The scope starts
// with the logger's instance metadata plus the request id, source, type and
// worker. A returned error or a failed Response ends the scope as a failure
// and, when captureErrors is set, is sent to Lytix with the scope's records.
// The collector is drained before the middleware returns.
func ScopeMiddleware(log *llogger.ScopedLogger, captureErrors bool) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			var resp Response

			err := log.RunInAsyncContext(ctx, func(ctx context.Context) error {
				if sc, ok := log.Store().Current(ctx); ok {
					md := sc.Metadata()
					for k, v := range req.ScopeMetadata() {
						md[k] = v
					}
					if name := WorkerName(ctx); name != "" {
						md["worker"] = name
					}
					sc.SetMetadata(md)
				}

				var err error
				resp, err = next(ctx, req)
				if err == nil && !resp.Success && resp.Error != nil {
					return resp.Error
				}
				return err
			}, captureErrors)

			var failed *ErrorResponse
			if errors.As(err, &failed) && failed == resp.Error {
				return resp, nil
			}
			return resp, err
		}
	}
}

// LoggingMiddleware logs the start and outcome of every request through log.
// With a ScopedLogger the lines end up in the request's scope.
func LoggingMiddleware(log llogger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			log.Info(ctx, fmt.Sprintf("Processing %s request from %s (%d bytes)", req.Type, req.Source, len(req.Payload)))

			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start).Milliseconds()

			switch {
			case err != nil:
				log.Error(ctx, fmt.Sprintf("Request failed after %dms:", elapsed), err)
			case !resp.Success && resp.Error != nil:
				log.Warn(ctx, fmt.Sprintf("Request completed with %s after %dms: %s", resp.Error.Code, elapsed, resp.Error.Message))
			default:
				log.Info(ctx, fmt.Sprintf("Request completed in %dms", elapsed))
			}
			return resp, err
		}
	}
}

// MetricsMiddleware records request counts and durations per request type.
func MetricsMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			metrics := provider.Metrics("handler")

			metrics.StartOperation(req.Type)
			defer metrics.EndOperation(req.Type)

			start := time.Now()
			resp, err := next(ctx, req)
			metrics.RecordDuration(req.Type, time.Since(start).Seconds())

			switch {
			case err != nil:
				metrics.RecordError(req.Type, "processing_error")
			case !resp.Success:
				errorType := "unknown_error"
				if resp.Error != nil {
					errorType = resp.Error.Code
				}
				metrics.RecordError(req.Type, errorType)
			default:
				metrics.RecordSuccess(req.Type)
			}
			return resp, err
		}
	}
}

// RecoveryMiddleware turns a panic in the worker into an INTERNAL_ERROR
// response and an error. The panic is written to log so it is part of the
// scope's records, and the stack goes to the provider's logger.
func RecoveryMiddleware(provider observability.Provider, log llogger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (resp Response, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				err = fmt.Errorf("panic recovered: %v", r)

				log.Error(ctx, "Panic while processing request", err)
				provider.Logger("handler").Error(ctx, "Panic recovered", err, observability.Fields{
					"request_id": req.ID,
					"worker":     WorkerName(ctx),
					"stack":      string(debug.Stack()),
				})
				provider.Metrics("handler").RecordError(req.Type, "panic")

				resp = NewErrorResponse(req.ID, CodeInternal, "An internal error occurred", "")
			}()

			return next(ctx, req)
		}
	}
}

// TimeoutMiddleware bounds request processing. On expiry it returns a
// TIMEOUT response together with the context error. A panic in next is
// re-raised on the calling goroutine.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				resp  Response
				err   error
				panic any
			}
			done := make(chan result, 1)

			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- result{panic: r}
					}
				}()
				resp, err := next(ctx, req)
				done <- result{resp: resp, err: err}
			}()

			select {
			case res := <-done:
				if res.panic != nil {
					// re-raise on the caller's goroutine so outer middleware can recover it
					panic(res.panic)
				}
				return res.resp, res.err
			case <-ctx.Done():
				return NewErrorResponse(
					req.ID,
					CodeTimeout,
					"Request processing timed out",
					fmt.Sprintf("exceeded %v", timeout),
				), ctx.Err()
			}
		}
	}
}

// ValidationMiddleware rejects requests without a type, with an empty or
// invalid JSON payload, or with a payload above maxSize bytes (0 disables
// the size check). Missing ids and timestamps are filled in.
func ValidationMiddleware(maxSize int64) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			if req.ID == "" {
				req.ID = uuid.New().String()
			}
			if req.Timestamp.IsZero() {
				req.Timestamp = time.Now().UTC()
			}

			switch {
			case req.Type == "":
				return NewErrorResponse(req.ID, CodeValidation, "Request type is required", "missing type"), nil
			case len(req.Payload) == 0:
				return NewErrorResponse(req.ID, CodeValidation, "Request payload is required", "empty payload"), nil
			case maxSize > 0 && int64(len(req.Payload)) > maxSize:
				return NewErrorResponse(req.ID, CodeValidation, "Request payload too large",
					fmt.Sprintf("%d bytes exceeds %d", len(req.Payload), maxSize)), nil
			case !json.Valid(req.Payload):
				return NewErrorResponse(req.ID, CodeValidation, "Invalid JSON payload", "payload must be valid JSON"), nil
			}

			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}
			return next(ctx, req)
		}
	}
}
