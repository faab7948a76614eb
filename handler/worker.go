package handler

import (
	"context"
)

// Worker is the unit of application work a Handler runs. Every call to
// Process happens inside the scope opened by ScopeMiddleware, so anything
// the worker logs through a llogger.ScopedLogger is attached to the trace
// sent when the request fails.
type Worker interface {
	// Name identifies the worker in scope metadata and metrics.
	Name() string

	// Process handles one request.
	Process(ctx context.Context, request Request) (Response, error)

	// Health reports whether the worker can take requests.
	Health(ctx context.Context) error
}
