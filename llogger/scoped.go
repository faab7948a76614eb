package llogger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/scope"
)

// ScopedLogger writes to its local stream and buffers records in the scope
// carried by the context. Inside a scope, metadata belongs to the scope and
// is shared by every ScopedLogger used within it.
type ScopedLogger struct {
	*base
	store         *scope.Store
	collector     *collector.Client
	drainInterval time.Duration
}

// New returns a ScopedLogger. The store is initialized if it was not.
func New(name string, opts ...Option) *ScopedLogger {
	o := buildOptions(opts)
	if o.store == nil {
		o.store = scope.Default()
	}
	o.store.Initialize()
	if o.collector == nil {
		o.collector = collector.Default()
	}

	return &ScopedLogger{
		base:          newBase(name, o),
		store:         o.store,
		collector:     o.collector,
		drainInterval: o.drainInterval,
	}
}

func (l *ScopedLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelInfo, msg, args)
}

func (l *ScopedLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelWarn, msg, args)
}

func (l *ScopedLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelError, msg, args)
}

// Debug records go to the local stream only.
func (l *ScopedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, LevelDebug, msg, args)
}

func (l *ScopedLogger) log(ctx context.Context, level int, msg string, args []any) {
	sc, ok := l.store.Current(ctx)

	md := l.instanceMetadata()
	if ok {
		md = sc.Metadata()
	}

	text := l.write(ctx, level, md, msg, args)
	if ok && level >= LevelInfo {
		sc.Append(l.record(level, text).String())
	}
}

// SetMetadata replaces the instance metadata and, inside a scope, the scope
// metadata too. The instance copy is what a new async scope starts with.
func (l *ScopedLogger) SetMetadata(ctx context.Context, m Metadata) {
	l.setInstanceMetadata(m)
	if sc, ok := l.store.Current(ctx); ok {
		sc.SetMetadata(m)
	}
}

func (l *ScopedLogger) Metadata(ctx context.Context) Metadata {
	if sc, ok := l.store.Current(ctx); ok {
		return sc.Metadata()
	}
	return l.instanceMetadata()
}

func (l *ScopedLogger) Logs(ctx context.Context) []string {
	if sc, ok := l.store.Current(ctx); ok {
		return sc.Logs()
	}
	return []string{}
}

// Collector returns the client errors are captured to.
func (l *ScopedLogger) Collector() *collector.Client {
	return l.collector
}

// Store returns the scope store the logger reads from.
func (l *ScopedLogger) Store() *scope.Store {
	return l.store
}

// RunInHTTPContext runs fn in a fresh scope with no logs and no metadata.
func (l *ScopedLogger) RunInHTTPContext(ctx context.Context, fn func(ctx context.Context) error) error {
	return l.store.Run(ctx, nil, fn)
}

// RunInAsyncContext runs fn in a fresh scope seeded with the instance
// metadata.
//
// When fn fails or panics and captureError is true, the failure is logged
// and an LLoggerError trace carrying the scope metadata, the logger name
// and the buffered records is sent. Capture problems are swallowed. With
// captureError false the failure is neither logged nor reported, only
// passed back to the caller. The original error is always returned (a
// panic is re-raised). On every path the call returns only once the
// collector has no sends in flight.
func (l *ScopedLogger) RunInAsyncContext(ctx context.Context, fn func(ctx context.Context) error, captureError bool) error {
	return l.store.Run(ctx, scope.New(l.instanceMetadata()), func(ctx context.Context) (err error) {
		l.SetMetadata(ctx, l.instanceMetadata())

		defer l.drain(ctx)
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if captureError {
				l.capture(ctx, panicError(r))
			}
			panic(r)
		}()

		err = fn(ctx)
		if err != nil && captureError {
			l.capture(ctx, err)
		}
		return err
	})
}

func (l *ScopedLogger) capture(ctx context.Context, cause error) {
	defer func() {
		// capture must never replace the original failure
		_ = recover()
	}()

	l.Error(ctx, "Error in async context", cause)

	md := l.Metadata(ctx)
	md["loggerName"] = l.name
	md["$no-index:errorMessage"] = cause.Error()

	l.collector.CaptureTrace(context.WithoutCancel(ctx), "LLoggerError", 1, md, l.Logs(ctx))
}

func (l *ScopedLogger) drain(ctx context.Context) {
	if err := l.collector.Drain(context.WithoutCancel(ctx), l.drainInterval); err != nil {
		l.stream.Warn(ctx, "Failed to drain Lytix sends", nil)
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// IsLError reports whether err is or wraps an *LError.
func IsLError(err error) bool {
	var le *LError
	return errors.As(err, &le)
}
