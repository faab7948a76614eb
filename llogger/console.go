package llogger

import "context"

// ConsoleLogger writes to its local stream only. Its metadata lives on the
// instance and it never touches a scope, which makes it safe to use from
// the transport itself.
type ConsoleLogger struct {
	*base
}

// NewConsole returns a logger that never buffers records.
func NewConsole(name string, opts ...Option) *ConsoleLogger {
	return &ConsoleLogger{base: newBase(name, buildOptions(opts))}
}

func (l *ConsoleLogger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, l.instanceMetadata(), msg, args)
}

func (l *ConsoleLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, l.instanceMetadata(), msg, args)
}

func (l *ConsoleLogger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, l.instanceMetadata(), msg, args)
}

func (l *ConsoleLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, l.instanceMetadata(), msg, args)
}

func (l *ConsoleLogger) SetMetadata(_ context.Context, m Metadata) {
	l.setInstanceMetadata(m)
}

func (l *ConsoleLogger) Metadata(_ context.Context) Metadata {
	return l.instanceMetadata()
}

// Logs always returns an empty slice.
func (l *ConsoleLogger) Logs(_ context.Context) []string {
	return []string{}
}

// RunInHTTPContext has no scope to open; it warns and calls fn.
func (l *ConsoleLogger) RunInHTTPContext(ctx context.Context, fn func(ctx context.Context) error) error {
	l.Warn(ctx, "Tried to run in http context but this logger has no scope store")
	return fn(ctx)
}

// RunInAsyncContext has no scope to open; it warns and calls fn.
func (l *ConsoleLogger) RunInAsyncContext(ctx context.Context, fn func(ctx context.Context) error, _ bool) error {
	l.Warn(ctx, "Tried to run in async context but this logger has no scope store")
	return fn(ctx)
}
