package llogger

import (
	"context"
	"time"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/scope"
)

// LError is an application error that has been reported to Lytix.
type LError struct {
	Message  string
	Metadata Metadata
}

func (e *LError) Error() string {
	return e.Message
}

// ReportError records msg in the scope visible to ctx, sends an LError
// trace in the background and returns the error for the caller to return.
//
//	if user == nil {
//		return log.ReportError(ctx, "user not found", llogger.Metadata{"userId": id})
//	}
func (l *ScopedLogger) ReportError(ctx context.Context, msg string, metadata Metadata) error {
	return reportError(ctx, l.store, l.collector, msg, metadata)
}

// ReportError is ScopedLogger.ReportError on the default store and collector.
func ReportError(ctx context.Context, msg string, metadata Metadata) error {
	return reportError(ctx, scope.Default(), collector.Default(), msg, metadata)
}

func reportError(ctx context.Context, store *scope.Store, c *collector.Client, msg string, metadata Metadata) error {
	lerr := &LError{Message: msg, Metadata: metadata.Clone()}

	var logs []string
	if sc, ok := store.Current(ctx); ok {
		sc.Append(LogRecord{
			Name:  "LError",
			Pid:   -1,
			Level: LevelError,
			Msg:   msg,
			Time:  time.Now().UTC().Format(time.RFC3339Nano),
		}.String())
		logs = sc.Logs()
	}

	md := metadata.Clone()
	md["$no-index:errorMessage"] = msg

	c.Go(ctx, func(ctx context.Context) {
		c.CaptureTrace(ctx, "LError", 1, md, logs)
	})

	return lerr
}
