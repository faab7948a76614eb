// Package platforms connects the handler chain and the request scope to the
// places requests come from: net/http servers, gin engines and the AWS
// Lambda runtime.
package platforms

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/handler"
	"github.com/Lytix-Labs/lytix-go/llogger"
)

// Processor is what the adapters drive. *handler.Handler implements it.
type Processor interface {
	Handle(ctx context.Context, req handler.Request) (handler.Response, error)
	Health(ctx context.Context) error
	Config() *config.HandlerConfig
	Worker() handler.Worker
}

var _ Processor = (*handler.Handler)(nil)

const defaultLoggerName = "lytix-request-handler"

type options struct {
	logger *llogger.ScopedLogger
}

// Option configures the request hooks.
type Option func(*options)

// WithLogger sets the logger whose scope wraps each request and whose
// collector receives the request events. Defaults to a ScopedLogger named
// "lytix-request-handler" on the default store and collector.
func WithLogger(l *llogger.ScopedLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = llogger.New(defaultLoggerName)
	}
	return o
}

// inScope runs fn in the scope already carried by ctx, or in a fresh HTTP
// scope when there is none. Stacked hooks therefore share one scope.
func inScope(ctx context.Context, log *llogger.ScopedLogger, fn func(ctx context.Context) error) error {
	if _, ok := log.Store().Current(ctx); ok {
		return fn(ctx)
	}
	return log.RunInHTTPContext(ctx, fn)
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// requestMetadata is the metadata attached to request events.
func requestMetadata(r *http.Request, status int) map[string]any {
	md := map[string]any{
		"path":       r.URL.Path,
		"method":     r.Method,
		"statusCode": status,
		"hostname":   hostname(r.Host),
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		md["referer"] = referer
	}
	if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
		md["userAgent"] = userAgent
	}
	return md
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// reportDuration sends the requestDuration event in the background. Logs
// are attached only for non-2xx responses.
func reportDuration(ctx context.Context, log *llogger.ScopedLogger, r *http.Request, status int, elapsed time.Duration) {
	md := requestMetadata(r, status)

	var logs []string
	if !isSuccess(status) {
		logs = log.Logs(ctx)
	}

	c := log.Collector()
	c.Go(ctx, func(ctx context.Context) {
		c.CaptureTrace(ctx, "requestDuration", float64(elapsed.Milliseconds()), md, logs)
	})
}

// reportFailedRequest sends an LError event for a non-2xx response.
func reportFailedRequest(ctx context.Context, log *llogger.ScopedLogger, r *http.Request, status int) {
	if isSuccess(status) {
		return
	}

	md := requestMetadata(r, status)
	md["$no-index:errorMessage"] = "Non-200 HTTP Request"
	logs := log.Logs(ctx)

	c := log.Collector()
	c.Go(ctx, func(ctx context.Context) {
		c.CaptureTrace(ctx, "LError", 1, md, logs)
	})
}
