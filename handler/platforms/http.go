package platforms

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Lytix-Labs/lytix-go/llogger"
)

// RequestDuration wraps next so every request runs in its own scope and,
// once next has returned or panicked, a requestDuration event is sent with
// the elapsed milliseconds and the request's path, method, hostname, status
// code, referer and user agent. The buffered logs travel with the event
// when the status is outside 200-299. The send does not delay the response.
//
// A panic is re-raised after the event is queued. When nothing was written
// before it, the event reports a 500.
func RequestDuration(next http.Handler, opts ...Option) http.Handler {
	o := buildOptions(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		_ = inScope(r.Context(), o.logger, func(ctx context.Context) error {
			r = r.WithContext(ctx)
			defer onServed(rec.Status, rec.Written, func(status int) {
				reportDuration(ctx, o.logger, r, status, time.Since(start))
			})
			next.ServeHTTP(rec, r)
			return nil
		})
	})
}

// RequestErrors wraps next so a non-2xx response sends an LError event
// carrying the request metadata and the scope's logs.
func RequestErrors(next http.Handler, opts ...Option) http.Handler {
	o := buildOptions(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)

		_ = inScope(r.Context(), o.logger, func(ctx context.Context) error {
			r = r.WithContext(ctx)
			defer onServed(rec.Status, rec.Written, func(status int) {
				reportFailedRequest(ctx, o.logger, r, status)
			})
			next.ServeHTTP(rec, r)
			return nil
		})
	})
}

// onServed is deferred around a handler. It calls report with the final
// status, or with 500 when the handler panicked before writing, and then
// re-raises the panic.
func onServed(status func() int, written func() bool, report func(status int)) {
	v := recover()
	code := status()
	if v != nil && !written() {
		code = http.StatusInternalServerError
	}
	report(code)
	if v != nil {
		panic(v)
	}
}

// Recover turns a panic in next into a reported LError and a 500 response.
// It opens the request scope when no hook outside it did, so the LError
// carries the records logged before the panic. http.ErrAbortHandler is
// re-raised untouched.
func Recover(next http.Handler, opts ...Option) http.Handler {
	o := buildOptions(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = inScope(r.Context(), o.logger, func(ctx context.Context) error {
			r = r.WithContext(ctx)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				_ = o.logger.ReportError(ctx, fmt.Sprint(v), llogger.Metadata{
					"path":   r.URL.Path,
					"method": r.Method,
				})
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
			return nil
		})
	})
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Status returns the written status, 200 when nothing was written.
func (r *statusRecorder) Status() int {
	return r.status
}

// Written reports whether a header or body has gone out.
func (r *statusRecorder) Written() bool {
	return r.wroteHeader
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
