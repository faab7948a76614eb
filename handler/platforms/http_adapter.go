package platforms

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lytix-Labs/lytix-go/handler"

	"github.com/google/uuid"
)

// HTTPAdapter serves a Processor over plain HTTP. The request body is the
// payload, the type comes from X-Request-Type or the first path segment.
type HTTPAdapter struct {
	handler Processor
}

// NewHTTPAdapter returns an adapter for h.
func NewHTTPAdapter(h Processor) *HTTPAdapter {
	return &HTTPAdapter{handler: h}
}

// Handler returns the adapter wrapped in Recover and RequestDuration, the
// stack an HTTP deployment normally serves.
func (a *HTTPAdapter) Handler(opts ...Option) http.Handler {
	return RequestDuration(Recover(a, opts...), opts...)
}

// Serve listens on addr and serves Handler(opts...).
func (a *HTTPAdapter) Serve(addr string, opts ...Option) error {
	return http.ListenAndServe(addr, a.Handler(opts...))
}

var healthPaths = map[string]bool{
	"/health": true, "/healthz": true,
	"/ready": true, "/readyz": true,
	"/live": true, "/livez": true,
}

func (a *HTTPAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if healthPaths[r.URL.Path] {
		a.handleHealth(w, r)
		return
	}

	body, err := a.readBody(w, r)
	if err != nil {
		a.writeResponse(w, handler.NewErrorResponse(uuid.New().String(), "INVALID_REQUEST", "Failed to read request body", err.Error()), nil)
		return
	}

	resp, err := a.handler.Handle(r.Context(), a.buildRequest(r, body))
	a.writeResponse(w, resp, err)
}

func (a *HTTPAdapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := a.handler.Health(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "healthy",
		"worker": a.handler.Worker().Name(),
		"time":   time.Now().UTC(),
	})
}

func (a *HTTPAdapter) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	maxSize := a.handler.Config().MaxRequestSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxSize))
}

func (a *HTTPAdapter) buildRequest(r *http.Request, body []byte) handler.Request {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = r.Header.Get("X-Correlation-ID")
	}
	if id == "" {
		id = uuid.New().String()
	}

	metadata := map[string]string{
		"http_method": r.Method,
		"http_path":   r.URL.Path,
		"http_host":   r.Host,
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			metadata["query_"+key] = values[0]
		}
	}
	for _, header := range []string{"Content-Type", "User-Agent", "X-Forwarded-For"} {
		if v := r.Header.Get(header); v != "" {
			metadata["header_"+strings.ToLower(strings.ReplaceAll(header, "-", "_"))] = v
		}
	}
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		metadata["trace_id"] = traceID
	}

	return handler.Request{
		ID:        id,
		Source:    "http",
		Type:      requestType(r),
		Payload:   json.RawMessage(body),
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

func requestType(r *http.Request) string {
	if t := r.Header.Get("X-Request-Type"); t != "" {
		return t
	}
	if path := strings.Trim(r.URL.Path, "/"); path != "" {
		first, _, _ := strings.Cut(path, "/")
		return first
	}
	return strings.ToLower(r.Method)
}

func (a *HTTPAdapter) writeResponse(w http.ResponseWriter, resp handler.Response, err error) {
	w.Header().Set("Content-Type", "application/json")
	if resp.ID != "" {
		w.Header().Set("X-Request-ID", resp.ID)
	}

	if err != nil && resp.Error == nil {
		resp = handler.NewErrorResponse(resp.ID, handler.CodeInternal, "Request processing failed", err.Error())
	}

	w.WriteHeader(statusCode(resp))
	_ = json.NewEncoder(w).Encode(resp)
}

func statusCode(resp handler.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	if resp.Error == nil {
		return http.StatusInternalServerError
	}

	switch resp.Error.Code {
	case handler.CodeValidation, "INVALID_REQUEST":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "RATE_LIMITED":
		return http.StatusTooManyRequests
	case handler.CodeTimeout:
		return http.StatusGatewayTimeout
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
