package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lytix-Labs/lytix-go/llogger"

	"github.com/google/uuid"
)

// Request is a unit of work handed to a Worker, independent of the
// platform it arrived on.
type Request struct {
	ID string `json:"id"`

	// Source is the platform the request came from ("http", "sqs").
	Source string `json:"source"`

	// Type selects what the worker does with the payload.
	Type string `json:"type"`

	Payload json.RawMessage `json:"payload"`

	// Metadata carries headers or message attributes.
	Metadata map[string]string `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Response is what a Worker returns.
type Response struct {
	ID          string            `json:"id"`
	Success     bool              `json:"success"`
	Data        json.RawMessage   `json:"data,omitempty"`
	Error       *ErrorResponse    `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
	Duration    time.Duration     `json:"duration,omitempty"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes set by the built-in middlewares.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
	CodeTimeout    = "TIMEOUT"
)

// NewRequest builds a request with a fresh id.
func NewRequest(requestType string, payload any) (Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Request{
		ID:        uuid.New().String(),
		Type:      requestType,
		Payload:   data,
		Metadata:  map[string]string{},
		Timestamp: time.Now().UTC(),
	}, nil
}

// Unmarshal decodes the payload into v.
func (r *Request) Unmarshal(v any) error {
	return json.Unmarshal(r.Payload, v)
}

// SetMetadata sets a metadata entry, allocating the map if needed.
func (r *Request) SetMetadata(key, value string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
}

// GetMetadata returns a metadata entry.
func (r *Request) GetMetadata(key string) (string, bool) {
	v, ok := r.Metadata[key]
	return v, ok
}

var traceKeys = []string{"trace_id", "x-trace-id", "x-b3-traceid", "correlation-id"}

// TraceID returns the first trace id found in the metadata.
func (r *Request) TraceID() string {
	for _, key := range traceKeys {
		if v := r.Metadata[key]; v != "" {
			return v
		}
	}
	return ""
}

// ScopeMetadata is the metadata a request contributes to its scope.
func (r *Request) ScopeMetadata() llogger.Metadata {
	md := llogger.Metadata{
		"requestId": r.ID,
		"source":    r.Source,
		"type":      r.Type,
	}
	if traceID := r.TraceID(); traceID != "" {
		md["traceId"] = traceID
	}
	return md
}

// Marshal encodes v into the response data.
func (r *Response) Marshal(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Data = data
	return nil
}

// NewErrorResponse builds a failed response.
func NewErrorResponse(id, code, message, details string) Response {
	return Response{
		ID:      id,
		Success: false,
		Error: &ErrorResponse{
			Code:      code,
			Message:   message,
			Details:   details,
			Retryable: code == CodeTimeout,
		},
		ProcessedAt: time.Now().UTC(),
	}
}

// NewSuccessResponse builds a successful response carrying data.
func NewSuccessResponse(id string, data any) (Response, error) {
	resp := Response{
		ID:          id,
		Success:     true,
		ProcessedAt: time.Now().UTC(),
	}
	if data != nil {
		if err := resp.Marshal(data); err != nil {
			return Response{}, fmt.Errorf("marshal response: %w", err)
		}
	}
	return resp, nil
}
