// Package collectortest provides an in-process Lytix collector for tests.
package collectortest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
)

// Event is one request received by the Server.
type Event struct {
	Path   string
	APIKey string
	Body   map[string]any
}

// MetricName returns the metricName field of the body, if any.
func (e Event) MetricName() string {
	name, _ := e.Body["metricName"].(string)
	return name
}

// Metadata returns the metricMetadata field of the body.
func (e Event) Metadata() map[string]any {
	md, _ := e.Body["metricMetadata"].(map[string]any)
	return md
}

// Logs returns the logs field of the body.
func (e Event) Logs() []string {
	raw, _ := e.Body["logs"].([]any)
	logs := make([]string, 0, len(raw))
	for _, l := range raw {
		if s, ok := l.(string); ok {
			logs = append(logs, s)
		}
	}
	return logs
}

// Server records every event posted to it.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	events []Event
	status int
	reply  string
	delay  time.Duration
}

// NewServer starts a Server that answers 200 with an empty body. It is
// closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay, status, reply := s.delay, s.status, s.reply
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	s.mu.Lock()
	s.events = append(s.events, Event{
		Path:   r.URL.Path,
		APIKey: r.Header.Get(collector.APIKeyHeader),
		Body:   body,
	})
	s.mu.Unlock()

	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

// Respond sets the status and body of subsequent replies.
func (s *Server) Respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.reply = status, body
}

// Delay makes subsequent replies wait d before answering.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Events returns a copy of the events received so far.
func (s *Server) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Named returns the received events whose metricName is name.
func (s *Server) Named(name string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.MetricName() == name {
			out = append(out, e)
		}
	}
	return out
}

// Client returns a collector client posting to s, with a short drain
// interval and its own log output discarded.
func (s *Server) Client(opts ...collector.Option) *collector.Client {
	cfg := config.DefaultLytixConfig()
	cfg.BaseURL = s.URL
	cfg.APIKey = "test-key"
	cfg.DrainInterval = 10 * time.Millisecond

	opts = append([]collector.Option{
		collector.WithLogger(logger.New("collector", "test", "error", io.Discard, nil)),
	}, opts...)
	return collector.NewClient(cfg, opts...)
}
