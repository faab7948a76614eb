package handler

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lytix-Labs/lytix-go/collector/collectortest"
	"github.com/Lytix-Labs/lytix-go/llogger"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
	"github.com/Lytix-Labs/lytix-go/scope"
)

// echoWorker answers every request with its payload, fails on
// type "fail" and panics on type "panic".
type echoWorker struct {
	name string
	log  llogger.Logger
}

func (w *echoWorker) Name() string { return w.name }

func (w *echoWorker) Process(ctx context.Context, req Request) (Response, error) {
	if w.log != nil {
		w.log.Info(ctx, "echo worker handling "+req.Type)
	}
	switch req.Type {
	case "fail":
		return NewErrorResponse(req.ID, "WORKER_ERROR", "worker gave up", ""), nil
	case "panic":
		panic("worker exploded")
	}
	var payload map[string]any
	if err := req.Unmarshal(&payload); err != nil {
		return Response{}, err
	}
	return NewSuccessResponse(req.ID, payload)
}

func (w *echoWorker) Health(context.Context) error { return nil }

func newScopedLogger(t *testing.T, opts ...llogger.Option) (*llogger.ScopedLogger, *collectortest.Server) {
	t.Helper()
	srv := collectortest.NewServer(t)
	store := scope.NewStore(scope.WithLogger(logger.New("scope", "test", "error", io.Discard, nil)))

	base := []llogger.Option{
		llogger.WithStore(store),
		llogger.WithCollector(srv.Client()),
		llogger.WithOutput(io.Discard),
		llogger.WithDrainInterval(10 * time.Millisecond),
	}
	return llogger.New("handler-test", append(base, opts...)...), srv
}

func newTestProvider(out *bytes.Buffer) observability.Provider {
	var w io.Writer = io.Discard
	if out != nil {
		w = out
	}
	return observability.NewProvider(&observability.Config{
		ServiceName: "test",
		Environment: "test",
		LogLevel:    "debug",
		LogOutput:   w,
		Registerer:  prometheus.NewRegistry(),
	})
}

func jsonRequest(id, typ, payload string) Request {
	return Request{
		ID:        id,
		Source:    "unit-test",
		Type:      typ,
		Payload:   []byte(payload),
		Timestamp: time.Now().UTC(),
	}
}
