package platforms

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lytix-Labs/lytix-go/collector/collectortest"
	"github.com/Lytix-Labs/lytix-go/llogger"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
	"github.com/Lytix-Labs/lytix-go/scope"
)

func newScopedLogger(t *testing.T) (*llogger.ScopedLogger, *collectortest.Server) {
	t.Helper()
	srv := collectortest.NewServer(t)
	store := scope.NewStore(scope.WithLogger(logger.New("scope", "test", "error", io.Discard, nil)))

	log := llogger.New("platform-test",
		llogger.WithStore(store),
		llogger.WithCollector(srv.Client()),
		llogger.WithOutput(io.Discard),
		llogger.WithDrainInterval(10*time.Millisecond),
	)
	return log, srv
}

// settle waits for every background send of log's collector.
func settle(t *testing.T, log *llogger.ScopedLogger) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, log.Collector().Drain(ctx, 5*time.Millisecond))
}
