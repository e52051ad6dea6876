package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/middleware"
	"NewsTrader/internal/service/broadcast"
	"NewsTrader/pkg/config"
	xhttp "NewsTrader/pkg/http"
	applogger "NewsTrader/pkg/logger"
	"NewsTrader/pkg/metrics"
)

type countingProc struct {
	mu sync.Mutex
	n  int
}

func (c *countingProc) ProcessBatch(_ context.Context, trades []*models.TradeRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += len(trades)
	return nil
}

func (c *countingProc) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestShutdownFlushesJournal(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeout = time.Second
	log := applogger.NewNop()

	proc := &countingProc{}
	journal := middleware.NewJournalPipeline(proc, metrics.Nop{}, log,
		middleware.WithBatch(100, time.Hour))

	a := New(Deps{
		Config:  cfg,
		Logger:  log,
		Hub:     broadcast.NewHub(func() models.PortfolioSnapshot { return models.PortfolioSnapshot{} }, time.Second, metrics.Nop{}, log),
		Journal: journal,
	})
	a.httpServer = xhttp.NewServer(log, nil)
	close(a.loopDone)

	_, cancelBg := context.WithCancel(context.Background())
	a.startJournal()

	for _, id := range []string{"1", "2"} {
		require.NoError(t, journal.Record(context.Background(), &models.TradeRecord{
			ID: id, Timestamp: time.Now(), Action: models.ActionBuy,
			Ticker: "AAPL", Quantity: 1, Price: 10,
		}))
	}

	require.NoError(t, a.shutdown(cancelBg))
	assert.Equal(t, 2, proc.count())
}
