package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/logger"
	"NewsTrader/pkg/metrics"
)

// scriptedStream serves one batch of ticks per Read, then reports an error.
type scriptedStream struct {
	mu         sync.Mutex
	batches    [][]*models.MarketTick
	reconnects int
	connected  bool
}

func (s *scriptedStream) Connect(context.Context) error   { s.connected = true; return nil }
func (s *scriptedStream) Subscribe(context.Context) error { return nil }
func (s *scriptedStream) IsConnected() bool               { return s.connected }

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *scriptedStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *scriptedStream) Read(ctx context.Context) (<-chan *models.MarketTick, <-chan error) {
	ticks := make(chan *models.MarketTick, 8)
	errs := make(chan error, 1)
	s.mu.Lock()
	var batch []*models.MarketTick
	if len(s.batches) > 0 {
		batch, s.batches = s.batches[0], s.batches[1:]
	}
	s.mu.Unlock()
	go func() {
		for _, t := range batch {
			ticks <- t
		}
		if batch == nil {
			<-ctx.Done()
			return
		}
		// give the consumer a chance to drain before the failure
		time.Sleep(10 * time.Millisecond)
		errs <- errors.New("connection reset")
	}()
	return ticks, errs
}

type tickBook struct {
	mu    sync.Mutex
	ticks []*models.MarketTick
}

func (b *tickBook) Apply(t *models.MarketTick) {
	b.mu.Lock()
	b.ticks = append(b.ticks, t)
	b.mu.Unlock()
}

func (b *tickBook) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ticks)
}

func TestQuoteCollectorAppliesTicksAndReconnects(t *testing.T) {
	stream := &scriptedStream{batches: [][]*models.MarketTick{
		{{Symbol: "AAPL", Price: 190}, {Symbol: "MSFT", Price: 410}},
		{{Symbol: "AAPL", Price: 191}},
	}}
	book := &tickBook{}
	c := NewQuoteCollector(stream, book, metrics.Nop{}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsConnected())

	assert.Eventually(t, func() bool { return book.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		stream.mu.Lock()
		defer stream.mu.Unlock()
		return stream.reconnects == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, c.Shutdown(shutdownCtx))
	assert.False(t, c.IsConnected())
}
