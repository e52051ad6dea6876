package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/logger"
	"NewsTrader/pkg/metrics"
)

type analyzerFunc func(models.NewsItem) models.Decision

func (f analyzerFunc) Analyze(_ context.Context, item models.NewsItem) models.Decision { return f(item) }

type panicNews struct{}

func (panicNews) FetchLatest(context.Context) []models.NewsItem { panic("feed exploded") }

type sleepRecorder struct {
	mu     sync.Mutex
	waits  []time.Duration
	cancel context.CancelFunc
	limit  int
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	n := len(s.waits)
	s.mu.Unlock()
	if s.limit > 0 && n >= s.limit {
		s.cancel()
	}
	return ctx.Err()
}

func buyAAPL(models.NewsItem) models.Decision {
	return models.Decision{Action: models.ActionBuy, Ticker: "AAPL", Confidence: 0.8, AllocationPercent: 0.05, Reasoning: "beat"}
}

func TestRunCycleEmitsEventsPerItem(t *testing.T) {
	news := &fakeNews{batches: [][]models.NewsItem{{{Title: "Apple beats"}, {Title: "Apple beats again"}}}}
	prices := &fakePrices{prices: map[string]float64{"AAPL": 185}}
	sink := &recordingBroadcaster{}
	journal := &fakeJournal{}
	sleeper := &sleepRecorder{}
	ledger := newTestLedger(100000)

	loop := NewMarketLoop(news, prices, analyzerFunc(buyAAPL), ledger, sink, metrics.Nop{}, logger.NewNop(),
		WithJournal(journal), WithSleep(sleeper.sleep))

	require.NoError(t, loop.RunCycle(context.Background()))

	assert.Equal(t, []models.EventType{
		models.EventNewsAlert, models.EventAgentThought, models.EventPortfolioUpdate,
		models.EventNewsAlert, models.EventAgentThought, models.EventPortfolioUpdate,
	}, sink.types())
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, sleeper.waits)
	assert.Len(t, journal.trades, 2)

	thought := sink.envs[1].Data.(models.AgentThought)
	assert.Equal(t, "Apple beats", thought.Article)
	assert.Equal(t, "beat", thought.Thought)
	assert.Equal(t, 185.0, thought.LivePrice)

	snap := sink.envs[2].Data.(models.PortfolioSnapshot)
	assert.Equal(t, 95005.0, snap.Cash)
}

func TestRunCycleRejectionStillPublishesSnapshot(t *testing.T) {
	news := &fakeNews{batches: [][]models.NewsItem{{{Title: "meh"}}}}
	sink := &recordingBroadcaster{}
	journal := &fakeJournal{}
	low := analyzerFunc(func(models.NewsItem) models.Decision {
		return models.Decision{Action: models.ActionBuy, Ticker: "SPY", Confidence: 0.2, AllocationPercent: 0.05}
	})
	ledger := newTestLedger(100000)
	loop := NewMarketLoop(news, &fakePrices{}, low, ledger, sink, metrics.Nop{}, logger.NewNop(), WithJournal(journal))

	require.NoError(t, loop.RunCycle(context.Background()))
	assert.Len(t, sink.envs, 3)
	assert.Empty(t, journal.trades)
	assert.Equal(t, 100000.0, ledger.Snapshot().Cash)
}

func TestRunCycleEmptyBatchRevaluesHeld(t *testing.T) {
	ledger := newTestLedger(100000)
	_, reason := ledger.Execute(buyAAPL(models.NewsItem{}), 100) // 50 shares
	require.Equal(t, Accepted, reason)

	prices := &fakePrices{prices: map[string]float64{"AAPL": 110}}
	sink := &recordingBroadcaster{}
	loop := NewMarketLoop(&fakeNews{}, prices, analyzerFunc(buyAAPL), ledger, sink, metrics.Nop{}, logger.NewNop())

	require.NoError(t, loop.RunCycle(context.Background()))
	assert.Equal(t, []string{"AAPL"}, prices.asked)
	require.Equal(t, []models.EventType{models.EventPortfolioUpdate}, sink.types())
	assert.Equal(t, 100500.0, sink.envs[0].Data.(models.PortfolioSnapshot).PortfolioValue)
}

func TestRunCycleJournalFailureDoesNotStopTrading(t *testing.T) {
	news := &fakeNews{batches: [][]models.NewsItem{{{Title: "a"}}}}
	journal := &fakeJournal{err: errUnavailable}
	ledger := newTestLedger(100000)
	loop := NewMarketLoop(news, &fakePrices{}, analyzerFunc(buyAAPL), ledger, &recordingBroadcaster{},
		metrics.Nop{}, logger.NewNop(), WithJournal(journal))

	require.NoError(t, loop.RunCycle(context.Background()))
	assert.Len(t, ledger.Trades(0), 1)
}

func TestRestartPolicyNext(t *testing.T) {
	p := RestartPolicy{Idle: time.Second, Backoff: 2 * time.Second}
	assert.Equal(t, time.Second, p.Next(nil))
	assert.Equal(t, 2*time.Second, p.Next(errUnavailable))
}

func TestRunRecoversPanicAndBacksOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &sleepRecorder{cancel: cancel, limit: 2}

	loop := NewMarketLoop(panicNews{}, &fakePrices{}, analyzerFunc(buyAAPL), newTestLedger(1000), &recordingBroadcaster{},
		metrics.Nop{}, logger.NewNop(),
		WithSleep(sleeper.sleep), WithRestartPolicy(RestartPolicy{Idle: time.Second, Backoff: 2 * time.Second}))

	loop.Run(ctx)

	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.waits)
	st := loop.Status()
	assert.False(t, st.Running)
	assert.Equal(t, int64(2), st.Cycles)
	assert.Equal(t, int64(2), st.Failures)
	assert.Contains(t, st.LastError, "feed exploded")
}

func TestRunIdlesAfterCleanCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &sleepRecorder{cancel: cancel, limit: 3}

	loop := NewMarketLoop(&fakeNews{}, &fakePrices{}, analyzerFunc(buyAAPL), newTestLedger(1000), &recordingBroadcaster{},
		metrics.Nop{}, logger.NewNop(), WithSleep(sleeper.sleep))
	loop.Run(ctx)

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, sleeper.waits)
	assert.Empty(t, loop.Status().LastError)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	news := &fakeNews{}
	loop := NewMarketLoop(news, &fakePrices{}, analyzerFunc(buyAAPL), newTestLedger(1000), &recordingBroadcaster{},
		metrics.Nop{}, logger.NewNop())

	done := make(chan struct{})
	go func() { loop.Run(ctx); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Zero(t, news.calls)
}
