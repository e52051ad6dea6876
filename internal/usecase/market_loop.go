package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
	applogger "NewsTrader/pkg/logger"
)

// Analyzer turns a headline into a decision; it never fails.
type Analyzer interface {
	Analyze(ctx context.Context, item models.NewsItem) models.Decision
}

// RestartPolicy decides how long the loop rests after a cycle.
type RestartPolicy struct {
	Idle    time.Duration
	Backoff time.Duration
}

// Next returns Idle after a clean cycle and Backoff after a failed one.
func (p RestartPolicy) Next(err error) time.Duration {
	if err != nil {
		return p.Backoff
	}
	return p.Idle
}

// LoopStatus is the health view of the loop.
type LoopStatus struct {
	Running     bool      `json:"running"`
	Cycles      int64     `json:"cycles"`
	Failures    int64     `json:"failures"`
	LastCycleAt time.Time `json:"last_cycle_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type LoopOption func(*MarketLoop)

func WithPacing(d time.Duration) LoopOption {
	return func(l *MarketLoop) { l.pacing = d }
}

func WithRestartPolicy(p RestartPolicy) LoopOption {
	return func(l *MarketLoop) { l.policy = p }
}

func WithSleep(fn SleepFunc) LoopOption {
	return func(l *MarketLoop) { l.sleep = fn }
}

// WithJournal sends every executed trade to j.
func WithJournal(j repository.TradeJournal) LoopOption {
	return func(l *MarketLoop) { l.journal = j }
}

// MarketLoop drives the fetch, decide, trade and broadcast cycle.
type MarketLoop struct {
	news     repository.NewsSource
	prices   repository.PriceSource
	analyzer Analyzer
	ledger   *Ledger
	sink     repository.Broadcaster
	journal  repository.TradeJournal
	metrics  repository.Metrics
	log      *applogger.Logger

	pacing time.Duration
	policy RestartPolicy
	sleep  SleepFunc

	mu     sync.Mutex
	status LoopStatus
}

func NewMarketLoop(
	news repository.NewsSource,
	prices repository.PriceSource,
	analyzer Analyzer,
	ledger *Ledger,
	sink repository.Broadcaster,
	metrics repository.Metrics,
	log *applogger.Logger,
	opts ...LoopOption,
) *MarketLoop {
	l := &MarketLoop{
		news:     news,
		prices:   prices,
		analyzer: analyzer,
		ledger:   ledger,
		sink:     sink,
		metrics:  metrics,
		log:      log,
		pacing:   300 * time.Millisecond,
		policy:   RestartPolicy{Idle: time.Second, Backoff: 2 * time.Second},
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run cycles until ctx is cancelled. Failed or panicking cycles are logged
// and retried after the backoff.
func (l *MarketLoop) Run(ctx context.Context) {
	l.setRunning(true)
	defer l.setRunning(false)
	l.log.Info("market loop started",
		applogger.Duration("idle", l.policy.Idle),
		applogger.Duration("backoff", l.policy.Backoff),
		applogger.Duration("pacing", l.pacing))

	for {
		if ctx.Err() != nil {
			break
		}
		err := l.safeCycle(ctx)
		if ctx.Err() != nil {
			break
		}
		l.finishCycle(err)
		if err != nil {
			l.metrics.RecordError("cycle")
			l.log.Error("market cycle failed", applogger.Error(err))
		}
		if l.sleep(ctx, l.policy.Next(err)) != nil {
			break
		}
	}
	l.log.Info("market loop stopped", applogger.Int64("cycles", l.Status().Cycles))
}

func (l *MarketLoop) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("market cycle panic: %v", r)
		}
	}()
	return l.RunCycle(ctx)
}

// RunCycle performs one fetch and either processes the batch item by item or,
// when it is empty, revalues the held positions.
func (l *MarketLoop) RunCycle(ctx context.Context) error {
	start := time.Now()
	defer func() { l.metrics.RecordLatency("cycle", time.Since(start).Seconds()) }()

	items := l.news.FetchLatest(ctx)
	if len(items) == 0 {
		l.revalue(ctx)
		return nil
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.process(ctx, item)
		if i < len(items)-1 {
			if err := l.sleep(ctx, l.pacing); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *MarketLoop) process(ctx context.Context, item models.NewsItem) {
	l.sink.Broadcast(ctx, models.Envelope{Type: models.EventNewsAlert, Data: item})

	start := time.Now()
	d := l.analyzer.Analyze(ctx, item)
	l.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	price := l.prices.GetPrice(ctx, d.Ticker)
	l.metrics.RecordLastPrice(d.Ticker, price)

	l.sink.Broadcast(ctx, models.Envelope{Type: models.EventAgentThought, Data: models.AgentThought{
		Article:    item.Title,
		Thought:    d.Reasoning,
		Action:     d.Action,
		Confidence: d.Confidence,
		Ticker:     d.Ticker,
		LivePrice:  price,
	}})

	rec, reason := l.ledger.Execute(d, price)
	if rec != nil {
		l.metrics.RecordTrade(string(rec.Action), rec.Ticker)
		l.log.Info("trade executed",
			applogger.String("action", string(rec.Action)),
			applogger.String("ticker", rec.Ticker),
			applogger.Int64("qty", rec.Quantity),
			applogger.Float64("price", rec.Price))
		l.record(ctx, rec)
	} else {
		l.metrics.RecordRejection(string(reason))
		l.log.Debug("decision skipped",
			applogger.String("reason", string(reason)),
			applogger.String("action", string(d.Action)),
			applogger.String("ticker", d.Ticker),
			applogger.Float64("confidence", d.Confidence))
	}

	l.publishSnapshot(ctx)
}

func (l *MarketLoop) record(ctx context.Context, rec *models.TradeRecord) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(ctx, rec); err != nil {
		l.metrics.RecordError("journal")
		l.log.Warn("journal record failed", applogger.String("trade_id", rec.ID), applogger.Error(err))
	}
}

func (l *MarketLoop) revalue(ctx context.Context) {
	held := l.ledger.HeldTickers()
	if len(held) > 0 {
		l.ledger.RevalueAll(l.prices.GetPrices(ctx, held))
	}
	l.publishSnapshot(ctx)
}

func (l *MarketLoop) publishSnapshot(ctx context.Context) {
	snap := l.ledger.Snapshot()
	l.metrics.RecordPortfolio(snap.PortfolioValue, snap.Cash)
	l.sink.Broadcast(ctx, models.Envelope{Type: models.EventPortfolioUpdate, Data: snap})
}

func (l *MarketLoop) finishCycle(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Cycles++
	l.status.LastCycleAt = time.Now()
	l.status.LastError = ""
	if err != nil {
		l.status.Failures++
		l.status.LastError = err.Error()
	}
}

func (l *MarketLoop) setRunning(v bool) {
	l.mu.Lock()
	l.status.Running = v
	l.mu.Unlock()
}

// Status returns a copy of the loop health.
func (l *MarketLoop) Status() LoopStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
