package usecase

import (
	"context"
	"sync/atomic"

	"NewsTrader/internal/domain/models"
	drepo "NewsTrader/internal/domain/repository"
	applogger "NewsTrader/pkg/logger"
)

// TickSink receives streamed prints.
type TickSink interface {
	Apply(t *models.MarketTick)
}

// QuoteCollector keeps a quote book current from a market stream.
type QuoteCollector struct {
	stream  drepo.MarketStream
	book    TickSink
	metrics drepo.Metrics
	log     *applogger.Logger
	done    chan struct{}

	started atomic.Bool
	closing atomic.Bool
}

func NewQuoteCollector(stream drepo.MarketStream, book TickSink, metrics drepo.Metrics, log *applogger.Logger) *QuoteCollector {
	return &QuoteCollector{stream: stream, book: book, metrics: metrics, log: log, done: make(chan struct{})}
}

// IsConnected returns true if the market stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects and subscribes, then consumes in the background until ctx
// is done. Stream failures trigger reconnects.
func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		_ = c.stream.Close()
		return err
	}
	c.started.Store(true)
	go c.run(ctx)
	return nil
}

func (c *QuoteCollector) run(ctx context.Context) {
	defer close(c.done)
	for {
		ticks, errs := c.stream.Read(ctx)
		err := c.consume(ctx, ticks, errs)
		if ctx.Err() != nil || c.closing.Load() {
			return
		}
		c.metrics.RecordError("stream")
		c.log.Warn("quote stream dropped, reconnecting", applogger.Error(err))
		for {
			rerr := c.stream.Reconnect(ctx)
			if rerr == nil {
				break
			}
			if ctx.Err() != nil || c.closing.Load() {
				return
			}
			c.log.Warn("quote stream reconnect failed", applogger.Error(rerr))
		}
	}
}

// consume returns when the stream reports an error or closes.
func (c *QuoteCollector) consume(ctx context.Context, ticks <-chan *models.MarketTick, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err
		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			if t == nil {
				continue
			}
			c.book.Apply(t)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Shutdown closes the stream and waits for the consumer to exit.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	c.closing.Store(true)
	err := c.stream.Close()
	if !c.started.Load() {
		return err
	}
	select {
	case <-c.done:
	case <-ctx.Done():
	}
	return err
}
