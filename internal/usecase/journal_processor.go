package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsTrader/internal/domain/models"
	drepo "NewsTrader/internal/domain/repository"
)

// Journal backends.
const (
	JournalNone       = "none"
	JournalKafka      = "kafka"
	JournalClickHouse = "clickhouse"
)

// JournalProcessor routes executed trades to the configured backend.
type JournalProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

func NewJournalProcessor(pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, backend string) *JournalProcessor {
	return &JournalProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process writes a single trade.
func (p *JournalProcessor) Process(ctx context.Context, t *models.TradeRecord) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case JournalKafka:
		err = p.pub.Publish(ctx, t)
	case JournalClickHouse:
		err = p.store.Store(ctx, t)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("journal_process")
		return fmt.Errorf("journal trade %s: %w", t.ID, err)
	}

	p.metrics.RecordMessageSent(p.backend, t.Ticker)
	p.metrics.RecordLatency("journal_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch writes several trades in one round trip.
func (p *JournalProcessor) ProcessBatch(ctx context.Context, trades []*models.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case JournalKafka:
		err = p.pub.PublishBatch(ctx, trades)
	case JournalClickHouse:
		err = p.store.StoreBatch(ctx, trades)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("journal_process_batch")
		return fmt.Errorf("journal batch: %w", err)
	}

	for _, t := range trades {
		p.metrics.RecordMessageSent(p.backend, t.Ticker)
	}
	p.metrics.RecordLatency("journal_process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *JournalProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
