package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/metrics"
)

type memPublisher struct {
	single []*models.TradeRecord
	batch  []*models.TradeRecord
	err    error
	closed bool
}

func (p *memPublisher) Publish(_ context.Context, t *models.TradeRecord) error {
	p.single = append(p.single, t)
	return p.err
}

func (p *memPublisher) PublishBatch(_ context.Context, ts []*models.TradeRecord) error {
	p.batch = append(p.batch, ts...)
	return p.err
}

func (p *memPublisher) Close() error { p.closed = true; return nil }

type memStorage struct {
	rows []*models.TradeRecord
}

func (s *memStorage) Init(context.Context) error { return nil }

func (s *memStorage) Store(_ context.Context, t *models.TradeRecord) error {
	s.rows = append(s.rows, t)
	return nil
}

func (s *memStorage) StoreBatch(_ context.Context, ts []*models.TradeRecord) error {
	s.rows = append(s.rows, ts...)
	return nil
}

func (s *memStorage) Health(context.Context) error { return nil }
func (s *memStorage) Close() error                 { return nil }

func TestJournalProcessorRoutesByBackend(t *testing.T) {
	rec := &models.TradeRecord{ID: "t-1", Ticker: "AAPL", Action: models.ActionBuy, Quantity: 1, Price: 1}

	pub, store := &memPublisher{}, &memStorage{}
	kp := NewJournalProcessor(pub, store, metrics.Nop{}, JournalKafka)
	require.NoError(t, kp.Process(context.Background(), rec))
	require.NoError(t, kp.ProcessBatch(context.Background(), []*models.TradeRecord{rec, rec}))
	assert.Len(t, pub.single, 1)
	assert.Len(t, pub.batch, 2)
	assert.Empty(t, store.rows)

	cp := NewJournalProcessor(pub, store, metrics.Nop{}, JournalClickHouse)
	require.NoError(t, cp.ProcessBatch(context.Background(), []*models.TradeRecord{rec}))
	assert.Len(t, store.rows, 1)

	kp.Close()
	assert.True(t, pub.closed)
}

func TestJournalProcessorErrors(t *testing.T) {
	rec := &models.TradeRecord{ID: "t-1", Ticker: "AAPL"}

	assert.ErrorContains(t, NewJournalProcessor(nil, nil, metrics.Nop{}, "carrier-pigeon").Process(context.Background(), rec), "unknown backend")
	assert.Error(t, NewJournalProcessor(nil, nil, metrics.Nop{}, JournalKafka).Process(context.Background(), nil))

	pub := &memPublisher{err: errUnavailable}
	err := NewJournalProcessor(pub, nil, metrics.Nop{}, JournalKafka).Process(context.Background(), rec)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Contains(t, err.Error(), "t-1")
}
