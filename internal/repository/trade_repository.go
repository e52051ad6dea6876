package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
	pkgkafka "NewsTrader/pkg/kafka"
)

// TradesTableDDL returns the idempotent schema for the trade journal table.
func TradesTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	ts DateTime64(3),
	action LowCardinality(String),
	ticker LowCardinality(String),
	qty Int64,
	price Float64,
	pnl Nullable(Float64),
	reason String
) ENGINE = ReplacingMergeTree
ORDER BY (ticker, ts, id)`, table)
}

const tradeColumns = "(id, ts, action, ticker, qty, price, pnl, reason)"

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, TradesTableDDL(s.table)); err != nil {
		return fmt.Errorf("init %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, t *models.TradeRecord) error {
	q := fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table, tradeColumns)
	_, err := s.db.ExecContext(ctx, q, tradeArgs(t)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, trades []*models.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	const chunkSize = 500
	for start := 0; start < len(trades); start += chunkSize {
		end := min(start+chunkSize, len(trades))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, t := range trades[start:end] {
			if t == nil || t.ID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, tradeArgs(t)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s %s VALUES %s", s.table, tradeColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func tradeArgs(t *models.TradeRecord) []interface{} {
	return []interface{}{
		t.ID,
		t.Timestamp,
		string(t.Action),
		t.Ticker,
		t.Quantity,
		t.Price,
		t.RealizedPnl,
		t.Reason,
	}
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Trades are keyed by ticker so one ticker's history stays on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, t *models.TradeRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Ticker), t)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, trades []*models.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(trades))
	for i, t := range trades {
		msgs[i] = pkgkafka.Message{Key: []byte(t.Ticker), Value: t}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return nil // producer is shared with the log collector
}
