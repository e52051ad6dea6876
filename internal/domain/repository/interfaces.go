package repository

import (
	"context"

	"NewsTrader/internal/domain/models"
)

// NewsSource yields the next batch of headlines. Never empty in practice.
type NewsSource interface {
	FetchLatest(ctx context.Context) []models.NewsItem
}

// NewsUpstream is a remote headline provider that may fail.
type NewsUpstream interface {
	Name() string
	Fetch(ctx context.Context) ([]models.NewsItem, error)
}

// PriceSource returns a positive price for any ticker.
type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) float64
	GetPrices(ctx context.Context, tickers []string) map[string]float64
}

// PriceUpstream is a remote quote provider that may fail.
type PriceUpstream interface {
	Name() string
	Quote(ctx context.Context, ticker string) (float64, error)
}

// DecisionOracle proposes a decision as raw text for a prompt.
type DecisionOracle interface {
	Propose(ctx context.Context, prompt string) (string, error)
}

// Broadcaster fans envelopes out to connected subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, env models.Envelope)
}

// TradeJournal receives executed trades, write-only.
type TradeJournal interface {
	Record(ctx context.Context, t *models.TradeRecord) error
	Close() error
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.MarketTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, t *models.TradeRecord) error
	PublishBatch(ctx context.Context, trades []*models.TradeRecord) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, t *models.TradeRecord) error
	StoreBatch(ctx context.Context, trades []*models.TradeRecord) error
	Health(ctx context.Context) error
	Close() error
}

// Random is the injectable randomness used by the classifier and price fallback.
type Random interface {
	Float64() float64
	Intn(n int) int
}

type Metrics interface {
	RecordTrade(action, ticker string)
	RecordRejection(reason string)
	RecordDecision(source, action string)
	RecordError(kind string)
	RecordPortfolio(value, cash float64)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSubscribers(n int)
	RecordDelivery(result string)
	RecordMessageSent(backend, symbol string)
}
