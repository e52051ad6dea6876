package finnhub

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"NewsTrader/internal/domain/models"
)

var ErrNoQuote = errors.New("finnhub: no fresh quote")

type mark struct {
	price float64
	at    time.Time
}

// QuoteBook keeps the last streamed print per symbol and serves it as a
// price upstream while it is younger than maxAge.
type QuoteBook struct {
	mu     sync.RWMutex
	marks  map[string]mark
	maxAge time.Duration
	now    func() time.Time
}

func NewQuoteBook(maxAge time.Duration) *QuoteBook {
	return &QuoteBook{marks: make(map[string]mark), maxAge: maxAge, now: time.Now}
}

func (b *QuoteBook) Name() string { return "finnhub" }

// Apply records a tick. Finnhub crypto symbols like BINANCE:BTCUSDT are kept
// verbatim; equities match tickers directly.
func (b *QuoteBook) Apply(t *models.MarketTick) {
	if t == nil || t.Price <= 0 {
		return
	}
	b.mu.Lock()
	b.marks[strings.ToUpper(t.Symbol)] = mark{price: t.Price, at: b.now()}
	b.mu.Unlock()
}

func (b *QuoteBook) Quote(_ context.Context, ticker string) (float64, error) {
	b.mu.RLock()
	m, ok := b.marks[strings.ToUpper(ticker)]
	b.mu.RUnlock()
	if !ok || (b.maxAge > 0 && b.now().Sub(m.at) > b.maxAge) {
		return 0, ErrNoQuote
	}
	return m.price, nil
}

func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.marks)
}
