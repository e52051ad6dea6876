package finnhub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
)

func TestQuoteBookServesFreshMarks(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	b := NewQuoteBook(30 * time.Second)
	b.now = func() time.Time { return now }

	_, err := b.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNoQuote)

	b.Apply(&models.MarketTick{Symbol: "aapl", Price: 190.5})
	b.Apply(&models.MarketTick{Symbol: "MSFT", Price: 0})
	assert.Equal(t, 1, b.Len())

	p, err := b.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, p)

	now = now.Add(31 * time.Second)
	_, err = b.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestDecodeTicks(t *testing.T) {
	ticks := decodeTicks([]byte(`{"type":"trade","data":[{"s":"AAPL","p":191.2,"v":10,"t":1700000000123},{"s":"","p":1}]}`))
	require.Len(t, ticks, 1)
	assert.Equal(t, "AAPL", ticks[0].Symbol)
	assert.Equal(t, int64(1700000000), ticks[0].Timestamp)

	assert.Empty(t, decodeTicks([]byte(`{"type":"ping"}`)))
	assert.Empty(t, decodeTicks([]byte(`not json`)))
}
