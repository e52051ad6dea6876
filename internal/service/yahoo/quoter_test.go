package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	q := &Quoter{lookup: func(s string) (float64, error) { return 185.2, nil }}
	p, err := q.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 185.2, p)
	assert.Equal(t, "yahoo", q.Name())
}

func TestQuoteRejectsZeroAndErrors(t *testing.T) {
	q := &Quoter{lookup: func(string) (float64, error) { return 0, nil }}
	_, err := q.Quote(context.Background(), "X")
	assert.Error(t, err)

	q = &Quoter{lookup: func(string) (float64, error) { return 0, errors.New("429") }}
	_, err = q.Quote(context.Background(), "X")
	assert.ErrorContains(t, err, "429")
}

func TestQuoteHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	q := &Quoter{lookup: func(string) (float64, error) { <-release; return 1, nil }}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Quote(ctx, "SPY")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
