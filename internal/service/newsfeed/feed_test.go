package newsfeed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/service/cache"
	"NewsTrader/pkg/logger"
)

type fixedRand struct{ n int }

func (r fixedRand) Float64() float64 { return 0 }
func (r fixedRand) Intn(int) int     { return r.n }

type stubUpstream struct {
	items []models.NewsItem
	err   error
	calls int
}

func (s *stubUpstream) Name() string { return "stub" }

func (s *stubUpstream) Fetch(context.Context) ([]models.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func newClock() (*time.Time, func() time.Time) {
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	return &now, func() time.Time { return now }
}

func TestSynthesizeWhenNoUpstreams(t *testing.T) {
	_, clock := newClock()
	f := New(cache.NewIdentityCache(500, 100), fixedRand{n: 2}, logger.NewNop(), WithClock(clock))

	items := f.FetchLatest(context.Background())
	require.Len(t, items, 3)
	assert.Equal(t, "Apple announces breakthrough in AI chip development - 14:05:09", items[0].Title)
	assert.Equal(t, "#", items[0].Link)
	assert.Equal(t, SyntheticSource, items[0].Source)
	assert.Equal(t, "AAPL", items[0].TickerHint)
	assert.Equal(t, "bullish", items[0].SentimentHint)
	assert.Equal(t, "NVDA", items[2].TickerHint)

	// rotation continues where it left off and wraps around
	for i := 0; i < 5; i++ {
		f.FetchLatest(context.Background())
	}
	items = f.FetchLatest(context.Background())
	assert.Equal(t, "GLD", items[0].TickerHint)
	assert.Equal(t, "AAPL", items[2].TickerHint)
}

func TestSyntheticItemsAreNotDeduplicated(t *testing.T) {
	_, clock := newClock()
	f := New(cache.NewIdentityCache(500, 100), fixedRand{n: 0}, logger.NewNop(), WithClock(clock))
	for i := 0; i < len(templates)+1; i++ {
		require.Len(t, f.FetchLatest(context.Background()), 1)
	}
}

func TestUpstreamDedupAndCooldown(t *testing.T) {
	now, clock := newClock()
	up := &stubUpstream{items: []models.NewsItem{
		{ID: "https://a", Title: "Apple beats"},
		{ID: "https://b", Title: "Oil slips"},
		{ID: "https://a", Title: "Apple beats again"},
	}}
	f := New(cache.NewIdentityCache(500, 100), fixedRand{n: 0}, logger.NewNop(),
		WithClock(clock), WithUpstreams(up), WithCooldown(60*time.Second))

	items := f.FetchLatest(context.Background())
	require.Len(t, items, 2)
	assert.Equal(t, "Apple beats", items[0].Title)

	// inside the cooldown the upstream is not called
	*now = now.Add(30 * time.Second)
	items = f.FetchLatest(context.Background())
	assert.Equal(t, 1, up.calls)
	require.Len(t, items, 1)
	assert.Equal(t, SyntheticSource, items[0].Source)

	// after the cooldown everything is already seen, so synthetic again
	*now = now.Add(31 * time.Second)
	items = f.FetchLatest(context.Background())
	assert.Equal(t, 2, up.calls)
	assert.Equal(t, SyntheticSource, items[0].Source)
}

func TestUpstreamFailureFallsBackToSynthetic(t *testing.T) {
	_, clock := newClock()
	up := &stubUpstream{err: errors.New("boom")}
	f := New(cache.NewIdentityCache(500, 100), fixedRand{n: 1}, logger.NewNop(), WithClock(clock), WithUpstreams(up))

	items := f.FetchLatest(context.Background())
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, strings.HasSuffix(it.Title, " - 14:05:09"))
	}
}

func TestInboxIsDrainedAndDeduplicated(t *testing.T) {
	_, clock := newClock()
	in := NewInbox(2)
	assert.True(t, in.Push(models.NewsItem{ID: "k-1", Title: "Gold rallies"}))
	assert.True(t, in.Push(models.NewsItem{ID: "k-1", Title: "Gold rallies"}))
	assert.False(t, in.Push(models.NewsItem{ID: "k-2", Title: "full"}))

	f := New(cache.NewIdentityCache(500, 100), fixedRand{n: 0}, logger.NewNop(), WithClock(clock), WithInbox(in))
	items := f.FetchLatest(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "Gold rallies", items[0].Title)
	assert.Equal(t, 0, in.Len())
}
