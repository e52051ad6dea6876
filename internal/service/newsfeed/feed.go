package newsfeed

import (
	"context"
	"strings"
	"sync"
	"time"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
	"NewsTrader/internal/service/cache"
	svcmetrics "NewsTrader/internal/service/metrics"
	"NewsTrader/pkg/logger"
	"NewsTrader/pkg/util"
)

// Option configures a Feed.
type Option func(*Feed)

func WithUpstreams(ups ...repository.NewsUpstream) Option {
	return func(f *Feed) { f.upstreams = append(f.upstreams, ups...) }
}

func WithInbox(in *Inbox) Option {
	return func(f *Feed) { f.inbox = in }
}

// WithCooldown sets the minimum gap between upstream pulls.
func WithCooldown(d time.Duration) Option {
	return func(f *Feed) { f.cooldown = d }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Feed) { f.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// Feed is the NewsSource used by the market loop. Upstream headlines are
// pulled at most once per cooldown and deduplicated by identity; when nothing
// new arrives it synthesizes headlines so the loop keeps trading.
type Feed struct {
	upstreams []repository.NewsUpstream
	inbox     *Inbox
	seen      *cache.IdentityCache
	rnd       repository.Random
	cooldown  time.Duration
	timeout   time.Duration
	now       func() time.Time
	log       *logger.Logger

	mu        sync.Mutex
	lastPull  time.Time
	nextIndex int
}

func New(seen *cache.IdentityCache, rnd repository.Random, log *logger.Logger, opts ...Option) *Feed {
	f := &Feed{
		seen:     seen,
		rnd:      rnd,
		cooldown: 60 * time.Second,
		timeout:  5 * time.Second,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchLatest returns new headlines, or 1-3 synthetic ones when none are new.
func (f *Feed) FetchLatest(ctx context.Context) []models.NewsItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	var fresh []models.NewsItem
	if f.pullDue() {
		f.lastPull = f.now()
		for _, up := range f.upstreams {
			fresh = append(fresh, f.keepNew(f.pull(ctx, up))...)
		}
	}
	if f.inbox != nil {
		fresh = append(fresh, f.keepNew(f.inbox.Drain())...)
	}
	if len(fresh) > 0 {
		return fresh
	}
	return f.synthesize(f.rnd.Intn(3) + 1)
}

func (f *Feed) pullDue() bool {
	if len(f.upstreams) == 0 {
		return false
	}
	return f.lastPull.IsZero() || f.now().Sub(f.lastPull) > f.cooldown
}

func (f *Feed) pull(ctx context.Context, up repository.NewsUpstream) []models.NewsItem {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	items, err := up.Fetch(ctx)
	svcmetrics.ObserveFetch(up.Name(), start, len(items), err)
	if err != nil {
		f.log.Warn("news upstream failed", logger.String("upstream", up.Name()), logger.Error(err))
		return nil
	}
	f.log.Debug("news upstream fetched", logger.String("upstream", up.Name()), logger.Int("items", len(items)))
	return items
}

func (f *Feed) keepNew(items []models.NewsItem) []models.NewsItem {
	out := items[:0:0]
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		if f.seen.Add(it.Identity()) {
			out = append(out, it)
		}
	}
	return out
}

func (f *Feed) synthesize(n int) []models.NewsItem {
	now := f.now()
	out := make([]models.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		t := templates[f.nextIndex%len(templates)]
		f.nextIndex++
		out = append(out, models.NewsItem{
			Title:         t.title + " - " + util.ClockStamp(now),
			Link:          syntheticLink,
			Source:        SyntheticSource,
			PublishedAt:   now,
			TickerHint:    t.ticker,
			SentimentHint: t.sentiment,
		})
	}
	return out
}
