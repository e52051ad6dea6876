package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NewsTrader/internal/domain/repository"
	pkgcache "NewsTrader/pkg/cache"
	applogger "NewsTrader/pkg/logger"
)

type quote struct {
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Option configures a Source.
type Option func(*Source)

// WithTTL sets how long a quote is served from cache.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) { s.ttl = ttl }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) { s.timeout = d }
}

// WithUpstreams sets the upstream chain, tried in order.
func WithUpstreams(ups ...repository.PriceUpstream) Option {
	return func(s *Source) { s.upstreams = append(s.upstreams, ups...) }
}

// WithClock injects the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// Source is a PriceSource that never fails: cache, then upstreams, then the
// jittered reference table, then a generic constant.
type Source struct {
	cache     pkgcache.Service
	upstreams []repository.PriceUpstream
	rnd       repository.Random
	ttl       time.Duration
	timeout   time.Duration
	now       func() time.Time
	metrics   repository.Metrics
	log       *applogger.Logger
}

func New(c pkgcache.Service, rnd repository.Random, metrics repository.Metrics, log *applogger.Logger, opts ...Option) *Source {
	s := &Source{
		cache:   c,
		rnd:     rnd,
		ttl:     60 * time.Second,
		timeout: 4 * time.Second,
		now:     time.Now,
		metrics: metrics,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize upper-cases and trims a ticker.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// GetPrice returns a positive price for ticker.
func (s *Source) GetPrice(ctx context.Context, ticker string) float64 {
	ticker = Normalize(ticker)
	key := pkgcache.Key("price", ticker)

	var q quote
	if err := s.cache.Get(ctx, key, &q); err == nil && q.Price > 0 && s.now().Sub(q.FetchedAt) < s.ttl {
		return q.Price
	} else if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
		s.log.Debug("price cache read failed", applogger.String("ticker", ticker), applogger.Error(err))
	}

	if p, src, err := s.fromUpstreams(ctx, ticker); err == nil {
		s.store(ctx, key, quote{Price: p, Source: src, FetchedAt: s.now()})
		s.metrics.RecordLastPrice(ticker, p)
		return p
	} else if len(s.upstreams) > 0 {
		s.log.Debug("price upstreams failed, using reference", applogger.String("ticker", ticker), applogger.Error(err))
	}

	base, ok := ReferencePrice(ticker)
	if !ok {
		return UnknownTickerPrice
	}
	p := base + base*jitterRatio*(2*s.rnd.Float64()-1)
	s.store(ctx, key, quote{Price: p, Source: "reference", FetchedAt: s.now()})
	return p
}

// GetPrices looks up several tickers. Keys are the normalized tickers.
func (s *Source) GetPrices(ctx context.Context, tickers []string) map[string]float64 {
	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		out[Normalize(t)] = s.GetPrice(ctx, t)
	}
	return out
}

func (s *Source) fromUpstreams(ctx context.Context, ticker string) (float64, string, error) {
	var errs []error
	for _, up := range s.upstreams {
		p, err := s.call(ctx, up, ticker)
		if err == nil && p > 0 {
			return p, up.Name(), nil
		}
		if err == nil {
			err = fmt.Errorf("non-positive price %v", p)
		}
		s.metrics.RecordError("price_" + up.Name())
		errs = append(errs, fmt.Errorf("%s: %w", up.Name(), err))
	}
	if len(errs) == 0 {
		return 0, "", errors.New("no price upstreams")
	}
	return 0, "", errors.Join(errs...)
}

func (s *Source) call(ctx context.Context, up repository.PriceUpstream, ticker string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() { s.metrics.RecordLatency("price_"+up.Name(), time.Since(start).Seconds()) }()

	return up.Quote(ctx, ticker)
}

func (s *Source) store(ctx context.Context, key string, q quote) {
	if err := s.cache.Set(ctx, key, q, s.ttl); err != nil {
		s.log.Debug("price cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
