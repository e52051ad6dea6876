package usecase

import (
	"context"
	"errors"
	"sync"

	"NewsTrader/internal/domain/models"
)

// seqRandom returns scripted values, repeating the last one.
type seqRandom struct {
	floats []float64
	ints   []int
}

func (r *seqRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *seqRandom) Intn(int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	if len(r.ints) > 1 {
		r.ints = r.ints[1:]
	}
	return v
}

type fakeOracle struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
}

func (o *fakeOracle) Propose(ctx context.Context, prompt string) (string, error) {
	o.mu.Lock()
	o.prompts = append(o.prompts, prompt)
	o.mu.Unlock()
	if o.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return o.reply, o.err
}

func (o *fakeOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts)
}

type gateFunc func() bool

func (g gateFunc) Allow() bool { return g() }

var errUnavailable = errors.New("unavailable")

type fakeNews struct {
	batches [][]models.NewsItem
	calls   int
}

func (n *fakeNews) FetchLatest(context.Context) []models.NewsItem {
	n.calls++
	if len(n.batches) == 0 {
		return nil
	}
	b := n.batches[0]
	n.batches = n.batches[1:]
	return b
}

type fakePrices struct {
	prices map[string]float64
	asked  []string
}

func (p *fakePrices) GetPrice(_ context.Context, ticker string) float64 {
	p.asked = append(p.asked, ticker)
	if v, ok := p.prices[ticker]; ok {
		return v
	}
	return 100
}

func (p *fakePrices) GetPrices(ctx context.Context, tickers []string) map[string]float64 {
	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		out[t] = p.GetPrice(ctx, t)
	}
	return out
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	envs []models.Envelope
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, env models.Envelope) {
	b.mu.Lock()
	b.envs = append(b.envs, env)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) types() []models.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.EventType, len(b.envs))
	for i, e := range b.envs {
		out[i] = e.Type
	}
	return out
}

type fakeJournal struct {
	mu     sync.Mutex
	trades []*models.TradeRecord
	err    error
}

func (j *fakeJournal) Record(_ context.Context, t *models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.trades = append(j.trades, t)
	return j.err
}

func (j *fakeJournal) Close() error { return nil }
