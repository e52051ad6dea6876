package usecase

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/util"
)

// RejectReason explains why a decision did not produce a trade. Rejections are
// normal control flow, not errors.
type RejectReason string

const (
	Accepted            RejectReason = ""
	RejectLowConfidence RejectReason = "low_confidence"
	RejectHold          RejectReason = "hold"
	RejectInvalidPrice  RejectReason = "invalid_price"
	RejectZeroQuantity  RejectReason = "zero_quantity"
	RejectNoCash        RejectReason = "insufficient_cash"
	RejectNoPosition    RejectReason = "no_position"
)

const reasonSnippetLen = 50

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithConfidenceThreshold overrides the minimum confidence needed to trade.
func WithConfidenceThreshold(v float64) LedgerOption {
	return func(l *Ledger) { l.threshold = v }
}

// WithTradeLogCapacity overrides how many trade records are kept.
func WithTradeLogCapacity(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithSnapshotTrades overrides how many trade records a snapshot carries.
func WithSnapshotTrades(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.snapshotTrades = n
		}
	}
}

// WithClock injects the time source used for trade timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator injects the trade ID generator.
func WithIDGenerator(gen func() string) LedgerOption {
	return func(l *Ledger) { l.newID = gen }
}

// Ledger is the paper portfolio: cash, positions, trade log and realized P&L.
// All methods are safe for concurrent use; mutations are serialized.
type Ledger struct {
	mu sync.Mutex

	initialCash    float64
	cash           float64
	portfolioValue float64
	realizedPnl    float64
	positions      map[string]*models.Position
	tradeLog       []models.TradeRecord // newest first

	threshold      float64
	capacity       int
	snapshotTrades int
	now            func() time.Time
	newID          func() string
}

// NewLedger creates a ledger funded with initialCash.
func NewLedger(initialCash float64, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		initialCash:    initialCash,
		cash:           initialCash,
		portfolioValue: initialCash,
		positions:      make(map[string]*models.Position),
		threshold:      0.35,
		capacity:       50,
		snapshotTrades: 20,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Execute applies a decision at the given price. It returns the executed trade,
// or nil and the reason the decision was skipped.
func (l *Ledger) Execute(d models.Decision, price float64) (*models.TradeRecord, RejectReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d.Confidence < l.threshold {
		return nil, RejectLowConfidence
	}
	if d.Action == models.ActionHold {
		return nil, RejectHold
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, RejectInvalidPrice
	}

	qty := int64(math.Floor(l.portfolioValue * d.AllocationPercent / price))
	if qty <= 0 {
		return nil, RejectZeroQuantity
	}

	var (
		rec    *models.TradeRecord
		reason RejectReason
	)
	switch d.Action {
	case models.ActionBuy:
		rec, reason = l.buy(d, qty, price)
	case models.ActionSell:
		rec, reason = l.sell(d, qty, price)
	default:
		return nil, RejectHold
	}

	if rec != nil {
		l.tradeLog = append([]models.TradeRecord{*rec}, l.tradeLog...)
		if len(l.tradeLog) > l.capacity {
			l.tradeLog = l.tradeLog[:l.capacity]
		}
	}

	// Only the traded ticker gets a fresh price; other holdings fall back to
	// average cost until RevalueAll runs.
	l.revalueLocked(map[string]float64{d.Ticker: price})
	return rec, reason
}

func (l *Ledger) buy(d models.Decision, qty int64, price float64) (*models.TradeRecord, RejectReason) {
	cost := float64(qty) * price
	if l.cash < cost {
		return nil, RejectNoCash
	}
	l.cash -= cost

	if pos, ok := l.positions[d.Ticker]; ok {
		newQty := pos.Quantity + qty
		pos.AvgPrice = (float64(pos.Quantity)*pos.AvgPrice + float64(qty)*price) / float64(newQty)
		pos.Quantity = newQty
	} else {
		l.positions[d.Ticker] = &models.Position{Ticker: d.Ticker, Quantity: qty, AvgPrice: price}
	}

	return l.record(models.ActionBuy, d, qty, price, nil), Accepted
}

func (l *Ledger) sell(d models.Decision, qty int64, price float64) (*models.TradeRecord, RejectReason) {
	pos, ok := l.positions[d.Ticker]
	if !ok || pos.Quantity <= 0 {
		return nil, RejectNoPosition
	}

	sold := min(pos.Quantity, qty)
	pnl := (price - pos.AvgPrice) * float64(sold)
	l.realizedPnl += pnl
	l.cash += float64(sold) * price

	pos.Quantity -= sold
	if pos.Quantity <= 0 {
		delete(l.positions, d.Ticker)
	}

	return l.record(models.ActionSell, d, sold, price, &pnl), Accepted
}

func (l *Ledger) record(action models.Action, d models.Decision, qty int64, price float64, pnl *float64) *models.TradeRecord {
	return &models.TradeRecord{
		ID:          l.newID(),
		Timestamp:   l.now(),
		Action:      action,
		Ticker:      d.Ticker,
		Quantity:    qty,
		Price:       price,
		RealizedPnl: pnl,
		Reason:      util.Truncate(d.Reasoning, reasonSnippetLen),
	}
}

// RevalueAll recomputes portfolio value. Positions missing from prices are
// marked at their average cost. Cash and positions are untouched.
func (l *Ledger) RevalueAll(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revalueLocked(prices)
	return l.portfolioValue
}

func (l *Ledger) revalueLocked(prices map[string]float64) {
	total := l.cash
	for ticker, pos := range l.positions {
		p, ok := prices[ticker]
		if !ok || p <= 0 {
			p = pos.AvgPrice
		}
		total += float64(pos.Quantity) * p
	}
	l.portfolioValue = total
}

// HeldTickers returns the held tickers in sorted order.
func (l *Ledger) HeldTickers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.positions))
	for t := range l.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Positions returns a copy of the detailed positions, sorted by ticker.
func (l *Ledger) Positions() []models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Trades returns up to limit of the most recent trade records, newest first.
func (l *Ledger) Trades(limit int) []models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tradesLocked(limit)
}

func (l *Ledger) tradesLocked(limit int) []models.TradeRecord {
	if limit <= 0 || limit > len(l.tradeLog) {
		limit = len(l.tradeLog)
	}
	out := make([]models.TradeRecord, limit)
	for i := 0; i < limit; i++ {
		out[i] = roundRecord(l.tradeLog[i])
	}
	return out
}

// Snapshot is the read-only projection sent to observers. Money and percent
// fields are rounded here; internal state keeps full precision.
func (l *Ledger) Snapshot() models.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make(map[string]int64, len(l.positions))
	for t, p := range l.positions {
		positions[t] = p.Quantity
	}

	roi := 0.0
	if l.initialCash > 0 {
		roi = (l.portfolioValue - l.initialCash) / l.initialCash * 100
	}

	return models.PortfolioSnapshot{
		Cash:           util.Round2(l.cash),
		PortfolioValue: util.Round2(l.portfolioValue),
		Positions:      positions,
		TradeLog:       l.tradesLocked(l.snapshotTrades),
		ROI:            util.Round2(roi),
		RealizedPnl:    util.Round2(l.realizedPnl),
		TotalTrades:    len(l.tradeLog),
	}
}

func roundRecord(r models.TradeRecord) models.TradeRecord {
	r.Price = util.Round2(r.Price)
	if r.RealizedPnl != nil {
		v := util.Round2(*r.RealizedPnl)
		r.RealizedPnl = &v
	}
	return r
}
