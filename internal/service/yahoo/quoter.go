package yahoo

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go/quote"
)

type lookupFunc func(symbol string) (float64, error)

// Quoter is a PriceUpstream backed by Yahoo Finance quotes.
type Quoter struct {
	lookup lookupFunc
}

func New() *Quoter {
	return &Quoter{lookup: regularMarketPrice}
}

func (q *Quoter) Name() string { return "yahoo" }

// Quote returns the regular market price, falling back to the previous close
// outside trading hours. The library call is not cancellable, so ctx only
// bounds how long we wait for it.
func (q *Quoter) Quote(ctx context.Context, ticker string) (float64, error) {
	type result struct {
		p   float64
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := q.lookup(ticker)
		ch <- result{p, err}
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("yahoo %s: %w", ticker, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return 0, fmt.Errorf("yahoo %s: %w", ticker, r.err)
		}
		if r.p <= 0 {
			return 0, fmt.Errorf("yahoo %s: no price", ticker)
		}
		return r.p, nil
	}
}

func regularMarketPrice(symbol string) (float64, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, err
	}
	if q == nil {
		return 0, fmt.Errorf("unknown symbol")
	}
	if q.RegularMarketPrice > 0 {
		return q.RegularMarketPrice, nil
	}
	return q.RegularMarketPreviousClose, nil
}
