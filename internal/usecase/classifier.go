package usecase

import (
	"fmt"
	"math"
	"strings"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
)

const (
	defaultTicker    = "SPY"
	tieConfidence    = 0.45
	maxKeywordConf   = 0.9
	minFallbackAlloc = 0.02
	maxFallbackAlloc = 0.08
	neutralReasoning = "Neutral sentiment - taking speculative position"
)

var bullishKeywords = []string{
	"surge", "soar", "rally", "gain", "profit", "beat", "growth", "record", "bullish",
	"buy", "upgrade", "positive", "strong", "rise", "jump", "boom", "breakthrough", "success",
}

var bearishKeywords = []string{
	"crash", "plunge", "fall", "drop", "loss", "miss", "decline", "bearish", "sell",
	"downgrade", "negative", "weak", "slump", "tumble", "warning", "crisis", "fail", "cut",
}

type alias struct {
	name   string
	ticker string
}

// First match wins, so order matters.
var tickerAliases = []alias{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"alphabet", "GOOGL"},
	{"amazon", "AMZN"},
	{"tesla", "TSLA"},
	{"nvidia", "NVDA"},
	{"meta", "META"},
	{"facebook", "META"},
	{"netflix", "NFLX"},
	{"amd", "AMD"},
	{"intel", "INTC"},
	{"bitcoin", "BTC-USD"},
	{"crypto", "BTC-USD"},
	{"ethereum", "ETH-USD"},
	{"oil", "USO"},
	{"gold", "GLD"},
	{"sp500", "SPY"},
	{"s&p", "SPY"},
}

// Classifier is the keyword fallback used when the oracle is unavailable or
// rate limited. It is deterministic except for the tie-break and allocation,
// both drawn from the injected Random.
type Classifier struct {
	rnd repository.Random
}

func NewClassifier(rnd repository.Random) *Classifier {
	return &Classifier{rnd: rnd}
}

// Classify derives a decision from a headline.
func (c *Classifier) Classify(headline string) models.Decision {
	title := strings.ToLower(headline)
	bull := countMatches(title, bullishKeywords)
	bear := countMatches(title, bearishKeywords)

	d := models.Decision{
		Ticker:            ResolveTicker(title),
		AllocationPercent: minFallbackAlloc + (maxFallbackAlloc-minFallbackAlloc)*c.rnd.Float64(),
	}
	switch {
	case bull > bear:
		d.Action = models.ActionBuy
		d.Confidence = keywordConfidence(bull)
		d.Reasoning = fmt.Sprintf("Bullish signals detected (%d positive keywords)", bull)
	case bear > bull:
		d.Action = models.ActionSell
		d.Confidence = keywordConfidence(bear)
		d.Reasoning = fmt.Sprintf("Bearish signals detected (%d negative keywords)", bear)
	default:
		d.Action = models.ActionBuy
		if c.rnd.Intn(2) == 1 {
			d.Action = models.ActionSell
		}
		d.Confidence = tieConfidence
		d.Reasoning = neutralReasoning
	}
	return d
}

// ResolveTicker maps a lower-cased headline to a ticker via the alias table.
func ResolveTicker(title string) string {
	for _, a := range tickerAliases {
		if strings.Contains(title, a.name) {
			return a.ticker
		}
	}
	return defaultTicker
}

func countMatches(title string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(title, w) {
			n++
		}
	}
	return n
}

func keywordConfidence(n int) float64 {
	return math.Min(0.5+0.1*float64(n), maxKeywordConf)
}
