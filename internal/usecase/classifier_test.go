package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsTrader/internal/domain/models"
)

func TestClassifierBullish(t *testing.T) {
	c := NewClassifier(&seqRandom{floats: []float64{0.5}})
	d := c.Classify("NVIDIA reports record data center revenue as shares surge")

	assert.Equal(t, models.ActionBuy, d.Action)
	assert.Equal(t, "NVDA", d.Ticker)
	assert.InDelta(t, 0.7, d.Confidence, 1e-9)
	assert.Equal(t, "Bullish signals detected (2 positive keywords)", d.Reasoning)
	assert.InDelta(t, 0.05, d.AllocationPercent, 1e-9)
}

func TestClassifierBearishCapsConfidence(t *testing.T) {
	c := NewClassifier(&seqRandom{})
	d := c.Classify("Crypto crash: bitcoin plunge and slump deepen, loss warning, crisis feared")

	assert.Equal(t, models.ActionSell, d.Action)
	assert.Equal(t, "BTC-USD", d.Ticker)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, 0.02, d.AllocationPercent)
}

func TestClassifierTieIsRandomSpeculation(t *testing.T) {
	c := NewClassifier(&seqRandom{floats: []float64{0.999}, ints: []int{0, 1}})

	d := c.Classify("Markets open flat")
	assert.Equal(t, models.ActionBuy, d.Action)
	assert.Equal(t, 0.45, d.Confidence)
	assert.Equal(t, "SPY", d.Ticker)
	assert.Equal(t, "Neutral sentiment - taking speculative position", d.Reasoning)
	assert.Less(t, d.AllocationPercent, 0.08)
	assert.GreaterOrEqual(t, d.AllocationPercent, 0.02)

	d = c.Classify("Markets open flat")
	assert.Equal(t, models.ActionSell, d.Action)
}

func TestResolveTickerOrder(t *testing.T) {
	tests := map[string]string{
		"apple and microsoft team up":   "AAPL",
		"alphabet earnings":             "GOOGL",
		"facebook rebrand":              "META",
		"s&p 500 futures":               "SPY",
		"ethereum upgrade goes live":    "ETH-USD",
		"gold rallies":                  "GLD",
		"fed holds rates":               "SPY",
		"intel announces restructuring": "INTC",
	}
	for title, want := range tests {
		assert.Equal(t, want, ResolveTicker(title), title)
	}
}
