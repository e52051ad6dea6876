package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu    sync.Mutex
	topic string
	got   chan []AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	p.topic = topic
	p.mu.Unlock()
	p.got <- payload.([]AggregatedLogEntry)
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Format: "json", Output: "stdout"})
	require.Error(t, err)
}

func TestCollectorAggregatesRepeatedErrors(t *testing.T) {
	pub := &capturePublisher{got: make(chan []AggregatedLogEntry, 1)}
	l := NewNop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "newstrader.logs",
		Publisher:      pub,
	})
	defer l.RemoveCollector()

	for i := 0; i < 3; i++ {
		l.Error("oracle failed", Error(errors.New("timeout")))
	}
	l.Error("price upstream failed", String("ticker", "AAPL"))

	select {
	case entries := <-pub.got:
		require.Len(t, entries, 2)
		counts := map[string]int{}
		for _, e := range entries {
			counts[e.Message] = e.Count
		}
		assert.Equal(t, 3, counts["oracle failed"])
		assert.Equal(t, 1, counts["price upstream failed"])
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not flush")
	}

	pub.mu.Lock()
	assert.Equal(t, "newstrader.logs", pub.topic)
	pub.mu.Unlock()
}

func TestWithKeepsCollector(t *testing.T) {
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: &capturePublisher{got: make(chan []AggregatedLogEntry, 1)}})
	defer l.RemoveCollector()

	child := l.With("ledger")
	assert.Same(t, l.collector, child.collector)
	assert.NotPanics(t, func() { child.Info("ok", Float64("cash", 1.5)) })
}

func TestFingerprintIgnoresFieldOrder(t *testing.T) {
	a := fingerprint("warn", "stale price", "pricing/source.go:10", map[string]any{"ticker": "AAPL", "age": "5s"})
	b := fingerprint("warn", "stale price", "pricing/source.go:10", map[string]any{"age": "5s", "ticker": "AAPL"})
	c := fingerprint("warn", "stale price", "pricing/source.go:10", map[string]any{"ticker": "MSFT", "age": "5s"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCloseFlushesRemainingEntries(t *testing.T) {
	pub := &capturePublisher{got: make(chan []AggregatedLogEntry, 1)}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})
	c.AddLog("warn", "inbox full", map[string]any{"dropped": 1}, "usecase/inbox.go:1")
	c.Close()

	select {
	case entries := <-pub.got:
		require.Len(t, entries, 1)
		assert.Equal(t, "inbox full", entries[0].Message)
	default:
		t.Fatal("close did not publish")
	}
}

func TestFieldPlainValues(t *testing.T) {
	assert.Equal(t, "timeout", Error(errors.New("timeout")).plain())
	assert.Equal(t, "1.5s", Duration("took", 1500*time.Millisecond).plain())
	assert.Equal(t, "AAPL,MSFT", Strings("held", []string{"AAPL", "MSFT"}).plain())
}
