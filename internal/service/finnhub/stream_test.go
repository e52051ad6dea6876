package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/pkg/logger"
)

func fakeFinnhub(t *testing.T, gotToken chan<- string, gotSymbols chan<- string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeFrame
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		gotSymbols <- sub.Symbol
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"trade","data":[{"s":"`+sub.Symbol+`","p":187.25,"v":3,"t":1700000000500}]}`))
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
}

func TestStreamDeliversTrades(t *testing.T) {
	tokens := make(chan string, 1)
	symbols := make(chan string, 1)
	srv := fakeFinnhub(t, tokens, symbols)
	defer srv.Close()

	s := NewStream(StreamConfig{
		APIKey:  "k&ey",
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbols: []string{"AAPL"},
	}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	assert.True(t, s.IsConnected())
	assert.Equal(t, "k&ey", <-tokens)
	require.NoError(t, s.Subscribe(ctx))
	assert.Equal(t, "AAPL", <-symbols)

	ticks, _ := s.Read(ctx)
	select {
	case tick := <-ticks:
		require.NotNil(t, tick)
		assert.Equal(t, "AAPL", tick.Symbol)
		assert.Equal(t, 187.25, tick.Price)
		assert.Equal(t, int64(1700000000), tick.Timestamp)
	case <-ctx.Done():
		t.Fatal("no tick received")
	}

	require.NoError(t, s.Close())
	assert.False(t, s.IsConnected())
}

func TestStreamReadWithoutConnection(t *testing.T) {
	s := NewStream(StreamConfig{URL: "ws://127.0.0.1:1"}, logger.NewNop())
	ticks, errs := s.Read(context.Background())

	assert.ErrorIs(t, <-errs, errNotConnected)
	_, ok := <-ticks
	assert.False(t, ok)
	assert.ErrorIs(t, s.Subscribe(context.Background()), errNotConnected)
}
