package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"NewsTrader/internal/domain/models"
	drepo "NewsTrader/internal/domain/repository"
	"NewsTrader/pkg/logger"
)

var errNotConnected = errors.New("finnhub: not connected")

// StreamConfig configures the trade stream.
type StreamConfig struct {
	APIKey         string
	URL            string
	Symbols        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Stream is a MarketStream over the Finnhub trades websocket.
type Stream struct {
	cfg    StreamConfig
	log    *logger.Logger
	dialer *websocket.Dialer

	mu   sync.Mutex // guards conn and serializes writes
	conn *websocket.Conn
}

func NewStream(cfg StreamConfig, log *logger.Logger) *Stream {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Stream{cfg: cfg, log: log, dialer: websocket.DefaultDialer}
}

var _ drepo.MarketStream = (*Stream)(nil)

func (s *Stream) Connect(ctx context.Context) error {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("finnhub url: %w", err)
	}
	q := u.Query()
	q.Set("token", s.cfg.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := s.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}

	// a missed pong lets the read fail instead of hanging
	wait := 2 * s.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("finnhub connected", logger.String("host", u.Host))
	return nil
}

func (s *Stream) Subscribe(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errNotConnected
	}
	for _, sym := range s.cfg.Symbols {
		if err := s.conn.WriteJSON(subscribeFrame{Type: "subscribe", Symbol: sym}); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.log.Info("finnhub subscribed", logger.Strings("symbols", s.cfg.Symbols))
	return nil
}

type subscribeFrame struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type tradeFrame struct {
	Type string `json:"type"`
	Data []struct {
		Symbol string  `json:"s"`
		Price  float64 `json:"p"`
		Volume float64 `json:"v"`
		TimeMs int64   `json:"t"`
	} `json:"data"`
}

// Read streams prints until ctx is done or the connection fails. Both
// channels close when reading stops; a failure is sent on errs first. Prints
// are dropped when the consumer falls behind.
func (s *Stream) Read(ctx context.Context) (<-chan *models.MarketTick, <-chan error) {
	ticks := make(chan *models.MarketTick, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		errs <- errNotConnected
		close(ticks)
		close(errs)
		return ticks, errs
	}

	readCtx, stop := context.WithCancel(ctx)
	go s.keepAlive(readCtx, conn)

	go func() {
		defer close(errs)
		defer close(ticks)
		defer stop()
		for readCtx.Err() == nil {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if readCtx.Err() == nil {
					errs <- fmt.Errorf("finnhub read: %w", err)
				}
				return
			}
			for _, t := range decodeTicks(frame) {
				select {
				case ticks <- t:
				default:
				}
			}
		}
	}()
	return ticks, errs
}

func (s *Stream) keepAlive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(s.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s.mu.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		s.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// decodeTicks returns the trade prints in a frame. Pings and other frame
// types decode to nothing.
func decodeTicks(frame []byte) []*models.MarketTick {
	var m tradeFrame
	if json.Unmarshal(frame, &m) != nil || m.Type != "trade" {
		return nil
	}
	out := make([]*models.MarketTick, 0, len(m.Data))
	for _, d := range m.Data {
		if d.Symbol == "" || d.Price <= 0 {
			continue
		}
		out = append(out, &models.MarketTick{
			Symbol:    d.Symbol,
			Price:     d.Price,
			Volume:    d.Volume,
			Timestamp: d.TimeMs / 1000,
		})
	}
	return out
}

// Reconnect drops the connection, waits ReconnectDelay, then dials and
// subscribes again.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.ReconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}
