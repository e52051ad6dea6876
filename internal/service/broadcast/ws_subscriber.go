package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSSubscriber adapts a gorilla websocket connection to a Subscriber.
type WSSubscriber struct {
	id        string
	conn      *websocket.Conn
	closeOnce sync.Once
}

func NewWSSubscriber(conn *websocket.Conn) *WSSubscriber {
	return &WSSubscriber{id: uuid.NewString(), conn: conn}
}

func (s *WSSubscriber) ID() string { return s.id }

// Send writes one text frame, bounded by the context deadline.
func (s *WSSubscriber) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *WSSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

// Drain reads and discards inbound frames until the peer goes away.
func (s *WSSubscriber) Drain() error {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return err
		}
	}
}
