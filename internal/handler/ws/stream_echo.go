package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"NewsTrader/internal/service/broadcast"
	xlogger "NewsTrader/pkg/logger"
)

// Hub is the part of the broadcast hub the stream endpoint needs.
type Hub interface {
	Connect(ctx context.Context, sub broadcast.Subscriber) error
	Disconnect(sub broadcast.Subscriber)
}

// StreamEchoHandler upgrades /ws requests and attaches them to the hub.
type StreamEchoHandler struct {
	logger   *xlogger.Logger
	hub      Hub
	upgrader websocket.Upgrader
}

func NewStreamEchoHandler(logger *xlogger.Logger, hub Hub) *StreamEchoHandler {
	return &StreamEchoHandler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the dashboard may be served from any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Stream)
}

// Stream serves one subscriber until it disconnects. Inbound frames are read
// and discarded.
func (h *StreamEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	sub := broadcast.NewWSSubscriber(conn)
	if err := h.hub.Connect(context.Background(), sub); err != nil {
		h.logger.Warn("websocket connect failed", xlogger.String("id", sub.ID()), xlogger.Error(err))
		_ = sub.Close()
		return nil
	}
	defer func() {
		h.hub.Disconnect(sub)
		_ = sub.Close()
	}()

	if err := sub.Drain(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Debug("websocket read ended", xlogger.String("id", sub.ID()), xlogger.Error(err))
	}
	return nil
}
