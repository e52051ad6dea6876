package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/usecase"
	xhttp "NewsTrader/pkg/http"
	xlogger "NewsTrader/pkg/logger"
)

// PortfolioReader is the read side of the ledger.
type PortfolioReader interface {
	Snapshot() models.PortfolioSnapshot
	Trades(limit int) []models.TradeRecord
	Positions() []models.Position
}

type LoopReporter interface {
	Status() usecase.LoopStatus
}

type SubscriberCounter interface {
	Count() int
}

// PortfolioEchoHandler serves read-only portfolio views and health.
type PortfolioEchoHandler struct {
	logger *xlogger.Logger
	ledger PortfolioReader
	loop   LoopReporter
	subs   SubscriberCounter
}

func NewPortfolioEchoHandler(logger *xlogger.Logger, ledger PortfolioReader, loop LoopReporter, subs SubscriberCounter) *PortfolioEchoHandler {
	return &PortfolioEchoHandler{logger: logger, ledger: ledger, loop: loop, subs: subs}
}

func (h *PortfolioEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/portfolio", h.Portfolio)
	g.GET("/trades", h.Trades)
	g.GET("/positions", h.Positions)
	e.GET("/healthz", h.Health)
}

func (h *PortfolioEchoHandler) Portfolio(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ledger.Snapshot())
}

func (h *PortfolioEchoHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	trades := h.ledger.Trades(req.Limit)
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

func (h *PortfolioEchoHandler) Positions(c echo.Context) error {
	positions := h.ledger.Positions()
	return xhttp.ListResponse(c, positions, int64(len(positions)))
}

// Health reports 503 until the market loop is running.
func (h *PortfolioEchoHandler) Health(c echo.Context) error {
	st := h.loop.Status()
	res := models.HealthResponse{Status: "ok", Subscribers: h.subs.Count(), Loop: st}
	if !st.Running {
		res.Status = "starting"
		return c.JSON(http.StatusServiceUnavailable, res)
	}
	if st.LastError != "" {
		res.Status = "degraded"
	}
	return c.JSON(http.StatusOK, res)
}
