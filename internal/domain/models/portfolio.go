package models

import "time"

// Position is a held quantity of one ticker at an average cost.
type Position struct {
	Ticker   string  `json:"ticker"`
	Quantity int64   `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
}

// TradeRecord is an immutable executed trade.
type TradeRecord struct {
	ID          string    `json:"id" validate:"required"`
	Timestamp   time.Time `json:"time" validate:"required"`
	Action      Action    `json:"action" validate:"required,oneof=BUY SELL"`
	Ticker      string    `json:"ticker" validate:"required"`
	Quantity    int64     `json:"qty" validate:"gt=0"`
	Price       float64   `json:"price" validate:"gt=0"`
	RealizedPnl *float64  `json:"pnl"`
	Reason      string    `json:"reason"`
}

// PortfolioSnapshot is the read-only projection pushed to observers.
type PortfolioSnapshot struct {
	Cash           float64          `json:"cash"`
	PortfolioValue float64          `json:"portfolio_value"`
	Positions      map[string]int64 `json:"positions"`
	TradeLog       []TradeRecord    `json:"trade_log"`
	ROI            float64          `json:"roi"`
	RealizedPnl    float64          `json:"realized_pnl"`
	TotalTrades    int              `json:"total_trades"`
}
