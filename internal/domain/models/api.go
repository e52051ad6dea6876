package models

// TradesRequest is the query of GET /api/trades.
type TradesRequest struct {
	Limit int `query:"limit" default:"20" validate:"gte=1,lte=50"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
	Loop        any    `json:"loop"`
}
