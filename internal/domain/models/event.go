package models

// EventType tags envelopes sent to subscribers.
type EventType string

const (
	EventNewsAlert       EventType = "NEWS_ALERT"
	EventAgentThought    EventType = "AGENT_THOUGHT"
	EventPortfolioUpdate EventType = "PORTFOLIO_UPDATE"
)

// Envelope is the wire frame: {"type": ..., "data": ...}.
type Envelope struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// AgentThought describes the decision taken for one headline.
type AgentThought struct {
	Article    string  `json:"article"`
	Thought    string  `json:"thought"`
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Ticker     string  `json:"ticker"`
	LivePrice  float64 `json:"live_price"`
}

// MarketTick is a last-trade print from a streaming quote feed.
type MarketTick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"ts"`
}
