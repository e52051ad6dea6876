package models

import "time"

// NewsItem is a single headline flowing through the market loop.
type NewsItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Source        string    `json:"source"`
	PublishedAt   time.Time `json:"published"`
	TickerHint    string    `json:"ticker_hint,omitempty"`
	SentimentHint string    `json:"sentiment_hint,omitempty"`
}

// Identity returns the dedup key: URL when present, else the title.
func (n NewsItem) Identity() string {
	if n.ID != "" {
		return n.ID
	}
	if n.Link != "" && n.Link != "#" {
		return n.Link
	}
	return n.Title
}
