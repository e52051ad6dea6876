package newsfeed

import "NewsTrader/internal/domain/models"

// Inbox is a bounded queue of headlines pushed by external producers. It is
// drained by the feed on every fetch.
type Inbox struct {
	ch chan models.NewsItem
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 1
	}
	return &Inbox{ch: make(chan models.NewsItem, size)}
}

// Push enqueues item and reports false when the inbox is full.
func (in *Inbox) Push(item models.NewsItem) bool {
	select {
	case in.ch <- item:
		return true
	default:
		return false
	}
}

// Drain returns everything queued right now without blocking.
func (in *Inbox) Drain() []models.NewsItem {
	var out []models.NewsItem
	for {
		select {
		case item := <-in.ch:
			out = append(out, item)
		default:
			return out
		}
	}
}

func (in *Inbox) Len() int { return len(in.ch) }
