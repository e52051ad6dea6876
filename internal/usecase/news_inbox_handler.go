package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"NewsTrader/internal/domain/models"
	domrepo "NewsTrader/internal/domain/repository"
	pkgkafka "NewsTrader/pkg/kafka"
	"NewsTrader/pkg/queue"
	"NewsTrader/pkg/util"
)

// HeadlineJobType is the redis queue message type carrying one headline.
const HeadlineJobType = "news.headline"

// InboxPusher accepts headlines for the next market cycle.
type InboxPusher interface {
	Push(item models.NewsItem) bool
}

// HeadlineMessage is the wire schema for injected headlines.
type HeadlineMessage struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Link        string `json:"link,omitempty"`
	Source      string `json:"source,omitempty"`
	Published   string `json:"published,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	TickerHint  string `json:"ticker_hint,omitempty"`
}

// toItem validates m and maps it onto a NewsItem. defaultSource names the
// transport when the producer left source empty.
func (m HeadlineMessage) toItem(defaultSource string, now time.Time) (models.NewsItem, error) {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return models.NewsItem{}, fmt.Errorf("inbox: empty title")
	}
	link := m.Link
	if link == "" {
		link = m.URL
	}
	published := m.Published
	if published == "" {
		published = m.PublishedAt
	}
	source := m.Source
	if source == "" {
		source = defaultSource
	}
	return models.NewsItem{
		ID:          m.ID,
		Title:       title,
		Link:        link,
		Source:      source,
		PublishedAt: util.ParseTimeDefault(published, now),
		TickerHint:  strings.ToUpper(strings.TrimSpace(m.TickerHint)),
	}, nil
}

// inboxWriter decodes headlines and pushes them into the inbox. Shared by the
// kafka handler and the redis job.
type inboxWriter struct {
	inbox   InboxPusher
	metrics domrepo.Metrics
	source  string
	now     func() time.Time
}

func (w *inboxWriter) write(b []byte) error {
	var m HeadlineMessage
	if err := json.Unmarshal(b, &m); err != nil {
		w.metrics.RecordError("inbox_unmarshal")
		return fmt.Errorf("inbox decode: %w", err)
	}
	item, err := m.toItem(w.source, w.now())
	if err != nil {
		w.metrics.RecordError("inbox_invalid")
		return err
	}
	if !w.inbox.Push(item) {
		// a full inbox drops the headline; redelivery would only add latency
		w.metrics.RecordError("inbox_full")
		return nil
	}
	w.metrics.RecordMessageSent("inbox", item.Source)
	return nil
}

// NewsInboxHandler consumes externally produced headlines from Kafka and
// queues them for the market loop.
type NewsInboxHandler struct {
	topic string
	inboxWriter
}

func NewNewsInboxHandler(topic string, inbox InboxPusher, metrics domrepo.Metrics) *NewsInboxHandler {
	return &NewsInboxHandler{
		topic:       topic,
		inboxWriter: inboxWriter{inbox: inbox, metrics: metrics, source: "Kafka", now: time.Now},
	}
}

func (h *NewsInboxHandler) Topic() string { return h.topic }

func (h *NewsInboxHandler) Handle(_ context.Context, b []byte) error {
	return h.write(b)
}

// HeadlineJob is the redis queue counterpart of NewsInboxHandler.
type HeadlineJob struct {
	inboxWriter
}

func NewHeadlineJob(inbox InboxPusher, metrics domrepo.Metrics) *HeadlineJob {
	return &HeadlineJob{inboxWriter{inbox: inbox, metrics: metrics, source: "Redis", now: time.Now}}
}

func (j *HeadlineJob) Name() string { return "headline-inbox" }
func (j *HeadlineJob) Type() string { return HeadlineJobType }

func (j *HeadlineJob) Handle(_ context.Context, payload json.RawMessage) error {
	return j.write(payload)
}

var (
	_ pkgkafka.MessageHandler = (*NewsInboxHandler)(nil)
	_ queue.Job               = (*HeadlineJob)(nil)
)
