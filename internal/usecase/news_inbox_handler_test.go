package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/metrics"
)

type sliceInbox struct {
	items []models.NewsItem
	full  bool
}

func (s *sliceInbox) Push(item models.NewsItem) bool {
	if s.full {
		return false
	}
	s.items = append(s.items, item)
	return true
}

func TestNewsInboxHandlerPushesItems(t *testing.T) {
	in := &sliceInbox{}
	h := NewNewsInboxHandler("newstrader.news", in, metrics.Nop{})
	assert.Equal(t, "newstrader.news", h.Topic())

	err := h.Handle(context.Background(), []byte(`{"title":" Tesla recalls Cybertruck ","url":"https://x/1","publishedAt":"2024-05-01T10:00:00Z","ticker_hint":"tsla"}`))
	require.NoError(t, err)
	require.Len(t, in.items, 1)
	item := in.items[0]
	assert.Equal(t, "Tesla recalls Cybertruck", item.Title)
	assert.Equal(t, "https://x/1", item.Link)
	assert.Equal(t, "https://x/1", item.Identity())
	assert.Equal(t, "Kafka", item.Source)
	assert.Equal(t, "TSLA", item.TickerHint)
	assert.Equal(t, 2024, item.PublishedAt.Year())
}

func TestNewsInboxHandlerRejectsBadPayloads(t *testing.T) {
	h := NewNewsInboxHandler("t", &sliceInbox{}, metrics.Nop{})
	assert.Error(t, h.Handle(context.Background(), []byte(`{`)))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"title":"  "}`)))
}

func TestNewsInboxHandlerDropsWhenFull(t *testing.T) {
	in := &sliceInbox{full: true}
	h := NewNewsInboxHandler("t", in, metrics.Nop{})
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"title":"Gold rallies"}`)))
	assert.Empty(t, in.items)
}

func TestHeadlineJobDefaultsSourceToRedis(t *testing.T) {
	in := &sliceInbox{}
	j := NewHeadlineJob(in, metrics.Nop{})
	assert.Equal(t, HeadlineJobType, j.Type())

	require.NoError(t, j.Handle(context.Background(), []byte(`{"title":"Nvidia beats estimates","link":"https://x/2","source":"Wire"}`)))
	require.Len(t, in.items, 1)
	assert.Equal(t, "Wire", in.items[0].Source)
	assert.Equal(t, "https://x/2", in.items[0].Link)

	require.NoError(t, j.Handle(context.Background(), []byte(`{"title":"Oil slumps"}`)))
	assert.Equal(t, "Redis", in.items[1].Source)
}
