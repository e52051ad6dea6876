package rssfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Wire</title>
<item><title>Nvidia &lt;b&gt;soars&lt;/b&gt; on guidance</title><link>https://w/1</link><guid>g-1</guid>
<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate><source url="https://r">Reuters</source></item>
<item><title>Oil slips</title><link>https://w/2</link></item>
<item><title>   </title><link>https://w/3</link></item>
<item><title>Third</title><link>https://w/4</link></item>
</channel></rss>`

func TestFetchParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := New([]string{srv.URL}, 2, time.Second)
	items, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "g-1", items[0].ID)
	assert.Equal(t, "Nvidia soars on guidance", items[0].Title)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, 2006, items[0].PublishedAt.Year())

	assert.Equal(t, "https://w/2", items[1].ID)
	assert.Equal(t, "Wire", items[1].Source)
}

func TestFetchSkipsFailingFeed(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	items, err := New([]string{bad.URL, ok.URL}, 10, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = New([]string{bad.URL}, 10, time.Second).Fetch(context.Background())
	assert.ErrorContains(t, err, "502")
}
