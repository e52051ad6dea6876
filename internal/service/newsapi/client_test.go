package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "NewsTrader/pkg/http"
)

func TestFetchMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "stock market", q.Get("q"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.Equal(t, "k", q.Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Apple beats estimates","url":"https://n/1","publishedAt":"2024-10-10T10:10:10Z","source":{"name":"Reuters"}},
			{"title":"[Removed]","url":"https://n/2"},
			{"title":"No link here","url":"","publishedAt":"garbage","source":{"name":"Blog"}}
		]}`))
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(xhttp.WithTimeout(time.Second)), srv.URL, "k", "stock market", 10)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	items, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://n/1", items[0].ID)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, 2024, items[0].PublishedAt.Year())
	assert.Equal(t, 10, items[0].PublishedAt.Day())

	assert.Equal(t, "No link here", items[1].ID)
	assert.True(t, items[1].PublishedAt.Equal(fixed))
}

func TestFetchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	}))
	defer srv.Close()

	_, err := New(xhttp.NewClient(), srv.URL, "k", "q", 10).Fetch(context.Background())
	assert.ErrorContains(t, err, "rateLimited")
}

func TestFetchSurfacesHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(xhttp.NewClient(), srv.URL, "bad", "q", 10).Fetch(context.Background())
	assert.ErrorContains(t, err, "401")
}
