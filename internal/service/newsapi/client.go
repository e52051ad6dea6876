package newsapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"NewsTrader/internal/domain/models"
	xhttp "NewsTrader/pkg/http"
	"NewsTrader/pkg/util"
)

// Client fetches recent headlines from the NewsAPI "everything" endpoint.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	query    string
	pageSize int
	now      func() time.Time
}

type article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

func New(httpClient *xhttp.Client, baseURL, apiKey, query string, pageSize int) *Client {
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		apiKey:   apiKey,
		query:    query,
		pageSize: pageSize,
		now:      time.Now,
	}
}

func (c *Client) Name() string { return "newsapi" }

// Fetch returns the newest articles, newest first.
func (c *Client) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	var resp response
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"q":        {c.query},
			"language": {"en"},
			"sortBy":   {"publishedAt"},
			"pageSize": {strconv.Itoa(c.pageSize)},
			"apiKey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s: %s", resp.Code, resp.Message)
	}

	items := make([]models.NewsItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || title == "[Removed]" {
			continue
		}
		id := a.URL
		if id == "" {
			id = title
		}
		items = append(items, models.NewsItem{
			ID:          id,
			Title:       title,
			Link:        a.URL,
			Source:      a.Source.Name,
			PublishedAt: util.ParseTimeDefault(a.PublishedAt, c.now()),
		})
	}
	return items, nil
}
