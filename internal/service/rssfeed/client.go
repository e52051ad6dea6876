package rssfeed

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"NewsTrader/internal/domain/models"
	"NewsTrader/pkg/util"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title string `xml:"title"`
	Items []item `xml:"item"`
}

type item struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Source  source `xml:"source"`
}

type source struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// Client reads headlines from a list of RSS 2.0 feeds.
type Client struct {
	client *resty.Client
	urls   []string
	limit  int
	now    func() time.Time
}

func New(urls []string, limit int, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; NewsTrader/1.0)")
	client.SetHeader("Accept", "application/rss+xml, application/xml, text/xml")

	return &Client{client: client, urls: urls, limit: limit, now: time.Now}
}

func (c *Client) Name() string { return "rss" }

// Fetch reads every feed and returns up to limit items per feed. A feed that
// fails is skipped; the call errors only when every feed failed.
func (c *Client) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	var (
		out     []models.NewsItem
		lastErr error
		failed  int
	)
	for _, u := range c.urls {
		items, err := c.fetchOne(ctx, u)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		out = append(out, items...)
	}
	if failed > 0 && failed == len(c.urls) {
		return nil, lastErr
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, url string) ([]models.NewsItem, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("rss fetch %s: HTTP error %d", url, resp.StatusCode())
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("rss parse %s: %w", url, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		if c.limit > 0 && len(items) >= c.limit {
			break
		}
		title := plainText(it.Title)
		if title == "" {
			continue
		}
		src := strings.TrimSpace(it.Source.Text)
		if src == "" {
			src = strings.TrimSpace(feed.Channel.Title)
		}
		id := strings.TrimSpace(it.GUID)
		if id == "" {
			id = strings.TrimSpace(it.Link)
		}
		items = append(items, models.NewsItem{
			ID:          id,
			Title:       title,
			Link:        strings.TrimSpace(it.Link),
			Source:      src,
			PublishedAt: util.ParseTimeDefault(strings.TrimSpace(it.PubDate), c.now()),
		})
	}
	return items, nil
}

// plainText strips markup some feeds embed in titles.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
