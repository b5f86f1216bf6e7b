package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/equityscope/equityscope/pkg/models"
)

const newsAPIName = "newsapi"

// RSSSource is a financial news RSS feed used when NewsAPI is not
// configured or fails.
type RSSSource struct {
	Name   string
	RSSURL string
}

// DefaultRSSSources lists the fallback financial news feeds.
var DefaultRSSSources = []RSSSource{
	{Name: "Moneycontrol", RSSURL: "https://www.moneycontrol.com/rss/marketreports.xml"},
	{Name: "Economic Times Markets", RSSURL: "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms"},
	{Name: "LiveMint Markets", RSSURL: "https://www.livemint.com/rss/markets"},
	{Name: "Business Standard Markets", RSSURL: "https://www.business-standard.com/rss/markets-106.rss"},
}

// News fetches articles about a symbol, preferring the NewsAPI
// "everything" endpoint and falling back to RSS feeds.
type News struct {
	baseURL string
	apiKey  string
	sources []RSSSource
	cache   *cache[[]models.NewsArticle]
	limiter *RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a news provider. An empty apiKey skips NewsAPI and
// goes straight to the RSS fallback.
func NewNews(baseURL, apiKey string) *News {
	return &News{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		sources: DefaultRSSSources,
		cache:   newCache[[]models.NewsArticle](10 * time.Minute),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
	}
}

// Name returns the provider name.
func (n *News) Name() string { return "news" }

// GetArticles implements NewsProvider using the symbol itself as the
// search query.
func (n *News) GetArticles(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	return n.GetNews(ctx, symbol, "", limit)
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// GetNews returns recent articles mentioning the company, newest first.
// query should be the company name when known, otherwise the symbol.
func (n *News) GetNews(ctx context.Context, symbol, query string, limit int) ([]models.NewsArticle, error) {
	if query == "" {
		query = symbol
	}

	cacheKey := fmt.Sprintf("news:%s:%d", symbol, limit)
	if cached, ok := n.cache.get(cacheKey); ok {
		return cloneArticles(cached), nil
	}

	var articles []models.NewsArticle
	var err error
	if n.apiKey != "" {
		articles, err = n.fetchNewsAPI(ctx, query)
	}
	if n.apiKey == "" || err != nil {
		articles, err = n.fetchFeeds(ctx, symbol, query)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	n.cache.set(cacheKey, articles)
	return cloneArticles(articles), nil
}

// cloneArticles returns a fresh slice so callers that annotate articles
// in place never write into the cached copy.
func cloneArticles(in []models.NewsArticle) []models.NewsArticle {
	out := make([]models.NewsArticle, len(in))
	copy(out, in)
	return out
}

// --- NewsAPI ---

func (n *News) fetchNewsAPI(ctx context.Context, query string) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	q.Set("pageSize", "20")
	endpoint := fmt.Sprintf("%s/v2/everything?%s", n.baseURL, q.Encode())

	body, _, err := doGet(ctx, endpoint, map[string]string{"X-Api-Key": n.apiKey})
	if err != nil {
		return nil, fmt.Errorf("newsapi query %q: %w", query, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse newsapi response: %w", err)
	}
	if resp.Status != "ok" {
		if resp.Code == "rateLimited" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Message)
		}
		return nil, fmt.Errorf("newsapi error %s: %s", resp.Code, resp.Message)
	}

	articles := make([]models.NewsArticle, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		a := models.NewsArticle{
			Title:       item.Title,
			Description: cleanHTML(item.Description),
			URL:         item.URL,
			Source:      item.Source.Name,
		}
		if t, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
			a.PublishedAt = t
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// --- RSS fallback ---

// fetchFeeds pulls all configured feeds and keeps items mentioning the
// company. Failed feeds are skipped; only a total miss is an error.
func (n *News) fetchFeeds(ctx context.Context, symbol, query string) ([]models.NewsArticle, error) {
	keywords := []string{strings.ToLower(symbol)}
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" && q != keywords[0] {
		keywords = append(keywords, q)
	}

	var matched []models.NewsArticle
	var fetched bool
	for _, src := range n.sources {
		items, err := n.fetchRSS(ctx, src)
		if err != nil {
			// Non-critical: skip failed sources.
			continue
		}
		fetched = true
		for _, a := range items {
			if matchesAny(a.Title+" "+a.Description, keywords) {
				matched = append(matched, a)
			}
		}
	}
	if !fetched {
		return nil, fmt.Errorf("%w: all news feeds failed", ErrProviderUnavailable)
	}
	return matched, nil
}

func (n *News) fetchRSS(ctx context.Context, src RSSSource) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:       item.Title,
			URL:         item.Link,
			Source:      src.Name,
			Description: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
