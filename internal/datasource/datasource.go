// Package datasource provides data fetching from multiple financial data
// providers and merges their payloads into a single FundamentalsSnapshot.
// It defines small per-capability provider interfaces, a shared retry
// policy, a TTL cache with single-flight de-duplication, and the
// Aggregator that orchestrates one fetch per request.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

// QuoteProvider fetches quote/price fields for one symbol. The returned
// snapshot is a fragment: only the fields the provider supplies are Valid,
// each tagged with the provider's name.
type QuoteProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error)
}

// FundamentalsProvider fetches multi-year statement fields for one symbol,
// again as a tagged snapshot fragment.
type FundamentalsProvider interface {
	Name() string
	GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error)
}

// HistoryProvider fetches recent daily closes for momentum analysis.
type HistoryProvider interface {
	Name() string
	GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// NewsProvider fetches recent articles for one symbol.
type NewsProvider interface {
	Name() string
	GetArticles(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error)
}

// --- Sentinel errors (spec'd taxonomy) ---

// ErrSymbolNotFound is returned when no provider supplied the minimum
// required fields (symbol identity and current price). Fatal per request.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrRateLimited is returned when a provider rate-limits the request.
// It is never retried against the same provider; the aggregator cools the
// provider down for the remainder of the request and falls back.
var ErrRateLimited = errors.New("rate limited by provider")

// ErrProviderUnavailable marks a transient failure (timeout, 5xx). It is
// retried with backoff up to the configured bound, then triggers fallback.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Unwrap classifies the HTTP failure into the sentinel taxonomy so that
// errors.Is works across the retry policy and the aggregator.
func (e *ErrHTTP) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrProviderUnavailable
	case e.StatusCode == http.StatusNotFound:
		return ErrSymbolNotFound
	}
	return nil
}

// Transient reports whether err is worth retrying against the same provider.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSymbolNotFound) {
		return false
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return true
	}
	// Network-level errors (dial/timeout) come back as *url.Error without
	// an HTTP status; treat them as transient.
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return false // 4xx other than 429: not transient
	}
	return !errors.Is(err, context.Canceled)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with a conservative timeout.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w: %w", url, ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}
