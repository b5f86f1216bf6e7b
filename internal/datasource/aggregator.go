package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/pkg/models"
	"github.com/equityscope/equityscope/pkg/symbols"
)

// historyDays is how far back the momentum window reaches.
const historyDays = 200

// Aggregator fans a fetch out to every configured provider, merges the
// returned fragments field by field, and caches the result. Concurrent
// fetches for the same symbol are collapsed into one upstream request.
type Aggregator struct {
	cfg   config.AggregatorConfig
	quote QuoteProvider
	// fundamentals providers in priority order; earlier wins on conflict.
	fundamentals []FundamentalsProvider
	history      HistoryProvider
	news         NewsProvider

	cache *cache[*models.FundamentalsSnapshot]
	retry RetryPolicy
	group singleflight.Group
}

// NewAggregator wires an aggregator from a provider set. quote is
// required; history, news and the fundamentals list may be empty, in
// which case the corresponding snapshot parts stay absent with a warning.
func NewAggregator(cfg config.AggregatorConfig, quote QuoteProvider, history HistoryProvider, news NewsProvider, fundamentals ...FundamentalsProvider) *Aggregator {
	retry := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if d := cfg.RetryBase(); d > 0 {
		retry.BaseDelay = d
	}
	// Zero-valued configs fall back to the shipped defaults so that a
	// hand-constructed AggregatorConfig{} still behaves.
	if cfg.CacheTTLSec <= 0 {
		cfg.CacheTTLSec = 120
	}
	if cfg.ProviderTimeoutSec <= 0 {
		cfg.ProviderTimeoutSec = 10
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 25
	}
	retry.AttemptTimeout = cfg.ProviderTimeout()
	return &Aggregator{
		cfg:          cfg,
		quote:        quote,
		fundamentals: fundamentals,
		history:      history,
		news:         news,
		cache:        newCache[*models.FundamentalsSnapshot](cfg.CacheTTL()),
		retry:        retry,
	}
}

// Fetch returns the merged snapshot for a raw ticker string.
//
// The sequence is: validate the symbol grammar, consult the cache, then
// collapse concurrent misses into a single provider fan-out. A snapshot
// is only cached once it passed the minimum-fields check, so negative
// results are never served from cache.
func (a *Aggregator) Fetch(ctx context.Context, raw string) (*models.FundamentalsSnapshot, error) {
	symbol, market, err := symbols.Validate(raw)
	if err != nil {
		return nil, err
	}

	if snap, ok := a.cache.get(symbol); ok {
		return snap, nil
	}

	v, err, _ := a.group.Do(symbol, func() (any, error) {
		// Re-check under the flight: a previous flight may have
		// populated the cache while we queued.
		if snap, ok := a.cache.get(symbol); ok {
			return snap, nil
		}
		snap, err := a.fetch(ctx, symbol, market)
		if err != nil {
			return nil, err
		}
		a.cache.set(symbol, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FundamentalsSnapshot), nil
}

// Invalidate drops the cached snapshot for a symbol.
func (a *Aggregator) Invalidate(raw string) {
	a.cache.invalidate(symbols.Normalize(raw))
}

// News returns recent articles for a symbol, delegating to the news
// provider. The company name from a cached snapshot sharpens the query
// when available.
func (a *Aggregator) News(ctx context.Context, raw string, limit int) ([]models.NewsArticle, error) {
	symbol, _, err := symbols.Validate(raw)
	if err != nil {
		return nil, err
	}
	if a.news == nil {
		return nil, fmt.Errorf("%w: no news provider configured", ErrProviderUnavailable)
	}
	return a.news.GetArticles(ctx, symbol, limit)
}

// fetch performs one full provider fan-out and merge.
func (a *Aggregator) fetch(ctx context.Context, symbol, market string) (*models.FundamentalsSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout())
	defer cancel()

	var (
		mu        sync.Mutex
		quoteSnap *models.FundamentalsSnapshot
		fundSnaps = make([]*models.FundamentalsSnapshot, len(a.fundamentals))
		history   []models.PricePoint
		warnings  []string
	)
	warn := func(format string, args ...any) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap, err := a.callQuote(gctx, symbol)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) {
				// Fatal only if no other provider identifies the
				// symbol either; record and let the merge decide.
				warn("quote provider %s: symbol not recognized", a.quote.Name())
				return nil
			}
			warn("quote provider %s failed: %v", a.quote.Name(), err)
			return nil
		}
		mu.Lock()
		quoteSnap = snap
		mu.Unlock()
		return nil
	})

	for i, p := range a.fundamentals {
		i, p := i, p
		g.Go(func() error {
			snap, err := a.callFundamentals(gctx, p, symbol)
			if err != nil {
				warn("fundamentals provider %s failed: %v", p.Name(), err)
				return nil
			}
			mu.Lock()
			fundSnaps[i] = snap
			mu.Unlock()
			return nil
		})
	}

	if a.history != nil {
		g.Go(func() error {
			points, err := a.callHistory(gctx, symbol)
			if err != nil {
				warn("history provider %s failed: %v", a.history.Name(), err)
				return nil
			}
			mu.Lock()
			history = points
			mu.Unlock()
			return nil
		})
	}

	// Goroutines absorb their own errors; Wait only fails on context
	// cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := merge(symbol, market, quoteSnap, fundSnaps)
	snap.History = history
	snap.Warnings = append(snap.Warnings, warnings...)

	// Minimum viable snapshot: the symbol must have been identified and
	// priced by at least one provider.
	if !snap.Price.Valid {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if len(snap.Years) == 0 {
		snap.Warnings = append(snap.Warnings, "no fiscal year statement data available")
	}
	if len(snap.History) == 0 {
		snap.Warnings = append(snap.Warnings, "no price history available")
	}
	return snap, nil
}

func (a *Aggregator) callQuote(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error) {
	var snap *models.FundamentalsSnapshot
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		snap, err = a.quote.GetQuote(ctx, symbol)
		return err
	})
	return snap, err
}

func (a *Aggregator) callFundamentals(ctx context.Context, p FundamentalsProvider, symbol string) (*models.FundamentalsSnapshot, error) {
	var snap *models.FundamentalsSnapshot
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		snap, err = p.GetFundamentals(ctx, symbol)
		return err
	})
	return snap, err
}

func (a *Aggregator) callHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	err := a.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		points, err = a.history.GetHistory(ctx, symbol, historyDays)
		return err
	})
	return points, err
}

// merge folds provider fragments into one snapshot. The quote fragment
// has top priority, then the fundamentals fragments in registration
// order; each field independently falls through to the first provider
// that supplied it.
func merge(symbol, market string, quote *models.FundamentalsSnapshot, funds []*models.FundamentalsSnapshot) *models.FundamentalsSnapshot {
	out := &models.FundamentalsSnapshot{Symbol: symbol, Market: market}

	frags := make([]*models.FundamentalsSnapshot, 0, 1+len(funds))
	if quote != nil {
		frags = append(frags, quote)
	}
	for _, f := range funds {
		if f != nil {
			frags = append(frags, f)
		}
	}

	for _, f := range frags {
		if out.Currency == "" {
			out.Currency = f.Currency
		}
		if out.Exchange == "" {
			out.Exchange = f.Exchange
		}
		if out.AsOf.IsZero() || f.AsOf.After(out.AsOf) {
			out.AsOf = f.AsOf
		}

		out.CompanyName = out.CompanyName.Or(f.CompanyName)
		out.Sector = out.Sector.Or(f.Sector)
		out.Industry = out.Industry.Or(f.Industry)
		out.Description = out.Description.Or(f.Description)

		out.Price = out.Price.Or(f.Price)
		out.MarketCap = out.MarketCap.Or(f.MarketCap)
		out.TrailingEPS = out.TrailingEPS.Or(f.TrailingEPS)
		out.ForwardEPS = out.ForwardEPS.Or(f.ForwardEPS)
		out.PERatio = out.PERatio.Or(f.PERatio)
		out.PBRatio = out.PBRatio.Or(f.PBRatio)
		out.DividendPerShare = out.DividendPerShare.Or(f.DividendPerShare)
		out.DividendYield = out.DividendYield.Or(f.DividendYield)
		out.Week52High = out.Week52High.Or(f.Week52High)
		out.Week52Low = out.Week52Low.Or(f.Week52Low)
		out.Volume = out.Volume.Or(f.Volume)
		out.SharesOutstanding = out.SharesOutstanding.Or(f.SharesOutstanding)
		out.Beta = out.Beta.Or(f.Beta)

		// Statement years are merged wholesale, not per field: mixing
		// fiscal years from different providers would misalign periods.
		if len(out.Years) == 0 && len(f.Years) > 0 {
			out.Years = f.Years
		}

		out.Warnings = append(out.Warnings, f.Warnings...)
	}

	return out
}
