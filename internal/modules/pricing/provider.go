// Package pricing supplies historical price tables and current price
// snapshots to the evaluator, backed by Yahoo Finance and a SQLite cache.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/clients/yahoo"
	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds parallel requests per submission. The client
// rate limiter still applies on top.
const maxConcurrentFetches = 4

// Provider returns the price data an evaluation needs. Empty results are
// valid values: tickers without data are simply absent.
type Provider interface {
	History(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error)
	Snapshot(ctx context.Context, tickers []string) (domain.Quotes, error)
}

// MarketDataClient is the subset of the Yahoo client the provider uses.
type MarketDataClient interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// Cache is the subset of the client data repository the provider uses.
type Cache interface {
	Store(table, key string, data interface{}, ttl time.Duration) error
	GetIfFresh(table, key string, out interface{}) (bool, error)
	Get(table, key string, out interface{}) (bool, error)
	Delete(table, key string) error
}

// CachedProvider serves prices cache-first and falls back to stale cache
// entries when the upstream request fails.
type CachedProvider struct {
	client     MarketDataClient
	cache      Cache
	historyTTL time.Duration
	quoteTTL   time.Duration
	log        zerolog.Logger
}

// NewCachedProvider creates a provider. cache may be nil to disable caching.
func NewCachedProvider(client MarketDataClient, cache Cache, historyTTL, quoteTTL time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		client:     client,
		cache:      cache,
		historyTTL: historyTTL,
		quoteTTL:   quoteTTL,
		log:        log.With().Str("service", "pricing").Logger(),
	}
}

// History returns adjusted closes for every ticker between start and end.
func (p *CachedProvider) History(ctx context.Context, tickers []string, start, end time.Time) (domain.PriceTable, error) {
	defer utils.OperationTimer("price_history", p.log)()

	series := make([][]domain.PricePoint, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			points, err := p.history(gctx, ticker, start, end)
			if err != nil {
				return err
			}
			series[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PriceTable{}, err
	}

	builder := domain.NewPriceTableBuilder()
	for i, ticker := range tickers {
		builder.Add(ticker, series[i])
	}
	return builder.Build(), nil
}

// Snapshot returns the latest price of every ticker Yahoo knows. Tickers
// priced from an expired cache entry are listed in Quotes.Stale.
func (p *CachedProvider) Snapshot(ctx context.Context, tickers []string) (domain.Quotes, error) {
	defer utils.OperationTimer("price_snapshot", p.log)()

	prices := make([]*float64, len(tickers))
	stale := make([]bool, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			price, fromStale, err := p.quote(gctx, ticker)
			if err != nil {
				return err
			}
			prices[i] = price
			stale[i] = fromStale
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Quotes{}, err
	}

	quotes := domain.Quotes{Prices: make(domain.PriceSnapshot, len(tickers))}
	for i, ticker := range tickers {
		if prices[i] == nil {
			continue
		}
		quotes.Prices[ticker] = *prices[i]
		if stale[i] {
			quotes.Stale = append(quotes.Stale, ticker)
		}
	}
	return quotes, nil
}

func historyKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (p *CachedProvider) history(ctx context.Context, ticker string, start, end time.Time) ([]domain.PricePoint, error) {
	key := historyKey(ticker, start, end)

	var cached []domain.PricePoint
	if p.lookup(clientdata.TablePriceHistory, key, &cached, true) {
		return cached, nil
	}

	bars, err := p.client.GetHistoricalPrices(ctx, ticker, start, end)
	if err != nil {
		if ctx.Err() == nil && p.lookup(clientdata.TablePriceHistory, key, &cached, false) {
			p.log.Warn().Err(err).Str("ticker", ticker).Msg("Using stale price history")
			return cached, nil
		}
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", ticker, err)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, domain.PricePoint{Date: b.Date, Close: b.AdjClose})
	}

	if len(points) > 0 {
		p.store(clientdata.TablePriceHistory, key, points, p.historyTTL)
	}
	return points, nil
}

func (p *CachedProvider) quote(ctx context.Context, ticker string) (*float64, bool, error) {
	var cached float64
	if p.lookup(clientdata.TableCurrentPrices, ticker, &cached, true) {
		return &cached, false, nil
	}

	q, err := p.client.GetQuote(ctx, ticker)
	if err != nil {
		if ctx.Err() == nil && p.lookup(clientdata.TableCurrentPrices, ticker, &cached, false) {
			p.log.Warn().Err(err).Str("ticker", ticker).Msg("Using stale current price")
			return &cached, true, nil
		}
		return nil, false, fmt.Errorf("failed to fetch current price for %s: %w", ticker, err)
	}
	if q == nil {
		return nil, false, nil
	}

	p.store(clientdata.TableCurrentPrices, ticker, q.Price, p.quoteTTL)
	return &q.Price, false, nil
}

// lookup reads a cache entry. Cache failures are logged and treated as
// misses; entries that no longer decode are evicted.
func (p *CachedProvider) lookup(table, key string, out interface{}, fresh bool) bool {
	if p.cache == nil {
		return false
	}

	var found bool
	var err error
	if fresh {
		found, err = p.cache.GetIfFresh(table, key, out)
	} else {
		found, err = p.cache.Get(table, key, out)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Cache read failed")
		if errors.Is(err, clientdata.ErrCorruptEntry) {
			if err := p.cache.Delete(table, key); err != nil {
				p.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Cache eviction failed")
			}
		}
		return false
	}
	return found
}

func (p *CachedProvider) store(table, key string, data interface{}, ttl time.Duration) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Store(table, key, data, ttl); err != nil {
		p.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Cache write failed")
	}
}
