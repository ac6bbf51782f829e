package marketdata

import (
	"context"
	"time"

	"github.com/cloudxplorer/StockDash/internal/cache"
	"github.com/cloudxplorer/StockDash/internal/models"
)

// Cached wraps a Provider with per-response-type TTL caches.
type Cached struct {
	next    Provider
	quotes  *cache.Cache[models.Quote]
	history *cache.Cache[[]models.Candle]
	search  *cache.Cache[[]models.SearchResult]
	popular *cache.Cache[[]models.PopularStock]
}

func NewCached(next Provider, ttl time.Duration) (*Cached, error) {
	quotes, err := cache.New[models.Quote](1<<24, ttl)
	if err != nil {
		return nil, err
	}
	history, err := cache.New[[]models.Candle](1<<24, ttl)
	if err != nil {
		return nil, err
	}
	search, err := cache.New[[]models.SearchResult](1<<24, ttl)
	if err != nil {
		return nil, err
	}
	popular, err := cache.New[[]models.PopularStock](1<<24, ttl)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, quotes: quotes, history: history, search: search, popular: popular}, nil
}

func (c *Cached) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	key := cache.QuoteKey(symbol)
	if q, ok := c.quotes.Get(key); ok {
		return q, nil
	}
	q, err := c.next.Quote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	c.quotes.Set(key, q)
	return q, nil
}

func (c *Cached) History(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	key := cache.HistoryKey(symbol, days)
	if h, ok := c.history.Get(key); ok {
		return h, nil
	}
	h, err := c.next.History(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	c.history.Set(key, h)
	return h, nil
}

func (c *Cached) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	key := cache.SearchKey(query)
	if r, ok := c.search.Get(key); ok {
		return r, nil
	}
	r, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.search.Set(key, r)
	return r, nil
}

func (c *Cached) Popular(ctx context.Context) ([]models.PopularStock, error) {
	if p, ok := c.popular.Get(cache.PopularKey); ok {
		return p, nil
	}
	p, err := c.next.Popular(ctx)
	if err != nil {
		return nil, err
	}
	c.popular.Set(cache.PopularKey, p)
	return p, nil
}
