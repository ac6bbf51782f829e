// Package marketdata proxies quotes, daily history, and symbol search
// from Alpha Vantage.
package marketdata

import (
	"context"
	"errors"

	"github.com/cloudxplorer/StockDash/internal/models"
)

// ErrNoData: the upstream returned an empty payload for the symbol.
var ErrNoData = errors.New("no market data for symbol")

type Provider interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	History(ctx context.Context, symbol string, days int) ([]models.Candle, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Popular(ctx context.Context) ([]models.PopularStock, error)
}
