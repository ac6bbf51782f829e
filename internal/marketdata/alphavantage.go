package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/models"
)

// popularStocks is the fixed board shown on the dashboard landing page.
var popularStocks = []struct{ Symbol, Name string }{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"GOOGL", "Alphabet Inc."},
	{"AMZN", "Amazon.com Inc."},
	{"TSLA", "Tesla Inc."},
	{"META", "Meta Platforms Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"NFLX", "Netflix Inc."},
	{"AMD", "Advanced Micro Devices"},
	{"INTC", "Intel Corporation"},
	{"IBM", "International Business Machines"},
	{"ORCL", "Oracle Corporation"},
}

// AlphaVantage calls the Alpha Vantage HTTP API.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewAlphaVantage(baseURL, apiKey string, logger *zap.Logger) *AlphaVantage {
	return &AlphaVantage{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (av *AlphaVantage) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", av.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, av.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := av.client.Do(req)
	if err != nil {
		return fmt.Errorf("alphavantage: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alphavantage: decode: %w", err)
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func (av *AlphaVantage) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	params := url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}
	if err := av.get(ctx, params, &payload); err != nil {
		return models.Quote{}, err
	}
	q := payload.GlobalQuote
	if len(q) == 0 {
		return models.Quote{}, ErrNoData
	}
	return models.Quote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat(q["02. open"]),
		High:             parseFloat(q["03. high"]),
		Low:              parseFloat(q["04. low"]),
		Price:            parseFloat(q["05. price"]),
		Volume:           parseInt(q["06. volume"]),
		LatestTradingDay: q["07. latest trading day"],
		PreviousClose:    parseFloat(q["08. previous close"]),
		Change:           parseFloat(q["09. change"]),
		ChangePercent:    strings.TrimSuffix(q["10. change percent"], "%"),
	}, nil
}

// History returns up to days of daily candles, oldest first.
func (av *AlphaVantage) History(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	var payload struct {
		TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	}
	params := url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}}
	if err := av.get(ctx, params, &payload); err != nil {
		return nil, err
	}
	if len(payload.TimeSeries) == 0 {
		return nil, ErrNoData
	}

	dates := make([]string, 0, len(payload.TimeSeries))
	for d := range payload.TimeSeries {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if days > 0 && len(dates) > days {
		dates = dates[:days]
	}
	// newest-first window, presented oldest-first
	out := make([]models.Candle, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		d := dates[i]
		bar := payload.TimeSeries[d]
		out = append(out, models.Candle{
			Date:   d,
			Open:   parseFloat(bar["1. open"]),
			High:   parseFloat(bar["2. high"]),
			Low:    parseFloat(bar["3. low"]),
			Close:  parseFloat(bar["4. close"]),
			Volume: parseInt(bar["5. volume"]),
		})
	}
	return out, nil
}

func (av *AlphaVantage) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	var payload struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	params := url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {query}}
	if err := av.get(ctx, params, &payload); err != nil {
		return nil, err
	}
	out := make([]models.SearchResult, 0, len(payload.BestMatches))
	for _, m := range payload.BestMatches {
		out = append(out, models.SearchResult{
			Symbol: m["1. symbol"],
			Name:   m["2. name"],
			Type:   m["3. type"],
			Region: m["4. region"],
		})
	}
	return out, nil
}

// Popular fetches a quote per board symbol. A failed or empty upstream
// response degrades that row to zeroes rather than failing the board.
func (av *AlphaVantage) Popular(ctx context.Context) ([]models.PopularStock, error) {
	out := make([]models.PopularStock, 0, len(popularStocks))
	for _, st := range popularStocks {
		row := models.PopularStock{Symbol: st.Symbol, Name: st.Name, ChangePercent: "0"}
		q, err := av.Quote(ctx, st.Symbol)
		if err != nil {
			av.logger.Warn("popular quote unavailable",
				zap.String("symbol", st.Symbol), zap.Error(err))
		} else {
			row.Price = q.Price
			row.Change = q.Change
			if q.ChangePercent != "" {
				row.ChangePercent = q.ChangePercent
			}
		}
		out = append(out, row)
	}
	return out, nil
}
