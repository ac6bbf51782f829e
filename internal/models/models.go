package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cloudxplorer/StockDash/internal/domain"
)

type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         domain.Role `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Position is one symbol held by an account. AvgPrice is the weighted
// average cost basis, not a market price. Quantity is always > 0; a
// position sold down to zero is removed, never stored.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avgPrice"`
}

// Account is a user's simulated cash balance plus share positions.
// It is mutated only through ledger operations.
type Account struct {
	UserID   string          `json:"userId"`
	Balance  decimal.Decimal `json:"balance"`
	Holdings []Position      `json:"holdings"`
}

// Position returns the holding for symbol, exact-string match.
func (a *Account) Position(symbol string) (Position, bool) {
	for _, p := range a.Holdings {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return Position{}, false
}

// Clone deep-copies the account so callers can mutate freely.
func (a *Account) Clone() Account {
	cp := Account{UserID: a.UserID, Balance: a.Balance}
	if a.Holdings != nil {
		cp.Holdings = make([]Position, len(a.Holdings))
		copy(cp.Holdings, a.Holdings)
	}
	return cp
}

// Transaction is a user-submitted buy or sell intent awaiting admin
// approval. Terminal fields (ProcessedBy, ProcessedAt, Notes) are set
// during the single pending -> approved|rejected transition.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Side        domain.Side     `json:"type"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      domain.Status   `json:"status"`
	ProcessedBy string          `json:"processedBy,omitempty"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type WatchlistItem struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"addedAt"`
}

// Quote is a point-in-time market snapshot for one symbol.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    string  `json:"changePercent"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Open             float64 `json:"open"`
	PreviousClose    float64 `json:"previousClose"`
	Volume           int64   `json:"volume"`
	LatestTradingDay string  `json:"latestTradingDay"`
}

// Candle is one day of OHLCV history.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Region string `json:"region"`
}

// PopularStock is one row of the popular-stocks board.
type PopularStock struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"changePercent"`
}
