// Package watchlist manages a user's saved symbols. Pure CRUD, no
// settlement semantics.
package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudxplorer/StockDash/internal/models"
	"github.com/cloudxplorer/StockDash/internal/store"
)

type Service struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return s.store.Watchlist(ctx, userID)
}

// Add appends a symbol and returns the updated list. Duplicate adds
// fail with store.ErrAlreadyWatched.
func (s *Service) Add(ctx context.Context, userID, symbol, name string) ([]models.WatchlistItem, error) {
	symbol = strings.TrimSpace(symbol)
	name = strings.TrimSpace(name)
	if symbol == "" || name == "" {
		return nil, fmt.Errorf("symbol and name are required")
	}
	item := models.WatchlistItem{Symbol: symbol, Name: name, AddedAt: s.now().UTC()}
	if err := s.store.AddWatchlistItem(ctx, userID, item); err != nil {
		return nil, err
	}
	return s.store.Watchlist(ctx, userID)
}

// Remove drops a symbol and returns the updated list. Removing an
// absent symbol is a no-op.
func (s *Service) Remove(ctx context.Context, userID, symbol string) ([]models.WatchlistItem, error) {
	if err := s.store.RemoveWatchlistItem(ctx, userID, symbol); err != nil {
		return nil, err
	}
	return s.store.Watchlist(ctx, userID)
}
