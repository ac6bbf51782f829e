// Package store abstracts persistence for users, accounts, transactions,
// and watchlists. Two implementations exist: Postgres (pgx) and an
// in-memory store used for tests and for running without a database.
package store

import (
	"context"
	"errors"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrAlreadyWatched = errors.New("symbol already in watchlist")
)

// Store is the persistence contract. InTx runs fn against a view of the
// store where all reads and writes commit together or not at all, and
// where rows read are held against concurrent writers until the unit
// completes. Settlement relies on this: the approve path reads account
// state, decides, and writes account plus transaction inside one InTx.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, u models.User, acct models.Account) error
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context, role domain.Role) ([]models.User, error)

	Account(ctx context.Context, userID string) (models.Account, error)
	SaveAccount(ctx context.Context, acct models.Account) error

	CreateTransaction(ctx context.Context, txn models.Transaction) error
	TransactionByID(ctx context.Context, id string) (models.Transaction, error)
	SaveTransaction(ctx context.Context, txn models.Transaction) error
	TransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	Transactions(ctx context.Context) ([]models.Transaction, error)

	Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	AddWatchlistItem(ctx context.Context, userID string, item models.WatchlistItem) error
	RemoveWatchlistItem(ctx context.Context, userID, symbol string) error
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
