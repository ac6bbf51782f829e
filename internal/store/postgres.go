package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres backs the Store with pgx. Inside InTx all statements run on
// one database transaction and row reads take FOR UPDATE locks, which
// serializes concurrent settlement of the same account.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

func (p *Postgres) InTx(ctx context.Context, fn func(Store) error) error {
	if p.inTx {
		return fn(p)
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Postgres{pool: p.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lock appends a row lock when running inside a transaction.
func (p *Postgres) lock() string {
	if p.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (p *Postgres) CreateUser(ctx context.Context, u models.User, acct models.Account) error {
	err := p.InTx(ctx, func(s Store) error {
		tx := s.(*Postgres)
		_, err := tx.q.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, balance, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role.String(), acct.Balance.String(), u.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return tx.insertPositions(ctx, u.ID, acct.Holdings)
	})
	return err
}

func (p *Postgres) scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return p.scanUser(p.q.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at FROM users WHERE email=$1`, email))
}

func (p *Postgres) UserByID(ctx context.Context, id string) (models.User, error) {
	return p.scanUser(p.q.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at FROM users WHERE id=$1`, id))
}

func (p *Postgres) ListUsers(ctx context.Context, role domain.Role) ([]models.User, error) {
	rows, err := p.q.Query(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE role=$1 ORDER BY created_at`, role.String())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]models.User, 0)
	for rows.Next() {
		u, err := p.scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (p *Postgres) Account(ctx context.Context, userID string) (models.Account, error) {
	var balText string
	err := p.q.QueryRow(ctx, `SELECT balance::text FROM users WHERE id=$1`+p.lock(), userID).Scan(&balText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("load balance: %w", err)
	}
	balance, err := decimal.NewFromString(balText)
	if err != nil {
		return models.Account{}, fmt.Errorf("parse balance %q: %w", balText, err)
	}

	rows, err := p.q.Query(ctx, `
		SELECT symbol, quantity, avg_price::text FROM positions WHERE user_id=$1 ORDER BY symbol`+p.lock(), userID)
	if err != nil {
		return models.Account{}, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	acct := models.Account{UserID: userID, Balance: balance, Holdings: make([]models.Position, 0)}
	for rows.Next() {
		var pos models.Position
		var avgText string
		if err := rows.Scan(&pos.Symbol, &pos.Quantity, &avgText); err != nil {
			return models.Account{}, fmt.Errorf("scan position: %w", err)
		}
		if pos.AvgPrice, err = decimal.NewFromString(avgText); err != nil {
			return models.Account{}, fmt.Errorf("parse avg_price %q: %w", avgText, err)
		}
		acct.Holdings = append(acct.Holdings, pos)
	}
	return acct, rows.Err()
}

func (p *Postgres) SaveAccount(ctx context.Context, acct models.Account) error {
	tag, err := p.q.Exec(ctx, `UPDATE users SET balance=$2::numeric WHERE id=$1`,
		acct.UserID, acct.Balance.String())
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := p.q.Exec(ctx, `DELETE FROM positions WHERE user_id=$1`, acct.UserID); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	return p.insertPositions(ctx, acct.UserID, acct.Holdings)
}

func (p *Postgres) insertPositions(ctx context.Context, userID string, holdings []models.Position) error {
	for _, pos := range holdings {
		_, err := p.q.Exec(ctx, `
			INSERT INTO positions (user_id, symbol, quantity, avg_price)
			VALUES ($1, $2, $3, $4::numeric)`,
			userID, pos.Symbol, pos.Quantity, pos.AvgPrice.String())
		if err != nil {
			return fmt.Errorf("insert position %s: %w", pos.Symbol, err)
		}
	}
	return nil
}

func (p *Postgres) CreateTransaction(ctx context.Context, txn models.Transaction) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO transactions
			(id, user_id, symbol, name, side, quantity, price, total_amount, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11)`,
		txn.ID, txn.UserID, txn.Symbol, txn.Name, txn.Side.String(), txn.Quantity,
		txn.Price.String(), txn.TotalAmount.String(), txn.Status.String(), txn.Notes, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const txnColumns = `id, user_id, symbol, name, side, quantity, price::text, total_amount::text,
	status, processed_by, processed_at, notes, created_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	var side, status, priceText, totalText string
	var processedBy *string
	var processedAt *time.Time
	err := row.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Name, &side, &t.Quantity,
		&priceText, &totalText, &status, &processedBy, &processedAt, &t.Notes, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, ErrNotFound
		}
		return models.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Side = domain.Side(side)
	t.Status = domain.Status(status)
	if t.Price, err = decimal.NewFromString(priceText); err != nil {
		return models.Transaction{}, fmt.Errorf("parse price %q: %w", priceText, err)
	}
	if t.TotalAmount, err = decimal.NewFromString(totalText); err != nil {
		return models.Transaction{}, fmt.Errorf("parse total %q: %w", totalText, err)
	}
	if processedBy != nil {
		t.ProcessedBy = *processedBy
	}
	t.ProcessedAt = processedAt
	return t, nil
}

func (p *Postgres) TransactionByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(p.q.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id=$1`+p.lock(), id))
}

func (p *Postgres) SaveTransaction(ctx context.Context, txn models.Transaction) error {
	var processedBy *string
	if txn.ProcessedBy != "" {
		processedBy = &txn.ProcessedBy
	}
	tag, err := p.q.Exec(ctx, `
		UPDATE transactions
		SET status=$2, processed_by=$3, processed_at=$4, notes=$5
		WHERE id=$1`,
		txn.ID, txn.Status.String(), processedBy, txn.ProcessedAt, txn.Notes)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) listTxns(ctx context.Context, where string, args ...any) ([]models.Transaction, error) {
	rows, err := p.q.Query(ctx,
		`SELECT `+txnColumns+` FROM transactions`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) TransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return p.listTxns(ctx, ` WHERE user_id=$1`, userID)
}

func (p *Postgres) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return p.listTxns(ctx, ``)
}

func (p *Postgres) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := p.q.Query(ctx, `
		SELECT symbol, name, added_at FROM watchlist WHERE user_id=$1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	defer rows.Close()
	out := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var it models.WatchlistItem
		if err := rows.Scan(&it.Symbol, &it.Name, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *Postgres) AddWatchlistItem(ctx context.Context, userID string, item models.WatchlistItem) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO watchlist (user_id, symbol, name, added_at) VALUES ($1, $2, $3, $4)`,
		userID, item.Symbol, item.Name, item.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyWatched
		}
		return fmt.Errorf("add watchlist item: %w", err)
	}
	return nil
}

func (p *Postgres) RemoveWatchlistItem(ctx context.Context, userID, symbol string) error {
	if _, err := p.q.Exec(ctx, `
		DELETE FROM watchlist WHERE user_id=$1 AND symbol=$2`, userID, symbol); err != nil {
		return fmt.Errorf("remove watchlist item: %w", err)
	}
	return nil
}
