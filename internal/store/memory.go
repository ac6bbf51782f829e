package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

// Memory is an in-memory Store guarded by a single mutex: every
// operation, and every InTx unit as a whole, is serialized. InTx works
// on a deep copy and swaps it in only on success, so a failed unit
// leaves nothing behind.
type Memory struct {
	mu sync.Mutex
	d  *memData
}

type memData struct {
	users    map[string]models.User
	accounts map[string]models.Account
	txns     map[string]models.Transaction
	txnSeq   map[string]int
	nextSeq  int
	watch    map[string][]models.WatchlistItem
}

func NewMemory() *Memory {
	return &Memory{d: &memData{
		users:    make(map[string]models.User),
		accounts: make(map[string]models.Account),
		txns:     make(map[string]models.Transaction),
		txnSeq:   make(map[string]int),
		watch:    make(map[string][]models.WatchlistItem),
	}}
}

func (d *memData) clone() *memData {
	cp := &memData{
		users:    make(map[string]models.User, len(d.users)),
		accounts: make(map[string]models.Account, len(d.accounts)),
		txns:     make(map[string]models.Transaction, len(d.txns)),
		txnSeq:   make(map[string]int, len(d.txnSeq)),
		nextSeq:  d.nextSeq,
		watch:    make(map[string][]models.WatchlistItem, len(d.watch)),
	}
	for k, v := range d.users {
		cp.users[k] = v
	}
	for k, v := range d.accounts {
		cp.accounts[k] = v.Clone()
	}
	for k, v := range d.txns {
		cp.txns[k] = v
	}
	for k, v := range d.txnSeq {
		cp.txnSeq[k] = v
	}
	for k, v := range d.watch {
		items := make([]models.WatchlistItem, len(v))
		copy(items, v)
		cp.watch[k] = items
	}
	return cp
}

func (m *Memory) InTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.d.clone()
	if err := fn(&memView{d: work}); err != nil {
		return err
	}
	m.d = work
	return nil
}

func (m *Memory) run(fn func(*memData) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.d)
}

func (m *Memory) CreateUser(ctx context.Context, u models.User, acct models.Account) error {
	return m.run(func(d *memData) error { return d.createUser(u, acct) })
}
func (m *Memory) UserByEmail(ctx context.Context, email string) (u models.User, err error) {
	err = m.run(func(d *memData) error { u, err = d.userByEmail(email); return err })
	return
}
func (m *Memory) UserByID(ctx context.Context, id string) (u models.User, err error) {
	err = m.run(func(d *memData) error { u, err = d.userByID(id); return err })
	return
}
func (m *Memory) ListUsers(ctx context.Context, role domain.Role) (us []models.User, err error) {
	err = m.run(func(d *memData) error { us = d.listUsers(role); return nil })
	return
}
func (m *Memory) Account(ctx context.Context, userID string) (a models.Account, err error) {
	err = m.run(func(d *memData) error { a, err = d.account(userID); return err })
	return
}
func (m *Memory) SaveAccount(ctx context.Context, acct models.Account) error {
	return m.run(func(d *memData) error { return d.saveAccount(acct) })
}
func (m *Memory) CreateTransaction(ctx context.Context, txn models.Transaction) error {
	return m.run(func(d *memData) error { d.createTxn(txn); return nil })
}
func (m *Memory) TransactionByID(ctx context.Context, id string) (t models.Transaction, err error) {
	err = m.run(func(d *memData) error { t, err = d.txnByID(id); return err })
	return
}
func (m *Memory) SaveTransaction(ctx context.Context, txn models.Transaction) error {
	return m.run(func(d *memData) error { return d.saveTxn(txn) })
}
func (m *Memory) TransactionsByUser(ctx context.Context, userID string) (ts []models.Transaction, err error) {
	err = m.run(func(d *memData) error { ts = d.txnsByUser(userID); return nil })
	return
}
func (m *Memory) Transactions(ctx context.Context) (ts []models.Transaction, err error) {
	err = m.run(func(d *memData) error { ts = d.txnsAll(); return nil })
	return
}
func (m *Memory) Watchlist(ctx context.Context, userID string) (ws []models.WatchlistItem, err error) {
	err = m.run(func(d *memData) error { ws = d.watchlist(userID); return nil })
	return
}
func (m *Memory) AddWatchlistItem(ctx context.Context, userID string, item models.WatchlistItem) error {
	return m.run(func(d *memData) error { return d.addWatch(userID, item) })
}
func (m *Memory) RemoveWatchlistItem(ctx context.Context, userID, symbol string) error {
	return m.run(func(d *memData) error { return d.removeWatch(userID, symbol) })
}

// memView exposes a memData already under the Memory mutex; used only
// inside InTx.
type memView struct{ d *memData }

func (v *memView) InTx(ctx context.Context, fn func(Store) error) error { return fn(v) }

func (v *memView) CreateUser(ctx context.Context, u models.User, acct models.Account) error {
	return v.d.createUser(u, acct)
}
func (v *memView) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return v.d.userByEmail(email)
}
func (v *memView) UserByID(ctx context.Context, id string) (models.User, error) {
	return v.d.userByID(id)
}
func (v *memView) ListUsers(ctx context.Context, role domain.Role) ([]models.User, error) {
	return v.d.listUsers(role), nil
}
func (v *memView) Account(ctx context.Context, userID string) (models.Account, error) {
	return v.d.account(userID)
}
func (v *memView) SaveAccount(ctx context.Context, acct models.Account) error {
	return v.d.saveAccount(acct)
}
func (v *memView) CreateTransaction(ctx context.Context, txn models.Transaction) error {
	v.d.createTxn(txn)
	return nil
}
func (v *memView) TransactionByID(ctx context.Context, id string) (models.Transaction, error) {
	return v.d.txnByID(id)
}
func (v *memView) SaveTransaction(ctx context.Context, txn models.Transaction) error {
	return v.d.saveTxn(txn)
}
func (v *memView) TransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return v.d.txnsByUser(userID), nil
}
func (v *memView) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return v.d.txnsAll(), nil
}
func (v *memView) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return v.d.watchlist(userID), nil
}
func (v *memView) AddWatchlistItem(ctx context.Context, userID string, item models.WatchlistItem) error {
	return v.d.addWatch(userID, item)
}
func (v *memView) RemoveWatchlistItem(ctx context.Context, userID, symbol string) error {
	return v.d.removeWatch(userID, symbol)
}

// --- unlocked primitives ---

func (d *memData) createUser(u models.User, acct models.Account) error {
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	d.users[u.ID] = u
	d.accounts[u.ID] = acct.Clone()
	return nil
}

func (d *memData) userByEmail(email string) (models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (d *memData) userByID(id string) (models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (d *memData) listUsers(role domain.Role) []models.User {
	out := make([]models.User, 0)
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (d *memData) account(userID string) (models.Account, error) {
	a, ok := d.accounts[userID]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (d *memData) saveAccount(acct models.Account) error {
	if _, ok := d.accounts[acct.UserID]; !ok {
		return ErrNotFound
	}
	d.accounts[acct.UserID] = acct.Clone()
	return nil
}

func (d *memData) createTxn(txn models.Transaction) {
	d.txns[txn.ID] = txn
	d.nextSeq++
	d.txnSeq[txn.ID] = d.nextSeq
}

func (d *memData) txnByID(id string) (models.Transaction, error) {
	t, ok := d.txns[id]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (d *memData) saveTxn(txn models.Transaction) error {
	if _, ok := d.txns[txn.ID]; !ok {
		return ErrNotFound
	}
	d.txns[txn.ID] = txn
	return nil
}

func (d *memData) sortedTxns(filter func(models.Transaction) bool) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range d.txns {
		if filter(t) {
			out = append(out, t)
		}
	}
	// newest first, insertion order as tiebreak
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return d.txnSeq[a.ID] > d.txnSeq[b.ID]
	})
	return out
}

func (d *memData) txnsByUser(userID string) []models.Transaction {
	return d.sortedTxns(func(t models.Transaction) bool { return t.UserID == userID })
}

func (d *memData) txnsAll() []models.Transaction {
	return d.sortedTxns(func(models.Transaction) bool { return true })
}

func (d *memData) watchlist(userID string) []models.WatchlistItem {
	items := d.watch[userID]
	out := make([]models.WatchlistItem, len(items))
	copy(out, items)
	return out
}

func (d *memData) addWatch(userID string, item models.WatchlistItem) error {
	for _, it := range d.watch[userID] {
		if it.Symbol == item.Symbol {
			return ErrAlreadyWatched
		}
	}
	d.watch[userID] = append(d.watch[userID], item)
	return nil
}

func (d *memData) removeWatch(userID, symbol string) error {
	items := d.watch[userID]
	for i, it := range items {
		if it.Symbol == symbol {
			d.watch[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}
