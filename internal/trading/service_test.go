package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/ledger"
	"github.com/cloudxplorer/StockDash/internal/models"
	"github.com/cloudxplorer/StockDash/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recordingPublisher captures settlement events for assertions.
type recordingPublisher struct {
	mu   sync.Mutex
	seen []models.Transaction
}

func (r *recordingPublisher) PublishSettlement(_ context.Context, txn models.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, txn)
}
func (r *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc    *Service
	store  *store.Memory
	events *recordingPublisher
	userID string
	admin  string
}

func newFixture(t *testing.T, balance string, holdings ...models.Position) *fixture {
	t.Helper()
	mem := store.NewMemory()
	pub := &recordingPublisher{}
	f := &fixture{
		svc:    New(mem, pub, zap.NewNop()),
		store:  mem,
		events: pub,
		userID: uuid.NewString(),
		admin:  uuid.NewString(),
	}
	err := mem.CreateUser(context.Background(),
		models.User{ID: f.userID, Name: "Trader", Email: "trader@example.com", Role: domain.RoleUser, CreatedAt: time.Now()},
		models.Account{UserID: f.userID, Balance: dec(balance), Holdings: holdings})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) account(t *testing.T) models.Account {
	t.Helper()
	a, err := f.store.Account(context.Background(), f.userID)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func buy(symbol string, qty int64, price string) SubmitRequest {
	return SubmitRequest{Symbol: symbol, Name: symbol + " Inc.", Side: domain.SideBuy, Quantity: qty, Price: dec(price)}
}

func sell(symbol string, qty int64, price string) SubmitRequest {
	return SubmitRequest{Symbol: symbol, Name: symbol + " Inc.", Side: domain.SideSell, Quantity: qty, Price: dec(price)}
}

func TestSubmitCreatesPending(t *testing.T) {
	f := newFixture(t, "10000")
	txn, err := f.svc.Submit(context.Background(), f.userID, buy("AAPL", 10, "100"))
	if err != nil {
		t.Fatal(err)
	}
	if txn.Status != domain.StatusPending {
		t.Fatalf("status=%s want pending", txn.Status)
	}
	if !txn.TotalAmount.Equal(dec("1000")) {
		t.Fatalf("totalAmount=%s want 1000", txn.TotalAmount)
	}
	// submission reserves nothing
	if got := f.account(t).Balance; !got.Equal(dec("10000")) {
		t.Fatalf("balance=%s want untouched 10000", got)
	}
}

func TestSubmitInsufficientBalance(t *testing.T) {
	f := newFixture(t, "500")
	_, err := f.svc.Submit(context.Background(), f.userID, buy("AAPL", 10, "100"))
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("err=%v want ErrInsufficientBalance", err)
	}
	all, _ := f.svc.ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("rejected submit persisted %d transactions", len(all))
	}
}

func TestSubmitInsufficientHoldings(t *testing.T) {
	f := newFixture(t, "0")
	_, err := f.svc.Submit(context.Background(), f.userID, sell("AAPL", 1, "100"))
	if !errors.Is(err, ledger.ErrInsufficientHoldings) {
		t.Fatalf("err=%v want ErrInsufficientHoldings", err)
	}
}

func TestApproveSettlesBuy(t *testing.T) {
	f := newFixture(t, "10000")
	ctx := context.Background()
	txn, err := f.svc.Submit(ctx, f.userID, buy("AAPL", 10, "100"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Approve(ctx, f.admin, txn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("status=%s want approved", got.Status)
	}
	if got.ProcessedBy != f.admin || got.ProcessedAt == nil {
		t.Fatalf("terminal fields not stamped: %+v", got)
	}

	a := f.account(t)
	if !a.Balance.Equal(dec("9000")) {
		t.Fatalf("balance=%s want 9000", a.Balance)
	}
	pos, ok := a.Position("AAPL")
	if !ok || pos.Quantity != 10 || !pos.AvgPrice.Equal(dec("100")) {
		t.Fatalf("position=%+v want 10@100", pos)
	}

	if len(f.events.seen) != 1 || f.events.seen[0].Status != domain.StatusApproved {
		t.Fatalf("events=%+v want one approved settlement", f.events.seen)
	}
}

func TestApproveSettlesSellAtSubmittedPrice(t *testing.T) {
	f := newFixture(t, "0", models.Position{Symbol: "AAPL", Quantity: 20, AvgPrice: dec("150")})
	ctx := context.Background()
	txn, err := f.svc.Submit(ctx, f.userID, sell("AAPL", 20, "160"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Approve(ctx, f.admin, txn.ID); err != nil {
		t.Fatal(err)
	}
	a := f.account(t)
	// settles at the recorded submission price, 20x160
	if !a.Balance.Equal(dec("3200")) {
		t.Fatalf("balance=%s want 3200", a.Balance)
	}
	if len(a.Holdings) != 0 {
		t.Fatalf("holdings=%+v want sold-out position removed", a.Holdings)
	}
}

func TestApproveUnknownTransaction(t *testing.T) {
	f := newFixture(t, "1000")
	_, err := f.svc.Approve(context.Background(), f.admin, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestApproveIdempotence(t *testing.T) {
	f := newFixture(t, "10000")
	ctx := context.Background()
	txn, _ := f.svc.Submit(ctx, f.userID, buy("AAPL", 10, "100"))
	if _, err := f.svc.Approve(ctx, f.admin, txn.ID); err != nil {
		t.Fatal(err)
	}
	balAfterFirst := f.account(t).Balance

	if _, err := f.svc.Approve(ctx, f.admin, txn.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second approve err=%v want ErrAlreadyProcessed", err)
	}
	if got := f.account(t).Balance; !got.Equal(balAfterFirst) {
		t.Fatalf("second approve changed balance: %s -> %s", balAfterFirst, got)
	}
}

func TestRejectIdempotence(t *testing.T) {
	f := newFixture(t, "10000")
	ctx := context.Background()
	txn, _ := f.svc.Submit(ctx, f.userID, buy("AAPL", 10, "100"))

	got, err := f.svc.Reject(ctx, f.admin, txn.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusRejected || got.Notes != "Rejected by admin" {
		t.Fatalf("got=%+v want rejected with default note", got)
	}
	if _, err := f.svc.Reject(ctx, f.admin, txn.ID, "again"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second reject err=%v want ErrAlreadyProcessed", err)
	}
	// approve after reject is also terminal
	if _, err := f.svc.Approve(ctx, f.admin, txn.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("approve after reject err=%v want ErrAlreadyProcessed", err)
	}
	if got := f.account(t).Balance; !got.Equal(dec("10000")) {
		t.Fatalf("reject touched the balance: %s", got)
	}
}

func TestRejectCustomNote(t *testing.T) {
	f := newFixture(t, "10000")
	ctx := context.Background()
	txn, _ := f.svc.Submit(ctx, f.userID, buy("AAPL", 1, "100"))
	got, err := f.svc.Reject(ctx, f.admin, txn.ID, "price looks stale")
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != "price looks stale" {
		t.Fatalf("notes=%q", got.Notes)
	}
}

// Two pending buys of 600 against a 1000 balance: the first approval
// settles, the second flips to rejected during the re-check and the
// balance stays where the first approval left it.
func TestApprovalRaceRejectsSecond(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.userID, buy("AAPL", 6, "100"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Submit(ctx, f.userID, buy("MSFT", 6, "100"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Approve(ctx, f.admin, first.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.account(t).Balance; !got.Equal(dec("400")) {
		t.Fatalf("balance=%s want 400 after first approval", got)
	}

	got, err := f.svc.Approve(ctx, f.admin, second.ID)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("second approve err=%v want ErrInsufficientBalance", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("status=%s want rejected, not left pending", got.Status)
	}
	if got.Notes != "Insufficient balance" {
		t.Fatalf("notes=%q want explanatory note", got.Notes)
	}
	if bal := f.account(t).Balance; !bal.Equal(dec("400")) {
		t.Fatalf("balance=%s want unchanged 400", bal)
	}

	// the rejected settlement is still published and re-processing is terminal
	if len(f.events.seen) != 2 {
		t.Fatalf("events=%d want 2", len(f.events.seen))
	}
	if _, err := f.svc.Approve(ctx, f.admin, second.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("re-approve err=%v want ErrAlreadyProcessed", err)
	}
}

// Sell re-check at approval: holdings drained by an earlier approval.
func TestApprovalRaceOnHoldings(t *testing.T) {
	f := newFixture(t, "0", models.Position{Symbol: "AAPL", Quantity: 10, AvgPrice: dec("100")})
	ctx := context.Background()

	first, _ := f.svc.Submit(ctx, f.userID, sell("AAPL", 10, "110"))
	second, _ := f.svc.Submit(ctx, f.userID, sell("AAPL", 5, "110"))

	if _, err := f.svc.Approve(ctx, f.admin, first.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.Approve(ctx, f.admin, second.ID)
	if !errors.Is(err, ledger.ErrInsufficientHoldings) {
		t.Fatalf("err=%v want ErrInsufficientHoldings", err)
	}
	if got.Status != domain.StatusRejected || got.Notes != "Insufficient holdings" {
		t.Fatalf("got=%+v want rejected with holdings note", got)
	}
}

func TestConcurrentApprovalsSerialize(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()

	ids := make([]string, 4)
	for i := range ids {
		txn, err := f.svc.Submit(ctx, f.userID, buy("AAPL", 6, "100"))
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = txn.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			f.svc.Approve(ctx, f.admin, id)
		}(id)
	}
	wg.Wait()

	// exactly one of the four 600-buys can land on a 1000 balance
	a := f.account(t)
	if !a.Balance.Equal(dec("400")) {
		t.Fatalf("balance=%s want 400", a.Balance)
	}
	all, _ := f.svc.ListAll(ctx)
	approved := 0
	for _, txn := range all {
		if txn.Status == domain.StatusApproved {
			approved++
		}
		if txn.Status == domain.StatusPending {
			t.Fatalf("transaction %s left pending", txn.ID)
		}
	}
	if approved != 1 {
		t.Fatalf("approved=%d want exactly 1", approved)
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	f := newFixture(t, "100000")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Submit(ctx, f.userID, buy("AAPL", 1, "100")); err != nil {
			t.Fatal(err)
		}
	}
	list, err := f.svc.ListByUser(ctx, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len=%d want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatalf("not newest-first at %d", i)
		}
	}
}
