// Package trading implements the trade-request lifecycle: users submit
// buy/sell requests, admins approve or reject them, and approval settles
// the trade against the requester's account.
//
// Submission is advisory only: the affordability pre-check exists for
// early feedback and reserves nothing. Account state may drift between
// submission and approval, so approval re-validates against the current
// account and is the sole point where balance and holdings change.
package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/events"
	"github.com/cloudxplorer/StockDash/internal/ledger"
	"github.com/cloudxplorer/StockDash/internal/models"
	"github.com/cloudxplorer/StockDash/internal/store"
)

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrAlreadyProcessed = errors.New("transaction already processed")
)

const (
	noteInsufficientBalance  = "Insufficient balance"
	noteInsufficientHoldings = "Insufficient holdings"
	noteRejectedByAdmin      = "Rejected by admin"
)

type Service struct {
	store  store.Store
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

func New(st store.Store, pub events.Publisher, logger *zap.Logger) *Service {
	return &Service{store: st, events: pub, logger: logger, now: time.Now}
}

// SubmitRequest is a user's trade intent, priced at submission time.
type SubmitRequest struct {
	Symbol   string
	Name     string
	Side     domain.Side
	Quantity int64
	Price    decimal.Decimal
}

// Submit pre-checks affordability against the user's current account and
// records a pending transaction. Nothing is settled here.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (models.Transaction, error) {
	acct, err := s.store.Account(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return models.Transaction{}, fmt.Errorf("account %s: %w", userID, ErrNotFound)
		}
		return models.Transaction{}, err
	}
	if err := ledger.CanAfford(&acct, req.Side, req.Symbol, req.Quantity, req.Price); err != nil {
		return models.Transaction{}, err
	}

	txn := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symbol:      req.Symbol,
		Name:        req.Name,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       req.Price,
		TotalAmount: ledger.Total(req.Quantity, req.Price),
		Status:      domain.StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return models.Transaction{}, err
	}
	s.logger.Info("transaction submitted",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", userID),
		zap.String("side", txn.Side.String()),
		zap.String("symbol", txn.Symbol),
		zap.Int64("quantity", txn.Quantity),
		zap.String("total", txn.TotalAmount.String()),
	)
	return txn, nil
}

// Approve settles a pending transaction. The load, the affordability
// re-check, the account mutation, and the status flip run in a single
// store transaction: they commit together or not at all.
//
// If the re-check fails, the transaction is flipped to rejected with an
// explanatory note — that flip commits — and the affordability error is
// returned to the caller alongside the rejected record.
func (s *Service) Approve(ctx context.Context, adminID, txnID string) (models.Transaction, error) {
	var (
		result    models.Transaction
		affordErr error
	)
	err := s.store.InTx(ctx, func(tx store.Store) error {
		txn, err := tx.TransactionByID(ctx, txnID)
		if err != nil {
			if store.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if txn.Status.Terminal() {
			return ErrAlreadyProcessed
		}

		// Current account state, not a submission-time snapshot.
		acct, err := tx.Account(ctx, txn.UserID)
		if err != nil {
			return err
		}

		if err := ledger.CanAfford(&acct, txn.Side, txn.Symbol, txn.Quantity, txn.Price); err != nil {
			// No longer affordable: the approval lands as a rejection.
			affordErr = err
			result = s.finalize(txn, domain.StatusRejected, adminID, affordNote(err))
			return tx.SaveTransaction(ctx, result)
		}

		if err := ledger.Apply(&acct, txn.Side, txn.Symbol, txn.Quantity, txn.Price); err != nil {
			return err
		}
		if err := tx.SaveAccount(ctx, acct); err != nil {
			return err
		}
		result = s.finalize(txn, domain.StatusApproved, adminID, "")
		return tx.SaveTransaction(ctx, result)
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.events.PublishSettlement(ctx, result)
	if affordErr != nil {
		s.logger.Info("transaction rejected at approval",
			zap.String("transaction_id", result.ID),
			zap.String("reason", result.Notes),
		)
		return result, affordErr
	}
	s.logger.Info("transaction approved",
		zap.String("transaction_id", result.ID),
		zap.String("processed_by", adminID),
	)
	return result, nil
}

// Reject marks a pending transaction rejected. No ledger mutation.
func (s *Service) Reject(ctx context.Context, adminID, txnID, notes string) (models.Transaction, error) {
	if notes == "" {
		notes = noteRejectedByAdmin
	}
	var result models.Transaction
	err := s.store.InTx(ctx, func(tx store.Store) error {
		txn, err := tx.TransactionByID(ctx, txnID)
		if err != nil {
			if store.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		if txn.Status.Terminal() {
			return ErrAlreadyProcessed
		}
		result = s.finalize(txn, domain.StatusRejected, adminID, notes)
		return tx.SaveTransaction(ctx, result)
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.events.PublishSettlement(ctx, result)
	s.logger.Info("transaction rejected",
		zap.String("transaction_id", result.ID),
		zap.String("processed_by", adminID),
	)
	return result, nil
}

func (s *Service) finalize(txn models.Transaction, status domain.Status, adminID, notes string) models.Transaction {
	now := s.now().UTC()
	txn.Status = status
	txn.ProcessedBy = adminID
	txn.ProcessedAt = &now
	if notes != "" {
		txn.Notes = notes
	}
	return txn
}

func affordNote(err error) string {
	if errors.Is(err, ledger.ErrInsufficientHoldings) {
		return noteInsufficientHoldings
	}
	return noteInsufficientBalance
}

// ListByUser returns the user's transactions, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.store.TransactionsByUser(ctx, userID)
}

// ListAll returns every transaction, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return s.store.Transactions(ctx)
}
