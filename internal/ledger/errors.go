package ledger

import "errors"

var (
	// ErrInsufficientBalance: a buy's total exceeds the account's cash.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientHoldings: a sell with no position for the symbol,
	// or a position smaller than the requested quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInvalidTrade: non-positive quantity or price, empty symbol, or
	// an unknown side.
	ErrInvalidTrade = errors.New("invalid trade")
)
