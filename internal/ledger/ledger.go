// Package ledger holds the settlement rules for trade requests: whether
// an account can afford a trade, and how a committed trade mutates the
// account's cash balance and share positions.
//
// All arithmetic is decimal (shopspring), so repeated weighted-average
// recomputation does not drift. Symbols are matched exact-string,
// case-sensitive, as stored.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/models"
)

// Total returns quantity x price.
func Total(quantity int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

func validate(side domain.Side, symbol string, quantity int64, price decimal.Decimal) error {
	if !side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, side)
	}
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidTrade)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidTrade)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidTrade)
	}
	return nil
}

// CanAfford reports whether the account covers the trade right now:
// a buy needs balance >= quantity x price, a sell needs an existing
// position for the symbol with at least the requested quantity.
// The error is nil, ErrInsufficientBalance, or ErrInsufficientHoldings.
func CanAfford(acct *models.Account, side domain.Side, symbol string, quantity int64, price decimal.Decimal) error {
	if err := validate(side, symbol, quantity, price); err != nil {
		return err
	}
	switch side {
	case domain.SideBuy:
		if acct.Balance.LessThan(Total(quantity, price)) {
			return ErrInsufficientBalance
		}
	case domain.SideSell:
		pos, ok := acct.Position(symbol)
		if !ok || pos.Quantity < quantity {
			return ErrInsufficientHoldings
		}
	}
	return nil
}

// Apply settles the trade against the account in place. It re-checks
// affordability and fails without mutating anything if the account no
// longer covers the trade.
//
// Buy: debit the total; merge into an existing position by recomputing
// the weighted average cost basis, or insert a new position at the
// trade price. Sell: credit the total and shrink the position; a
// position reduced to zero is removed outright.
func Apply(acct *models.Account, side domain.Side, symbol string, quantity int64, price decimal.Decimal) error {
	if err := CanAfford(acct, side, symbol, quantity, price); err != nil {
		return err
	}
	total := Total(quantity, price)

	switch side {
	case domain.SideBuy:
		acct.Balance = acct.Balance.Sub(total)
		for i, p := range acct.Holdings {
			if p.Symbol != symbol {
				continue
			}
			oldQty := decimal.NewFromInt(p.Quantity)
			newQty := decimal.NewFromInt(p.Quantity + quantity)
			cost := p.AvgPrice.Mul(oldQty).Add(total)
			acct.Holdings[i].Quantity = p.Quantity + quantity
			acct.Holdings[i].AvgPrice = cost.Div(newQty)
			return nil
		}
		acct.Holdings = append(acct.Holdings, models.Position{
			Symbol:   symbol,
			Quantity: quantity,
			AvgPrice: price,
		})

	case domain.SideSell:
		acct.Balance = acct.Balance.Add(total)
		for i, p := range acct.Holdings {
			if p.Symbol != symbol {
				continue
			}
			remaining := p.Quantity - quantity
			if remaining == 0 {
				acct.Holdings = append(acct.Holdings[:i], acct.Holdings[i+1:]...)
			} else {
				acct.Holdings[i].Quantity = remaining
			}
			return nil
		}
	}
	return nil
}
