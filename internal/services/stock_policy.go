package services

import (
	"errors"

	"github.com/mistermandob/mandob/internal/models"
)

var (
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInsufficientDamagedStock = errors.New("insufficient damaged stock")
)

// The mutation core applies deltas unconditionally; these pre-flight checks
// are the caller-side guard that keeps stock non-negative in practice.

// CheckTransactionStock verifies a stock-backed transaction can be covered.
// Non-stock kinds always pass.
func CheckTransactionStock(data models.UserData, kind models.TransactionKind, quantity int) error {
	if !kind.StockBacked() {
		return nil
	}
	if quantity < 1 {
		quantity = 1
	}
	if data.Stock[models.SimType(kind)] < quantity {
		return ErrInsufficientStock
	}
	return nil
}

// CheckStockAction verifies the source pool of a stock action holds at
// least quantity units. Additions always pass.
func CheckStockAction(data models.UserData, simType models.SimType, quantity int, action models.StockAction) error {
	switch action {
	case models.StockActionReturnCompany, models.StockActionToDamaged:
		if data.Stock[simType] < quantity {
			return ErrInsufficientStock
		}
	case models.StockActionRecover, models.StockActionFlush:
		if data.Damaged[simType] < quantity {
			return ErrInsufficientDamagedStock
		}
	}
	return nil
}
