package services

import (
	"testing"

	"github.com/mistermandob/mandob/internal/models"
)

func TestCheckTransactionStock(t *testing.T) {
	data := models.DefaultUserData()
	data.Stock[models.SimJawwy] = 2

	if err := CheckTransactionStock(data, models.TransactionKind(models.SimJawwy), 2); err != nil {
		t.Fatalf("expected covered sale to pass, got %v", err)
	}
	if err := CheckTransactionStock(data, models.TransactionKind(models.SimJawwy), 3); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := CheckTransactionStock(data, models.KindDevice, 100); err != nil {
		t.Fatalf("expected non-stock kind to pass, got %v", err)
	}
	// Quantity below one counts as one.
	if err := CheckTransactionStock(data, models.TransactionKind(models.SimSawa), 0); err != ErrInsufficientStock {
		t.Fatalf("expected empty sawa pool to fail even at quantity zero, got %v", err)
	}
}

func TestCheckStockAction(t *testing.T) {
	data := models.DefaultUserData()
	data.Stock[models.SimSawa] = 5
	data.Damaged[models.SimSawa] = 1

	cases := []struct {
		action   models.StockAction
		quantity int
		want     error
	}{
		{models.StockActionAdd, 100, nil},
		{models.StockActionReturnCompany, 5, nil},
		{models.StockActionReturnCompany, 6, ErrInsufficientStock},
		{models.StockActionToDamaged, 6, ErrInsufficientStock},
		{models.StockActionRecover, 1, nil},
		{models.StockActionRecover, 2, ErrInsufficientDamagedStock},
		{models.StockActionFlush, 2, ErrInsufficientDamagedStock},
	}
	for _, testCase := range cases {
		got := CheckStockAction(data, models.SimSawa, testCase.quantity, testCase.action)
		if got != testCase.want {
			t.Fatalf("%s quantity %d: expected %v, got %v", testCase.action, testCase.quantity, testCase.want, got)
		}
	}
}
