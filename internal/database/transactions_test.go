package database

import (
	"context"
	"errors"
	"testing"

	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func settledTransaction(paymentId string) *models.Transaction {
	return &models.Transaction{
		PaymentId:   paymentId,
		BookingId:   "BK1",
		TourId:      "tour1",
		CustomerId:  "cust1",
		AgentId:     "agent2",
		TotalAmount: decimal.NewFromInt(1000),
		PaidAmount:  decimal.NewFromInt(1000),
		Currency:    "INR",
		Method:      "upi",
		Commissions: []models.CommissionRecord{
			{AgentId: "agent2", Level: 1, Amount: decimal.NewFromInt(70), Rate: decimal.NewFromInt(7)},
			{AgentId: "agent1", Level: 2, Amount: decimal.NewFromInt(25), Rate: decimal.RequireFromString("2.5")},
		},
	}
}

func TestCreateTransaction_WithCommissions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	if err := service.CreateTransaction(ctx, settledTransaction("pay_1")); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	txn, err := service.GetTransactionByPaymentId(ctx, "pay_1")
	if err != nil {
		t.Fatalf("GetTransactionByPaymentId failed: %v", err)
	}
	if !txn.PaidAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected paid amount 1000, got %s", txn.PaidAmount)
	}
	if len(txn.Commissions) != 2 {
		t.Fatalf("Expected 2 commission records, got %d", len(txn.Commissions))
	}
	if txn.Commissions[0].Level != 1 || txn.Commissions[1].AgentId != "agent1" {
		t.Errorf("Unexpected commission records: %+v", txn.Commissions)
	}
	if !txn.Commissions[1].Rate.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected level 2 rate 2.5, got %s", txn.Commissions[1].Rate)
	}
}

func TestCreateTransaction_DuplicatePayment(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	if err := service.CreateTransaction(ctx, settledTransaction("pay_1")); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	err := service.CreateTransaction(ctx, settledTransaction("pay_1"))
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestGetTransactionByPaymentId_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetTransactionByPaymentId(context.Background(), "pay_missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateTransaction_RollsBackOnCommissionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	service := newService(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settlement_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO commission_records").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := service.CreateTransaction(context.Background(), settledTransaction("pay_1")); err == nil {
		t.Fatal("Expected error when commission insert fails")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}
