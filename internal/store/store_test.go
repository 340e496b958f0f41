package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrDuplicateTransaction,
		ErrDuplicateAgreement,
		ErrDuplicateAgent,
		ErrConcurrentModification,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}

	wrapped := fmt.Errorf("%w: payment_id pay_123 already exists", ErrDuplicateTransaction)
	if !errors.Is(wrapped, ErrDuplicateTransaction) {
		t.Errorf("wrapped sentinel lost: %v", wrapped)
	}
}

// Ensure the interfaces are non-nil types.
func TestStoreInterfacesExist(t *testing.T) {
	var _ BookingStore
	var _ TourStore
	var _ AgentStore
	var _ StatsStore
	var _ TransactionStore
	var _ TermsStore
	var _ WalletLedger
	_ = CheckoutParams{}
	_ = CreditWalletParams{}
}
