package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
)

func TestTransaction_IsReversal(t *testing.T) {
	originalID := "txn-1"
	tests := []struct {
		name        string
		transaction domain.Transaction
		want        bool
	}{
		{
			name:        "regular journal",
			transaction: domain.Transaction{TransactionType: domain.TypeJournal},
			want:        false,
		},
		{
			name: "reversal with lineage",
			transaction: domain.Transaction{
				TransactionType:       domain.TypeReversal,
				OriginalTransactionID: &originalID,
			},
			want: true,
		},
		{
			name: "voided original is not itself a reversal",
			transaction: domain.Transaction{
				Status:                 domain.Voided,
				ReversingTransactionID: &originalID,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.transaction.IsReversal())
		})
	}
}

func TestLedgerEntry_SignedAmount(t *testing.T) {
	debit := domain.LedgerEntry{Side: domain.Debit, Amount: decimal.NewFromInt(100)}
	credit := domain.LedgerEntry{Side: domain.Credit, Amount: decimal.NewFromInt(100)}

	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromInt(100)))
	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromInt(-100)))
}

func TestBankTransaction_SignedAmount(t *testing.T) {
	deposit := domain.BankTransaction{Direction: domain.DirectionDeposit, Amount: decimal.NewFromInt(50)}
	withdrawal := domain.BankTransaction{Direction: domain.DirectionWithdrawal, Amount: decimal.NewFromInt(50)}

	assert.True(t, deposit.SignedAmount().Equal(decimal.NewFromInt(50)))
	assert.True(t, withdrawal.SignedAmount().Equal(decimal.NewFromInt(-50)))
}
