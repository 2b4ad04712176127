package mapping

import (
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/models"
)

// ToModelBankAccount converts a domain BankAccount to a model BankAccount.
// CurrentBalance is derived at read time and is not a column.
func ToModelBankAccount(d domain.BankAccount) models.BankAccount {
	return models.BankAccount{
		BankAccountID:         d.BankAccountID,
		OrganizationID:        d.OrganizationID,
		Name:                  d.Name,
		GLAccountID:           d.GLAccountID,
		CurrencyCode:          d.CurrencyCode,
		OpeningBalance:        d.OpeningBalance,
		LastReconciledDate:    d.LastReconciledDate,
		LastReconciledBalance: d.LastReconciledBalance,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankAccount converts a model BankAccount to a domain BankAccount.
func ToDomainBankAccount(m models.BankAccount) domain.BankAccount {
	return domain.BankAccount{
		BankAccountID:         m.BankAccountID,
		OrganizationID:        m.OrganizationID,
		Name:                  m.Name,
		GLAccountID:           m.GLAccountID,
		CurrencyCode:          m.CurrencyCode,
		OpeningBalance:        m.OpeningBalance,
		LastReconciledDate:    m.LastReconciledDate,
		LastReconciledBalance: m.LastReconciledBalance,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelBankTransaction converts a domain BankTransaction to a model BankTransaction.
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		BankTransactionID: d.BankTransactionID,
		BankAccountID:     d.BankAccountID,
		TransactionDate:   d.TransactionDate,
		Amount:            d.Amount,
		Direction:         models.BankTransactionDirection(d.Direction),
		Description:       d.Description,
		Reference:         d.Reference,
		Payee:             d.Payee,
		ReconciliationID:  d.ReconciliationID,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction.
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		BankTransactionID: m.BankTransactionID,
		BankAccountID:     m.BankAccountID,
		TransactionDate:   m.TransactionDate,
		Amount:            m.Amount,
		Direction:         domain.BankTransactionDirection(m.Direction),
		Description:       m.Description,
		Reference:         m.Reference,
		Payee:             m.Payee,
		ReconciliationID:  m.ReconciliationID,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
