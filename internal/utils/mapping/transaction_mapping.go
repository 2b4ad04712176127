package mapping

import (
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:          d.TransactionID,
		OrganizationID:         d.OrganizationID,
		TransactionDate:        d.TransactionDate,
		TransactionType:        models.TransactionType(d.TransactionType),
		Description:            d.Description,
		Reference:              d.Reference,
		Status:                 models.TransactionStatus(d.Status),
		CurrencyCode:           d.CurrencyCode,
		Amount:                 d.Amount,
		OriginalTransactionID:  d.OriginalTransactionID,
		ReversingTransactionID: d.ReversingTransactionID,
		AuditFields:            ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:          m.TransactionID,
		OrganizationID:         m.OrganizationID,
		TransactionDate:        m.TransactionDate,
		TransactionType:        domain.TransactionType(m.TransactionType),
		Description:            m.Description,
		Reference:              m.Reference,
		Status:                 domain.TransactionStatus(m.Status),
		CurrencyCode:           m.CurrencyCode,
		Amount:                 m.Amount,
		OriginalTransactionID:  m.OriginalTransactionID,
		ReversingTransactionID: m.ReversingTransactionID,
		AuditFields:            ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry.
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:        d.EntryID,
		TransactionID:  d.TransactionID,
		AccountID:      d.AccountID,
		Side:           models.EntrySide(d.Side),
		Amount:         d.Amount,
		CurrencyCode:   d.CurrencyCode,
		ExchangeRate:   d.ExchangeRate,
		BaseAmount:     d.BaseAmount,
		Notes:          d.Notes,
		RunningBalance: d.RunningBalance,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry.
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:        m.EntryID,
		TransactionID:  m.TransactionID,
		AccountID:      m.AccountID,
		Side:           domain.EntrySide(m.Side),
		Amount:         m.Amount,
		CurrencyCode:   m.CurrencyCode,
		ExchangeRate:   m.ExchangeRate,
		BaseAmount:     m.BaseAmount,
		Notes:          m.Notes,
		RunningBalance: m.RunningBalance,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
