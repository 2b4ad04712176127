package mapping

import (
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/models"
)

// ToModelReconciliation converts a domain Reconciliation to a model Reconciliation.
func ToModelReconciliation(d domain.Reconciliation) models.Reconciliation {
	return models.Reconciliation{
		ReconciliationID:          d.ReconciliationID,
		OrganizationID:            d.OrganizationID,
		BankAccountID:             d.BankAccountID,
		StatementDate:             d.StatementDate,
		StatementBalance:          d.StatementBalance,
		OpeningBalance:            d.OpeningBalance,
		Status:                    models.ReconciliationStatus(d.Status),
		ClearedEntryIDs:           d.ClearedEntryIDs,
		ClearedBankTransactionIDs: d.ClearedBankTransactionIDs,
		Version:                   d.Version,
		FinalizedAt:               d.FinalizedAt,
		FinalizedBy:               d.FinalizedBy,
		AuditFields:               ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainReconciliation converts a model Reconciliation to a domain Reconciliation.
func ToDomainReconciliation(m models.Reconciliation) domain.Reconciliation {
	return domain.Reconciliation{
		ReconciliationID:          m.ReconciliationID,
		OrganizationID:            m.OrganizationID,
		BankAccountID:             m.BankAccountID,
		StatementDate:             m.StatementDate,
		StatementBalance:          m.StatementBalance,
		OpeningBalance:            m.OpeningBalance,
		Status:                    domain.ReconciliationStatus(m.Status),
		ClearedEntryIDs:           m.ClearedEntryIDs,
		ClearedBankTransactionIDs: m.ClearedBankTransactionIDs,
		Version:                   m.Version,
		FinalizedAt:               m.FinalizedAt,
		FinalizedBy:               m.FinalizedBy,
		AuditFields:               ToDomainAuditFields(m.AuditFields),
	}
}
