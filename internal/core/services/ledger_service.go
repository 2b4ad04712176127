package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
	"github.com/kitabuhq/kitabu_backend/internal/middleware"
	"github.com/kitabuhq/kitabu_backend/internal/utils/accounting"
)

var (
	ErrCurrencyMismatch = fmt.Errorf("%w: entry currency does not match the account currency", apperrors.ErrValidation)
	ErrNotDraft         = fmt.Errorf("%w: transaction is not a draft", apperrors.ErrImmutable)
	ErrAlreadyVoided    = fmt.Errorf("%w: transaction is already voided", apperrors.ErrImmutable)
	ErrReverseDraft     = fmt.Errorf("%w: drafts are deleted, not reversed", apperrors.ErrValidation)
)

// ledgerService is the double-entry posting engine. Posted transactions are
// immutable; every correction flows through ReverseTransaction.
type ledgerService struct {
	txnRepo     portsrepo.TransactionRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	orgSvc      portssvc.OrganizationSvcFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(txnRepo portsrepo.TransactionRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, orgSvc portssvc.OrganizationSvcFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		orgSvc:      orgSvc,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// buildEntries converts request lines into ledger entries, validating each
// referenced account: it must exist in the organization, be active, and match
// the line's currency. BaseAmount is fixed here from the caller-supplied rate
// and never recomputed afterwards.
func (s *ledgerService) buildEntries(ctx context.Context, organizationID string, transactionID string, lines []dto.CreateEntryRequest, userID string, now time.Time) ([]domain.LedgerEntry, error) {
	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; !ok {
			seen[line.AccountID] = struct{}{}
			accountIDs = append(accountIDs, line.AccountID)
		}
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, 0, len(lines))
	for _, line := range lines {
		account, ok := accounts[line.AccountID]
		if !ok || account.OrganizationID != organizationID {
			return nil, fmt.Errorf("account %s: %w", line.AccountID, apperrors.ErrNotFound)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s", ErrAccountInactive, line.AccountID)
		}
		if account.CurrencyCode != line.CurrencyCode {
			return nil, fmt.Errorf("%w: account %s holds %s, entry is %s", ErrCurrencyMismatch, line.AccountID, account.CurrencyCode, line.CurrencyCode)
		}

		entries = append(entries, domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     line.AccountID,
			Side:          line.Side,
			Amount:        line.Amount,
			CurrencyCode:  line.CurrencyCode,
			ExchangeRate:  line.ExchangeRate,
			BaseAmount:    line.Amount.Mul(line.ExchangeRate),
			Notes:         line.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
	}

	if err := accounting.ValidateEntries(entries); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return entries, nil
}

// balanceChangesFor aggregates per-account balance deltas for a posted set of
// entries, using the debits-minus-credits convention.
func balanceChangesFor(entries []domain.LedgerEntry) map[string]decimal.Decimal {
	changes := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		changes[e.AccountID] = changes[e.AccountID].Add(accounting.EntryBalanceDelta(e))
	}
	return changes
}

func (s *ledgerService) PostTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	return s.PostTypedTransaction(ctx, organizationID, req, domain.TypeJournal, creatorUserID)
}

func (s *ledgerService) PostTypedTransaction(ctx context.Context, organizationID string, req dto.CreateTransactionRequest, txnType domain.TransactionType, creatorUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, creatorUserID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	org, err := s.orgSvc.GetOrganizationByID(ctx, organizationID, creatorUserID)
	if err != nil {
		return nil, err
	}

	status := domain.TransactionStatus(req.Status)
	if status == "" {
		status = domain.Posted
	}

	now := time.Now()
	transactionID := uuid.NewString()

	entries, err := s.buildEntries(ctx, organizationID, transactionID, req.Entries, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	// Drafts are staged unchecked; the balance invariant is enforced when
	// the draft is posted.
	if status == domain.Posted {
		if diff := accounting.BalanceDifference(entries); !accounting.IsBalanced(diff) {
			return nil, apperrors.NewUnbalancedError(diff)
		}
	}

	txn := domain.Transaction{
		TransactionID:   transactionID,
		OrganizationID:  organizationID,
		TransactionDate: req.Date,
		TransactionType: txnType,
		Description:     req.Description,
		Reference:       req.Reference,
		Status:          status,
		CurrencyCode:    org.BaseCurrencyCode,
		Amount:          accounting.DebitTotal(entries),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	var balanceChanges map[string]decimal.Decimal
	if status == domain.Posted {
		balanceChanges = balanceChangesFor(entries)
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn, entries, balanceChanges); err != nil {
		logger.Error("failed to save transaction", "error", err, "transactionID", transactionID)
		return nil, err
	}

	logger.Info("transaction saved", "transactionID", transactionID, "status", status, "type", txnType, "organizationID", organizationID)
	txn.Entries = entries
	return &txn, nil
}

// findOrgTransaction loads a transaction and verifies its organization.
func (s *ledgerService) findOrgTransaction(ctx context.Context, organizationID string, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.OrganizationID != organizationID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	return txn, nil
}

func (s *ledgerService) UpdateDraft(ctx context.Context, organizationID string, transactionID string, req dto.UpdateDraftRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	txn, err := s.findOrgTransaction(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.Draft {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrImmutable)
	}

	now := time.Now()
	if req.Date != nil {
		txn.TransactionDate = *req.Date
	}
	if req.Description != nil {
		txn.Description = *req.Description
	}
	if req.Reference != nil {
		txn.Reference = *req.Reference
	}

	entries, err := s.buildEntries(ctx, organizationID, transactionID, req.Entries, userID, now)
	if err != nil {
		return nil, err
	}

	txn.Amount = accounting.DebitTotal(entries)
	txn.LastUpdatedAt = now
	txn.LastUpdatedBy = userID

	if err := s.txnRepo.ReplaceDraftEntries(ctx, *txn, entries); err != nil {
		logger.Error("failed to update draft", "error", err, "transactionID", transactionID)
		return nil, err
	}

	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) PostDraft(ctx context.Context, organizationID string, transactionID string, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	txn, err := s.findOrgTransaction(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.Draft {
		return nil, fmt.Errorf("%w: transaction %s is %s", ErrNotDraft, transactionID, txn.Status)
	}

	entries, err := s.txnRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Drafts may have gone stale since staging: revalidate accounts and the
	// balance invariant as if posting fresh.
	if err := accounting.ValidateEntries(entries); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDsOf(entries))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		account, ok := accounts[e.AccountID]
		if !ok || account.OrganizationID != organizationID {
			return nil, fmt.Errorf("account %s: %w", e.AccountID, apperrors.ErrNotFound)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s", ErrAccountInactive, e.AccountID)
		}
	}
	if diff := accounting.BalanceDifference(entries); !accounting.IsBalanced(diff) {
		return nil, apperrors.NewUnbalancedError(diff)
	}

	now := time.Now()
	txn.Status = domain.Posted
	txn.Amount = accounting.DebitTotal(entries)
	txn.LastUpdatedAt = now
	txn.LastUpdatedBy = userID

	if err := s.txnRepo.PostDraft(ctx, *txn, entries, balanceChangesFor(entries)); err != nil {
		logger.Error("failed to post draft", "error", err, "transactionID", transactionID)
		return nil, err
	}

	logger.Info("draft posted", "transactionID", transactionID, "organizationID", organizationID)
	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) DeleteDraft(ctx context.Context, organizationID string, transactionID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return err
	}

	txn, err := s.findOrgTransaction(ctx, organizationID, transactionID)
	if err != nil {
		return err
	}
	if txn.Status != domain.Draft {
		return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrImmutable)
	}

	if err := s.txnRepo.DeleteDraft(ctx, transactionID); err != nil {
		logger.Error("failed to delete draft", "error", err, "transactionID", transactionID)
		return err
	}
	logger.Info("draft deleted", "transactionID", transactionID)
	return nil
}

func (s *ledgerService) ReverseTransaction(ctx context.Context, organizationID string, transactionID string, reason string, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	original, err := s.findOrgTransaction(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}
	switch original.Status {
	case domain.Posted:
		// reversible
	case domain.Voided:
		return nil, fmt.Errorf("%w: transaction %s", ErrAlreadyVoided, transactionID)
	case domain.Draft:
		return nil, fmt.Errorf("%w: transaction %s", ErrReverseDraft, transactionID)
	default:
		return nil, fmt.Errorf("transaction %s has unexpected status %s: %w", transactionID, original.Status, apperrors.ErrInternal)
	}

	originalEntries, err := s.txnRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reversalID := uuid.NewString()
	reversalEntries := make([]domain.LedgerEntry, len(originalEntries))
	for i, e := range originalEntries {
		side := domain.Debit
		if e.Side == domain.Debit {
			side = domain.Credit
		}
		reversalEntries[i] = domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: reversalID,
			AccountID:     e.AccountID,
			Side:          side,
			Amount:        e.Amount,
			CurrencyCode:  e.CurrencyCode,
			ExchangeRate:  e.ExchangeRate,
			BaseAmount:    e.BaseAmount,
			Notes:         e.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	originalID := original.TransactionID
	reversal := domain.Transaction{
		TransactionID:         reversalID,
		OrganizationID:        organizationID,
		TransactionDate:       now,
		TransactionType:       domain.TypeReversal,
		Description:           fmt.Sprintf("Reversal of %s: %s", original.Description, reason),
		Reference:             original.Reference,
		Status:                domain.Posted,
		CurrencyCode:          original.CurrencyCode,
		Amount:                original.Amount,
		OriginalTransactionID: &originalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.txnRepo.SaveReversal(ctx, reversal, reversalEntries, balanceChangesFor(reversalEntries)); err != nil {
		logger.Error("failed to save reversal", "error", err, "originalTransactionID", originalID)
		return nil, err
	}

	logger.Info("transaction reversed", "originalTransactionID", originalID, "reversalTransactionID", reversalID)
	reversal.Entries = reversalEntries
	return &reversal, nil
}

func (s *ledgerService) GetTransactionByID(ctx context.Context, organizationID string, transactionID string, userID string) (*domain.Transaction, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	txn, err := s.findOrgTransaction(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.txnRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, organizationID string, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	txns, nextToken, err := s.txnRepo.ListTransactionsByOrganization(ctx, organizationID, params.Limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListTransactionsResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(txns)),
		NextToken:    nextToken,
	}
	for i := range txns {
		if params.IncludeEntries {
			entries, err := s.txnRepo.FindEntriesByTransactionID(ctx, txns[i].TransactionID)
			if err != nil {
				return nil, err
			}
			txns[i].Entries = entries
		}
		resp.Transactions = append(resp.Transactions, dto.ToTransactionResponse(&txns[i]))
	}
	return resp, nil
}

func (s *ledgerService) ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, userID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OrganizationID != organizationID {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}
	entries, nextToken, err := s.txnRepo.ListEntriesByAccountID(ctx, organizationID, accountID, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// accountIDsOf collects the distinct account ids referenced by the entries.
func accountIDsOf(entries []domain.LedgerEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; !ok {
			seen[e.AccountID] = struct{}{}
			ids = append(ids, e.AccountID)
		}
	}
	return ids
}
