package services

import (
	"context"
	"errors"
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
	ErrSessionAlreadyOpen  = fmt.Errorf("%w: an in-progress reconciliation already exists for this bank account", apperrors.ErrDuplicate)
	ErrItemAfterStatement  = fmt.Errorf("%w: item is dated after the statement date", apperrors.ErrValidation)
	ErrAdjustmentNotOnBank = fmt.Errorf("%w: adjustment did not produce an entry on the bank gl account", apperrors.ErrInternal)
)

// clearedSetRetries bounds optimistic retries on concurrent cleared-set updates.
const clearedSetRetries = 3

// reconciliationService manages reconciliation sessions: the clearable item
// projection, the cleared sets, the recomputed gap, and the finalize gate.
type reconciliationService struct {
	reconRepo portsrepo.ReconciliationRepositoryWithTx
	bankRepo  portsrepo.BankAccountRepositoryFacade
	txnRepo   portsrepo.TransactionRepositoryFacade
	ledgerSvc portssvc.LedgerPosterSvc
	orgSvc    portssvc.OrganizationAuthorizerSvc
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	reconRepo portsrepo.ReconciliationRepositoryWithTx,
	bankRepo portsrepo.BankAccountRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	ledgerSvc portssvc.LedgerPosterSvc,
	orgSvc portssvc.OrganizationAuthorizerSvc,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconRepo: reconRepo,
		bankRepo:  bankRepo,
		txnRepo:   txnRepo,
		ledgerSvc: ledgerSvc,
		orgSvc:    orgSvc,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) StartSession(ctx context.Context, organizationID string, req dto.StartReconciliationRequest, userID string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if bankAccount.OrganizationID != organizationID {
		return nil, fmt.Errorf("bank account %s: %w", req.BankAccountID, apperrors.ErrNotFound)
	}

	open, err := s.reconRepo.FindOpenByBankAccount(ctx, req.BankAccountID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, fmt.Errorf("%w: session %s", ErrSessionAlreadyOpen, open.ReconciliationID)
	}

	// The opening balance carries forward from the last finalized session,
	// falling back to the account's opening balance for a first reconciliation.
	openingBalance := bankAccount.OpeningBalance
	if bankAccount.LastReconciledDate != nil {
		openingBalance = bankAccount.LastReconciledBalance
	}

	now := time.Now()
	session := domain.Reconciliation{
		ReconciliationID:          uuid.NewString(),
		OrganizationID:            organizationID,
		BankAccountID:             req.BankAccountID,
		StatementDate:             req.StatementDate,
		StatementBalance:          req.StatementBalance,
		OpeningBalance:            openingBalance,
		Status:                    domain.ReconciliationInProgress,
		ClearedEntryIDs:           []string{},
		ClearedBankTransactionIDs: []string{},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.reconRepo.SaveReconciliation(ctx, session); err != nil {
		logger.Error("failed to save reconciliation", "error", err, "bankAccountID", req.BankAccountID)
		return nil, err
	}

	logger.Info("reconciliation started", "reconciliationID", session.ReconciliationID, "bankAccountID", req.BankAccountID, "statementDate", req.StatementDate)
	return &session, nil
}

// findOrgSession loads a session and verifies its organization.
func (s *reconciliationService) findOrgSession(ctx context.Context, organizationID string, reconciliationID string) (*domain.Reconciliation, error) {
	session, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if session.OrganizationID != organizationID {
		return nil, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrNotFound)
	}
	return session, nil
}

// entryDirection maps a book-side entry on the bank GL account to bank
// terms: a debit to the asset account is money in, a credit is money out.
func entryDirection(side domain.EntrySide) domain.BankTransactionDirection {
	if side == domain.Credit {
		return domain.DirectionWithdrawal
	}
	return domain.DirectionDeposit
}

// buildItems derives the live clearable item projection for an in-progress
// session: posted entries on the bank GL account and unlocked feed rows,
// both dated up to the statement date. Items locked by previously finalized
// sessions are excluded; they can never be cleared again.
func (s *reconciliationService) buildItems(ctx context.Context, session *domain.Reconciliation) ([]domain.ClearableItem, *domain.BankAccount, error) {
	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, session.BankAccountID)
	if err != nil {
		return nil, nil, err
	}

	lockedEntryIDs, err := s.reconRepo.FindLockedEntryIDs(ctx, session.BankAccountID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.txnRepo.FindPostedEntriesByAccountInRange(ctx, bankAccount.GLAccountID, session.StatementDate)
	if err != nil {
		return nil, nil, err
	}

	bankRows, err := s.bankRepo.FindUnlockedByBankAccount(ctx, session.BankAccountID, session.StatementDate)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.ClearableItem, 0, len(entries)+len(bankRows))
	for _, e := range entries {
		if _, locked := lockedEntryIDs[e.EntryID]; locked {
			continue
		}
		items = append(items, domain.ClearableItem{
			ItemID:      e.EntryID,
			ItemType:    domain.ItemTypeEntry,
			Date:        e.TransactionDate,
			Amount:      e.Amount,
			Direction:   entryDirection(e.Side),
			Description: e.TransactionDescription,
			Reference:   e.Notes,
			IsCleared:   session.IsEntryCleared(e.EntryID),
		})
	}
	for _, row := range bankRows {
		items = append(items, domain.ClearableItem{
			ItemID:      row.BankTransactionID,
			ItemType:    domain.ItemTypeBankTransaction,
			Date:        row.TransactionDate,
			Amount:      row.Amount,
			Direction:   row.Direction,
			Description: row.Description,
			Reference:   row.Reference,
			Payee:       row.Payee,
			IsCleared:   session.IsBankTransactionCleared(row.BankTransactionID),
		})
	}
	return items, bankAccount, nil
}

// lockedItems renders a finalized session's cleared sets as locked items.
// The live projection no longer carries them, so they are loaded by id.
func (s *reconciliationService) lockedItems(ctx context.Context, session *domain.Reconciliation) ([]domain.ClearableItem, error) {
	items := make([]domain.ClearableItem, 0, len(session.ClearedEntryIDs)+len(session.ClearedBankTransactionIDs))
	for _, entryID := range session.ClearedEntryIDs {
		e, err := s.txnRepo.FindEntryByID(ctx, entryID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ClearableItem{
			ItemID:      e.EntryID,
			ItemType:    domain.ItemTypeEntry,
			Date:        e.TransactionDate,
			Amount:      e.Amount,
			Direction:   entryDirection(e.Side),
			Description: e.TransactionDescription,
			Reference:   e.Notes,
			IsCleared:   true,
			IsLocked:    true,
		})
	}
	for _, bankTxnID := range session.ClearedBankTransactionIDs {
		row, err := s.bankRepo.FindBankTransactionByID(ctx, bankTxnID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ClearableItem{
			ItemID:      row.BankTransactionID,
			ItemType:    domain.ItemTypeBankTransaction,
			Date:        row.TransactionDate,
			Amount:      row.Amount,
			Direction:   row.Direction,
			Description: row.Description,
			Reference:   row.Reference,
			Payee:       row.Payee,
			IsCleared:   true,
			IsLocked:    true,
		})
	}
	return items, nil
}

// gapFor recomputes the gap from the session balances and the cleared subset
// of the projection. The gap is always derived fresh, never read from storage.
func gapFor(session *domain.Reconciliation, items []domain.ClearableItem) domain.Gap {
	cleared := make([]domain.ClearableItem, 0, len(items))
	for _, item := range items {
		if item.IsCleared {
			cleared = append(cleared, item)
		}
	}
	return accounting.ComputeGap(session.OpeningBalance, session.StatementBalance, cleared)
}

func (s *reconciliationService) sessionItems(ctx context.Context, session *domain.Reconciliation) ([]domain.ClearableItem, error) {
	if session.Status == domain.ReconciliationFinalized {
		return s.lockedItems(ctx, session)
	}
	items, _, err := s.buildItems(ctx, session)
	return items, err
}

func (s *reconciliationService) GetSessionView(ctx context.Context, organizationID string, reconciliationID string, userID string) (*dto.ReconciliationResponse, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, err
	}
	items, err := s.sessionItems(ctx, session)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReconciliationResponse{
		ReconciliationID: session.ReconciliationID,
		OrganizationID:   session.OrganizationID,
		BankAccountID:    session.BankAccountID,
		StatementDate:    session.StatementDate,
		Status:           string(session.Status),
		Gap:              dto.ToGapResponse(gapFor(session, items)),
		Items:            dto.ToClearableItemResponses(items),
		FinalizedAt:      session.FinalizedAt,
		FinalizedBy:      session.FinalizedBy,
	}
	return resp, nil
}

func (s *reconciliationService) ListClearableItems(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.ClearableItem, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, err
	}
	return s.sessionItems(ctx, session)
}

func (s *reconciliationService) ComputeSessionGap(ctx context.Context, organizationID string, reconciliationID string, userID string) (domain.Gap, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return domain.Gap{}, err
	}
	session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
	if err != nil {
		return domain.Gap{}, err
	}
	items, err := s.sessionItems(ctx, session)
	if err != nil {
		return domain.Gap{}, err
	}
	return gapFor(session, items), nil
}

func (s *reconciliationService) ListSessions(ctx context.Context, organizationID string, bankAccountID string, limit int, userID string) ([]domain.Reconciliation, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}
	if bankAccount.OrganizationID != organizationID {
		return nil, fmt.Errorf("bank account %s: %w", bankAccountID, apperrors.ErrNotFound)
	}
	if limit <= 0 {
		limit = 20
	}
	return s.reconRepo.ListReconciliationsByBankAccount(ctx, bankAccountID, limit)
}

// applyClearedSets computes new cleared sets from the session's current state
// and persists them under the session version. When a concurrent writer moves
// the version, the session is re-read and the sets recomputed, bounded by
// clearedSetRetries. On success the session carries the written sets and the
// bumped version.
func applyClearedSets(ctx context.Context, repo portsrepo.ReconciliationRepositoryFacade, session *domain.Reconciliation, userID string, apply func(entryIDs, bankTxnIDs []string) ([]string, []string)) error {
	var err error
	for attempt := 0; attempt < clearedSetRetries; attempt++ {
		entryIDs, bankTxnIDs := apply(session.ClearedEntryIDs, session.ClearedBankTransactionIDs)
		err = repo.UpdateClearedSets(ctx, session.ReconciliationID, entryIDs, bankTxnIDs, session.Version, userID, time.Now())
		if err == nil {
			session.ClearedEntryIDs = entryIDs
			session.ClearedBankTransactionIDs = bankTxnIDs
			session.Version++
			return nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		fresh, findErr := repo.FindReconciliationByID(ctx, session.ReconciliationID)
		if findErr != nil {
			return findErr
		}
		if fresh.Status == domain.ReconciliationFinalized {
			return fmt.Errorf("reconciliation %s: %w", session.ReconciliationID, apperrors.ErrLockedSession)
		}
		*session = *fresh
	}
	return err
}

// toggleIDSet returns the set with the id added or removed. Both operations
// are idempotent.
func toggleIDSet(set []string, id string, present bool) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, existing := range set {
		if existing == id {
			found = true
			if !present {
				continue
			}
		}
		out = append(out, existing)
	}
	if present && !found {
		out = append(out, id)
	}
	return out
}

func (s *reconciliationService) ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) (domain.Gap, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return domain.Gap{}, err
	}
	session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
	if err != nil {
		return domain.Gap{}, err
	}
	if session.Status == domain.ReconciliationFinalized {
		return domain.Gap{}, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
	}

	if err := s.checkToggleTarget(ctx, session, req); err != nil {
		return domain.Gap{}, err
	}

	err = applyClearedSets(ctx, s.reconRepo, session, userID, func(entryIDs, bankTxnIDs []string) ([]string, []string) {
		if req.ItemType == domain.ItemTypeEntry {
			return toggleIDSet(entryIDs, req.ItemID, *req.IsCleared), bankTxnIDs
		}
		return entryIDs, toggleIDSet(bankTxnIDs, req.ItemID, *req.IsCleared)
	})
	if err != nil {
		logger.Error("failed to update cleared sets", "error", err, "reconciliationID", reconciliationID)
		return domain.Gap{}, err
	}

	items, _, err := s.buildItems(ctx, session)
	if err != nil {
		return domain.Gap{}, err
	}
	return gapFor(session, items), nil
}

// checkToggleTarget validates that the toggled item belongs to this session's
// bank account, falls within the statement period, and is not locked by an
// earlier finalized session.
func (s *reconciliationService) checkToggleTarget(ctx context.Context, session *domain.Reconciliation, req dto.ToggleClearRequest) error {
	switch req.ItemType {
	case domain.ItemTypeEntry:
		lockedEntryIDs, err := s.reconRepo.FindLockedEntryIDs(ctx, session.BankAccountID)
		if err != nil {
			return err
		}
		if _, locked := lockedEntryIDs[req.ItemID]; locked {
			return fmt.Errorf("entry %s is locked by a finalized reconciliation: %w", req.ItemID, apperrors.ErrImmutable)
		}
		bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, session.BankAccountID)
		if err != nil {
			return err
		}
		entry, err := s.txnRepo.FindEntryByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if entry.AccountID != bankAccount.GLAccountID {
			return fmt.Errorf("entry %s: %w", req.ItemID, apperrors.ErrNotFound)
		}
		if entry.TransactionDate.After(session.StatementDate) {
			return fmt.Errorf("%w: entry %s", ErrItemAfterStatement, req.ItemID)
		}
	case domain.ItemTypeBankTransaction:
		row, err := s.bankRepo.FindBankTransactionByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if row.BankAccountID != session.BankAccountID {
			return fmt.Errorf("bank transaction %s: %w", req.ItemID, apperrors.ErrNotFound)
		}
		if row.ReconciliationID != nil {
			return fmt.Errorf("bank transaction %s is locked by a finalized reconciliation: %w", req.ItemID, apperrors.ErrImmutable)
		}
		if row.TransactionDate.After(session.StatementDate) {
			return fmt.Errorf("%w: bank transaction %s", ErrItemAfterStatement, req.ItemID)
		}
	default:
		return fmt.Errorf("%w: unknown item type %s", apperrors.ErrValidation, req.ItemType)
	}
	return nil
}

func (s *reconciliationService) Finalize(ctx context.Context, organizationID string, reconciliationID string, userID string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	// The gate recomputes the gap server-side; a client-supplied "balanced"
	// claim is never trusted. The transaction re-checks the session version
	// under the row lock, so a ToggleClear that lands between the gap check
	// and the lock forces a fresh read and a fresh gate.
	var lastErr error
	for attempt := 0; attempt < clearedSetRetries; attempt++ {
		session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
		if err != nil {
			return nil, err
		}
		if session.Status == domain.ReconciliationFinalized {
			return nil, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
		}

		items, bankAccount, err := s.buildItems(ctx, session)
		if err != nil {
			return nil, err
		}
		gap := gapFor(session, items)
		if !gap.IsBalanced {
			return nil, apperrors.NewUnreconciledError(gap.Difference)
		}

		now := time.Now()
		tx, err := s.reconRepo.Begin(ctx)
		if err != nil {
			return nil, err
		}

		err = s.reconRepo.FinalizeReconciliationInTx(ctx, tx, reconciliationID, session.Version, userID, now)
		if err != nil {
			_ = s.reconRepo.Rollback(ctx, tx)
			if errors.Is(err, apperrors.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if len(session.ClearedBankTransactionIDs) > 0 {
			if err := s.bankRepo.LockBankTransactionsInTx(ctx, tx, session.ClearedBankTransactionIDs, reconciliationID, userID, now); err != nil {
				_ = s.reconRepo.Rollback(ctx, tx)
				return nil, err
			}
		}
		if err := s.bankRepo.UpdateLastReconciledInTx(ctx, tx, bankAccount.BankAccountID, session.StatementDate, session.StatementBalance, userID, now); err != nil {
			_ = s.reconRepo.Rollback(ctx, tx)
			return nil, err
		}
		if err := s.reconRepo.Commit(ctx, tx); err != nil {
			return nil, err
		}

		session.Status = domain.ReconciliationFinalized
		session.FinalizedAt = &now
		session.FinalizedBy = userID
		session.LastUpdatedAt = now
		session.LastUpdatedBy = userID

		logger.Info("reconciliation finalized", "reconciliationID", reconciliationID, "bankAccountID", bankAccount.BankAccountID, "statementBalance", session.StatementBalance)
		return session, nil
	}
	return nil, lastErr
}

func (s *reconciliationService) PostAdjustment(ctx context.Context, organizationID string, reconciliationID string, req dto.PostAdjustmentRequest, userID string) (*domain.Transaction, domain.Gap, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, domain.Gap{}, err
	}
	session, err := s.findOrgSession(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, domain.Gap{}, err
	}
	if session.Status == domain.ReconciliationFinalized {
		return nil, domain.Gap{}, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Gap{}, fmt.Errorf("%w: adjustment amount must be positive", apperrors.ErrValidation)
	}
	if req.Date.After(session.StatementDate) {
		return nil, domain.Gap{}, fmt.Errorf("%w: adjustment", ErrItemAfterStatement)
	}

	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, session.BankAccountID)
	if err != nil {
		return nil, domain.Gap{}, err
	}

	if req.BankTransactionID != nil {
		bankReq := dto.ToggleClearRequest{ItemID: *req.BankTransactionID, ItemType: domain.ItemTypeBankTransaction}
		if err := s.checkToggleTarget(ctx, session, bankReq); err != nil {
			return nil, domain.Gap{}, err
		}
	}

	// A deposit-side adjustment (interest earned) debits the bank GL account;
	// a withdrawal-side one (bank fee) credits it. Adjustments are assumed to
	// be in the bank account's own currency at par.
	glLine := dto.CreateEntryRequest{
		AccountID:    bankAccount.GLAccountID,
		Side:         domain.Debit,
		Amount:       req.Amount,
		CurrencyCode: bankAccount.CurrencyCode,
		ExchangeRate: decimal.NewFromInt(1),
	}
	counterLine := dto.CreateEntryRequest{
		AccountID:    req.CounterAccountID,
		Side:         domain.Credit,
		Amount:       req.Amount,
		CurrencyCode: bankAccount.CurrencyCode,
		ExchangeRate: decimal.NewFromInt(1),
	}
	if req.Direction == domain.DirectionWithdrawal {
		glLine.Side = domain.Credit
		counterLine.Side = domain.Debit
	}

	txnReq := dto.CreateTransactionRequest{
		Date:        req.Date,
		Description: req.Description,
		Status:      string(domain.Posted),
		Entries:     []dto.CreateEntryRequest{glLine, counterLine},
	}
	txn, err := s.ledgerSvc.PostTypedTransaction(ctx, organizationID, txnReq, domain.TypeAdjustment, userID)
	if err != nil {
		return nil, domain.Gap{}, err
	}

	glEntryID := ""
	for _, e := range txn.Entries {
		if e.AccountID == bankAccount.GLAccountID {
			glEntryID = e.EntryID
			break
		}
	}
	if glEntryID == "" {
		return nil, domain.Gap{}, ErrAdjustmentNotOnBank
	}

	err = applyClearedSets(ctx, s.reconRepo, session, userID, func(entryIDs, bankTxnIDs []string) ([]string, []string) {
		entryIDs = toggleIDSet(entryIDs, glEntryID, true)
		if req.BankTransactionID != nil {
			bankTxnIDs = toggleIDSet(bankTxnIDs, *req.BankTransactionID, true)
		}
		return entryIDs, bankTxnIDs
	})
	if err != nil {
		logger.Error("failed to clear adjustment entry", "error", err, "reconciliationID", reconciliationID, "transactionID", txn.TransactionID)
		return nil, domain.Gap{}, err
	}

	items, _, err := s.buildItems(ctx, session)
	if err != nil {
		return nil, domain.Gap{}, err
	}

	logger.Info("reconciliation adjustment posted", "reconciliationID", reconciliationID, "transactionID", txn.TransactionID, "direction", req.Direction)
	return txn, gapFor(session, items), nil
}
