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
)

var ErrGLAccountNotAsset = fmt.Errorf("%w: bank account must be backed by an asset GL account", apperrors.ErrValidation)

// bankAccountService manages bank accounts and their imported statement feed.
type bankAccountService struct {
	bankRepo    portsrepo.BankAccountRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	orgSvc      portssvc.OrganizationAuthorizerSvc
}

// NewBankAccountService creates a new BankAccountService.
func NewBankAccountService(bankRepo portsrepo.BankAccountRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, orgSvc portssvc.OrganizationAuthorizerSvc) portssvc.BankAccountSvcFacade {
	return &bankAccountService{
		bankRepo:    bankRepo,
		accountRepo: accountRepo,
		orgSvc:      orgSvc,
	}
}

var _ portssvc.BankAccountSvcFacade = (*bankAccountService)(nil)

func (s *bankAccountService) CreateBankAccount(ctx context.Context, organizationID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	glAccount, err := s.accountRepo.FindAccountByID(ctx, req.GLAccountID)
	if err != nil {
		return nil, fmt.Errorf("gl account: %w", err)
	}
	if glAccount.OrganizationID != organizationID {
		return nil, fmt.Errorf("gl account %s: %w", req.GLAccountID, apperrors.ErrNotFound)
	}
	if glAccount.AccountType != domain.Asset {
		return nil, fmt.Errorf("%w: account %s is %s", ErrGLAccountNotAsset, glAccount.AccountID, glAccount.AccountType)
	}
	if !glAccount.IsActive {
		return nil, fmt.Errorf("%w: gl account %s", ErrAccountInactive, glAccount.AccountID)
	}

	now := time.Now()
	bankAccount := domain.BankAccount{
		BankAccountID:         uuid.NewString(),
		OrganizationID:        organizationID,
		Name:                  req.Name,
		GLAccountID:           glAccount.AccountID,
		CurrencyCode:          glAccount.CurrencyCode,
		OpeningBalance:        req.OpeningBalance,
		CurrentBalance:        req.OpeningBalance.Add(glAccount.Balance),
		LastReconciledBalance: decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.bankRepo.SaveBankAccount(ctx, bankAccount); err != nil {
		logger.Error("failed to save bank account", "error", err, "organizationID", organizationID)
		return nil, err
	}

	logger.Info("bank account created", "bankAccountID", bankAccount.BankAccountID, "glAccountID", glAccount.AccountID)
	return &bankAccount, nil
}

// findOrgBankAccount loads a bank account, verifies the organization, and
// refreshes CurrentBalance from the GL account's live balance.
func (s *bankAccountService) findOrgBankAccount(ctx context.Context, organizationID string, bankAccountID string) (*domain.BankAccount, error) {
	bankAccount, err := s.bankRepo.FindBankAccountByID(ctx, bankAccountID)
	if err != nil {
		return nil, err
	}
	if bankAccount.OrganizationID != organizationID {
		return nil, fmt.Errorf("bank account %s: %w", bankAccountID, apperrors.ErrNotFound)
	}
	glAccount, err := s.accountRepo.FindAccountByID(ctx, bankAccount.GLAccountID)
	if err != nil {
		return nil, err
	}
	bankAccount.CurrentBalance = bankAccount.OpeningBalance.Add(glAccount.Balance)
	return bankAccount, nil
}

func (s *bankAccountService) GetBankAccountByID(ctx context.Context, organizationID string, bankAccountID string, userID string) (*domain.BankAccount, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.findOrgBankAccount(ctx, organizationID, bankAccountID)
}

func (s *bankAccountService) ListBankAccounts(ctx context.Context, organizationID string, userID string) ([]domain.BankAccount, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	bankAccounts, err := s.bankRepo.ListBankAccounts(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for i := range bankAccounts {
		glAccount, err := s.accountRepo.FindAccountByID(ctx, bankAccounts[i].GLAccountID)
		if err != nil {
			return nil, err
		}
		bankAccounts[i].CurrentBalance = bankAccounts[i].OpeningBalance.Add(glAccount.Balance)
	}
	return bankAccounts, nil
}

func (s *bankAccountService) ImportBankTransactions(ctx context.Context, organizationID string, bankAccountID string, req dto.ImportBankTransactionsRequest, userID string) (*dto.ImportBankTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}
	if _, err := s.findOrgBankAccount(ctx, organizationID, bankAccountID); err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]domain.BankTransaction, 0, len(req.Transactions))
	for i, feedRow := range req.Transactions {
		if feedRow.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: feed row %d amount must be positive", apperrors.ErrValidation, i)
		}
		rows = append(rows, domain.BankTransaction{
			BankTransactionID: uuid.NewString(),
			BankAccountID:     bankAccountID,
			TransactionDate:   feedRow.Date,
			Amount:            feedRow.Amount,
			Direction:         feedRow.Direction,
			Description:       feedRow.Description,
			Reference:         feedRow.Reference,
			Payee:             feedRow.Payee,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
	}

	inserted, err := s.bankRepo.SaveBankTransactions(ctx, rows)
	if err != nil {
		logger.Error("failed to import bank transactions", "error", err, "bankAccountID", bankAccountID)
		return nil, err
	}

	logger.Info("bank transactions imported", "bankAccountID", bankAccountID, "imported", inserted, "skipped", len(rows)-inserted)
	return &dto.ImportBankTransactionsResponse{
		Imported: inserted,
		Skipped:  len(rows) - inserted,
	}, nil
}
