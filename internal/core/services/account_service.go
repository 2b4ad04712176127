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
)

var (
	ErrParentTypeMismatch = fmt.Errorf("%w: parent account must have the same account type", apperrors.ErrValidation)
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", apperrors.ErrValidation)
)

// accountService manages the chart of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	orgSvc      portssvc.OrganizationAuthorizerSvc
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, orgSvc portssvc.OrganizationAuthorizerSvc) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		orgSvc:      orgSvc,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// findOrgAccount loads an account and verifies it belongs to the organization.
// Accounts of other organizations surface as ErrNotFound.
func (s *accountService) findOrgAccount(ctx context.Context, organizationID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OrganizationID != organizationID {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return account, nil
}

func (s *accountService) CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.FindAccountByCode(ctx, organizationID, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("account code %s: %w", req.Code, apperrors.ErrDuplicate)
	}

	parentAccountID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.findOrgAccount(ctx, organizationID, *req.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("parent account: %w", err)
		}
		if parent.AccountType != req.AccountType {
			return nil, fmt.Errorf("%w: parent is %s, child is %s", ErrParentTypeMismatch, parent.AccountType, req.AccountType)
		}
		parentAccountID = parent.AccountID
	}

	now := time.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		OrganizationID:  organizationID,
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		CurrencyCode:    req.CurrencyCode,
		ParentAccountID: parentAccountID,
		Description:     req.Description,
		IsActive:        true,
		Balance:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("failed to save account", "error", err, "organizationID", organizationID)
		return nil, err
	}

	logger.Info("account created", "accountID", account.AccountID, "code", account.Code, "organizationID", organizationID)
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, organizationID string, accountID string, userID string) (*domain.Account, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.findOrgAccount(ctx, organizationID, accountID)
}

func (s *accountService) GetAccountByCode(ctx context.Context, organizationID string, code string, userID string) (*domain.Account, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.accountRepo.FindAccountByCode(ctx, organizationID, code)
}

func (s *accountService) GetAccountByIDs(ctx context.Context, organizationID string, accountIDs []string, userID string) (map[string]domain.Account, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	for id, acc := range accounts {
		if acc.OrganizationID != organizationID {
			return nil, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
		}
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, organizationID string, userID string, limit int, offset int) ([]domain.Account, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.accountRepo.ListAccounts(ctx, organizationID, limit, offset)
}

func (s *accountService) GetAccountBalance(ctx context.Context, organizationID string, accountID string, userID string) (decimal.Decimal, error) {
	account, err := s.GetAccountByID(ctx, organizationID, accountID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, organizationID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	account, err := s.findOrgAccount(ctx, organizationID, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	account.LastUpdatedAt = time.Now()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("failed to update account", "error", err, "accountID", accountID)
		return nil, err
	}
	return account, nil
}

// DeactivateAccount retires an account. Accounts that never saw ledger
// activity are removed outright; anything with history is only flagged
// inactive so posted entries keep a valid reference.
func (s *accountService) DeactivateAccount(ctx context.Context, organizationID string, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleAdmin); err != nil {
		return err
	}

	account, err := s.findOrgAccount(ctx, organizationID, accountID)
	if err != nil {
		return err
	}

	hasActivity, err := s.accountRepo.HasLedgerActivity(ctx, account.AccountID)
	if err != nil {
		return err
	}
	if !hasActivity {
		logger.Info("deleting unused account", "accountID", accountID)
		return s.accountRepo.DeleteAccount(ctx, account.AccountID)
	}

	logger.Info("deactivating account with ledger history", "accountID", accountID)
	return s.accountRepo.DeactivateAccount(ctx, account.AccountID, userID, time.Now())
}
