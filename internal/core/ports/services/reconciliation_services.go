package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// ReconciliationSvcFacade is the session manager plus the adjustment poster.
type ReconciliationSvcFacade interface {
	// StartSession opens a reconciliation for a bank account and statement
	// period. Fails with ErrDuplicate when a session is already open for the
	// bank account.
	StartSession(ctx context.Context, organizationID string, req dto.StartReconciliationRequest, userID string) (*domain.Reconciliation, error)

	// GetSessionView returns the session header, the live clearable item
	// projection, and the recomputed gap.
	GetSessionView(ctx context.Context, organizationID string, reconciliationID string, userID string) (*dto.ReconciliationResponse, error)

	// ToggleClear idempotently adds or removes an item from the session's
	// cleared set and returns the recomputed gap.
	ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) (domain.Gap, error)

	// Finalize recomputes the gap server-side and locks the session when the
	// difference is zero within epsilon. Terminal and idempotent-unsafe:
	// re-finalization is rejected.
	Finalize(ctx context.Context, organizationID string, reconciliationID string, userID string) (*domain.Reconciliation, error)

	// PostAdjustment creates a two-line transaction for a statement-only item
	// (bank fee, interest) and clears the resulting book entry in the session.
	PostAdjustment(ctx context.Context, organizationID string, reconciliationID string, req dto.PostAdjustmentRequest, userID string) (*domain.Transaction, domain.Gap, error)

	// ListClearableItems returns the live projection of the session's book-side
	// and bank-side items.
	ListClearableItems(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.ClearableItem, error)

	// ComputeSessionGap recomputes the session's gap from the current cleared
	// sets.
	ComputeSessionGap(ctx context.Context, organizationID string, reconciliationID string, userID string) (domain.Gap, error)

	// ListSessions returns the reconciliation history of a bank account,
	// newest first.
	ListSessions(ctx context.Context, organizationID string, bankAccountID string, limit int, userID string) ([]domain.Reconciliation, error)
}
