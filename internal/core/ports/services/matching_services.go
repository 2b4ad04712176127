package services

import (
	"context"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
)

// MatchingSvcFacade proposes and applies pairings between uncleared
// book-side entries and bank-side feed rows.
type MatchingSvcFacade interface {
	// Suggest computes match suggestions for the session's uncleared items.
	// Suggestions are ephemeral and never persisted.
	Suggest(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.MatchSuggestion, error)

	// AutoApply clears the suggested pairs at or above minConfidence,
	// first-match-wins by descending confidence, each side used at most once.
	AutoApply(ctx context.Context, organizationID string, reconciliationID string, minConfidence int, userID string) ([]domain.MatchSuggestion, domain.Gap, error)
}
