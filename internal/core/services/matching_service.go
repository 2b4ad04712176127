package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/middleware"
)

// Scoring weights. A pair only becomes a candidate on an exact amount and
// direction match; the remaining points reward date proximity and textual
// agreement.
const (
	matchBaseScore      = 60
	matchDateScore      = 25
	matchReferenceScore = 15
	matchDateWindowDays = 7

	// DefaultAutoMatchConfidence is the threshold AutoApply uses when the
	// caller does not supply one.
	DefaultAutoMatchConfidence = 80
)

// matchingService pairs uncleared book-side entries with uncleared bank-side
// feed rows. Suggestions are recomputed on demand and never stored.
type matchingService struct {
	reconRepo portsrepo.ReconciliationRepositoryWithTx
	reconSvc  portssvc.ReconciliationSvcFacade
	orgSvc    portssvc.OrganizationAuthorizerSvc
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(reconRepo portsrepo.ReconciliationRepositoryWithTx, reconSvc portssvc.ReconciliationSvcFacade, orgSvc portssvc.OrganizationAuthorizerSvc) portssvc.MatchingSvcFacade {
	return &matchingService{
		reconRepo: reconRepo,
		reconSvc:  reconSvc,
		orgSvc:    orgSvc,
	}
}

var _ portssvc.MatchingSvcFacade = (*matchingService)(nil)

// dateProximityScore awards matchDateScore for same-day pairs, decaying
// linearly to zero at matchDateWindowDays apart.
func dateProximityScore(a, b time.Time) int {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	days := int(gap.Hours() / 24)
	if days >= matchDateWindowDays {
		return 0
	}
	return matchDateScore * (matchDateWindowDays - days) / matchDateWindowDays
}

// textAgrees reports whether the bank row's reference or payee appears in the
// entry's description or reference text (case-insensitive substring).
func textAgrees(entry, bankRow domain.ClearableItem) bool {
	entryText := strings.ToLower(entry.Description + " " + entry.Reference)
	for _, needle := range []string{bankRow.Reference, bankRow.Payee} {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle != "" && strings.Contains(entryText, needle) {
			return true
		}
	}
	return false
}

// scorePair scores one entry/bank-row candidate. Returns 0 when the pair is
// not a candidate at all.
func scorePair(entry, bankRow domain.ClearableItem) (int, string) {
	if !entry.Amount.Equal(bankRow.Amount) || entry.Direction != bankRow.Direction {
		return 0, ""
	}
	score := matchBaseScore
	reasons := []string{"amount and direction match"}
	if dateScore := dateProximityScore(entry.Date, bankRow.Date); dateScore > 0 {
		score += dateScore
		reasons = append(reasons, "dates are close")
	}
	if textAgrees(entry, bankRow) {
		score += matchReferenceScore
		reasons = append(reasons, "reference text agrees")
	}
	return score, strings.Join(reasons, "; ")
}

type scoredPair struct {
	suggestion domain.MatchSuggestion
	entryDate  time.Time
}

// suggestFor computes the greedy assignment over the session's uncleared
// items: candidates sorted by descending confidence, each side used at most
// once, first match wins.
func (s *matchingService) suggestFor(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.MatchSuggestion, *domain.Reconciliation, error) {
	session, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, nil, err
	}
	if session.OrganizationID != organizationID {
		return nil, nil, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrNotFound)
	}
	if session.Status == domain.ReconciliationFinalized {
		return nil, nil, fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
	}

	items, err := s.reconSvc.ListClearableItems(ctx, organizationID, reconciliationID, userID)
	if err != nil {
		return nil, nil, err
	}

	var entries, bankRows []domain.ClearableItem
	for _, item := range items {
		if item.IsCleared {
			continue
		}
		if item.ItemType == domain.ItemTypeEntry {
			entries = append(entries, item)
		} else {
			bankRows = append(bankRows, item)
		}
	}

	candidates := make([]scoredPair, 0)
	for _, entry := range entries {
		for _, bankRow := range bankRows {
			score, reason := scorePair(entry, bankRow)
			if score == 0 {
				continue
			}
			candidates = append(candidates, scoredPair{
				suggestion: domain.MatchSuggestion{
					EntryID:           entry.ItemID,
					BankTransactionID: bankRow.ItemID,
					Confidence:        score,
					Reason:            reason,
				},
				entryDate: entry.Date,
			})
		}
	}

	// Deterministic order: confidence descending, then oldest entry first,
	// then ids as the final tiebreak.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.suggestion.Confidence != b.suggestion.Confidence {
			return a.suggestion.Confidence > b.suggestion.Confidence
		}
		if !a.entryDate.Equal(b.entryDate) {
			return a.entryDate.Before(b.entryDate)
		}
		if a.suggestion.EntryID != b.suggestion.EntryID {
			return a.suggestion.EntryID < b.suggestion.EntryID
		}
		return a.suggestion.BankTransactionID < b.suggestion.BankTransactionID
	})

	usedEntries := make(map[string]struct{}, len(entries))
	usedBankRows := make(map[string]struct{}, len(bankRows))
	suggestions := make([]domain.MatchSuggestion, 0, len(candidates))
	for _, candidate := range candidates {
		if _, taken := usedEntries[candidate.suggestion.EntryID]; taken {
			continue
		}
		if _, taken := usedBankRows[candidate.suggestion.BankTransactionID]; taken {
			continue
		}
		usedEntries[candidate.suggestion.EntryID] = struct{}{}
		usedBankRows[candidate.suggestion.BankTransactionID] = struct{}{}
		suggestions = append(suggestions, candidate.suggestion)
	}
	return suggestions, session, nil
}

func (s *matchingService) Suggest(ctx context.Context, organizationID string, reconciliationID string, userID string) ([]domain.MatchSuggestion, error) {
	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	suggestions, _, err := s.suggestFor(ctx, organizationID, reconciliationID, userID)
	return suggestions, err
}

func (s *matchingService) AutoApply(ctx context.Context, organizationID string, reconciliationID string, minConfidence int, userID string) ([]domain.MatchSuggestion, domain.Gap, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.orgSvc.AuthorizeUserAction(ctx, userID, organizationID, domain.RoleMember); err != nil {
		return nil, domain.Gap{}, err
	}
	if minConfidence <= 0 {
		minConfidence = DefaultAutoMatchConfidence
	}

	suggestions, session, err := s.suggestFor(ctx, organizationID, reconciliationID, userID)
	if err != nil {
		return nil, domain.Gap{}, err
	}

	applied := make([]domain.MatchSuggestion, 0, len(suggestions))
	for _, suggestion := range suggestions {
		if suggestion.Confidence >= minConfidence {
			applied = append(applied, suggestion)
		}
	}

	if len(applied) > 0 {
		err := applyClearedSets(ctx, s.reconRepo, session, userID, func(entryIDs, bankTxnIDs []string) ([]string, []string) {
			for _, suggestion := range applied {
				entryIDs = toggleIDSet(entryIDs, suggestion.EntryID, true)
				bankTxnIDs = toggleIDSet(bankTxnIDs, suggestion.BankTransactionID, true)
			}
			return entryIDs, bankTxnIDs
		})
		if err != nil {
			logger.Error("failed to apply match suggestions", "error", err, "reconciliationID", reconciliationID)
			return nil, domain.Gap{}, err
		}
		logger.Info("auto-match applied", "reconciliationID", reconciliationID, "pairs", len(applied), "minConfidence", minConfidence)
	}

	gap, err := s.reconSvc.ComputeSessionGap(ctx, organizationID, reconciliationID, userID)
	if err != nil {
		return nil, domain.Gap{}, err
	}
	return applied, gap, nil
}
