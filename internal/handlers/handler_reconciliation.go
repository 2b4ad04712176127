package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/core/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// reconciliationHandler handles HTTP requests for reconciliation sessions.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
	matchingService       portssvc.MatchingSvcFacade
}

func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade, ms portssvc.MatchingSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
		matchingService:       ms,
	}
}

// registerReconciliationRoutes registers routes related to reconciliation
// sessions, nested under a specific organization.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade, matchingService portssvc.MatchingSvcFacade) {
	h := newReconciliationHandler(reconciliationService, matchingService)

	reconciliations := rg.Group("/reconciliations")
	{
		reconciliations.POST("", h.startSession)
		reconciliations.GET("/:reconciliation_id", h.getSession)
		reconciliations.GET("/:reconciliation_id/items", h.listItems)
		reconciliations.POST("/:reconciliation_id/toggle", h.toggleClear)
		reconciliations.POST("/:reconciliation_id/finalize", h.finalize)
		reconciliations.GET("/:reconciliation_id/suggestions", h.listSuggestions)
		reconciliations.POST("/:reconciliation_id/auto-match", h.autoMatch)
		reconciliations.POST("/:reconciliation_id/adjustments", h.postAdjustment)
	}
}

// startSession godoc
// @Summary Start a reconciliation session
// @Description Opens a session for a bank account and statement period; only one session may be open per bank account
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   session body dto.StartReconciliationRequest true "Session details"
// @Success 201 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 409 {object} map[string]string "A session is already open for the bank account"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations [post]
func (h *reconciliationHandler) startSession(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.StartReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for StartReconciliation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	session, err := h.reconciliationService.StartSession(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to start reconciliation")
		return
	}

	logger.Info("Reconciliation session started",
		slog.String("reconciliation_id", session.ReconciliationID),
		slog.String("bank_account_id", session.BankAccountID))

	view, err := h.reconciliationService.GetSessionView(c.Request.Context(), organizationID, session.ReconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to load reconciliation view")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// getSession godoc
// @Summary Get a reconciliation session
// @Description Returns the session header, the live clearable item projection and the recomputed gap
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id} [get]
func (h *reconciliationHandler) getSession(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	view, err := h.reconciliationService.GetSessionView(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve reconciliation")
		return
	}

	c.JSON(http.StatusOK, view)
}

// listItems godoc
// @Summary List the session's clearable items
// @Description Returns the book-side and bank-side items available to clear in this session
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 200 {array} dto.ClearableItemResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/items [get]
func (h *reconciliationHandler) listItems(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	items, err := h.reconciliationService.ListClearableItems(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list clearable items")
		return
	}

	c.JSON(http.StatusOK, dto.ToClearableItemResponses(items))
}

// toggleClear godoc
// @Summary Toggle an item's cleared state
// @Description Idempotently marks or unmarks one item as cleared and returns the recomputed gap
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Param   toggle body dto.ToggleClearRequest true "Item to toggle"
// @Success 200 {object} dto.GapResponse
// @Failure 400 {object} map[string]string "Invalid input or item after statement date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session or item not found"
// @Failure 409 {object} map[string]string "Item locked or session finalized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/toggle [post]
func (h *reconciliationHandler) toggleClear(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	var req dto.ToggleClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ToggleClear", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	gap, err := h.reconciliationService.ToggleClear(c.Request.Context(), organizationID, reconciliationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to toggle item")
		return
	}

	c.JSON(http.StatusOK, dto.ToGapResponse(gap))
}

// finalize godoc
// @Summary Finalize a reconciliation session
// @Description Recomputes the gap server-side and locks the session when the difference is zero; cleared items become permanently locked
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session already finalized"
// @Failure 422 {object} map[string]string "Difference is not zero"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/finalize [post]
func (h *reconciliationHandler) finalize(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	session, err := h.reconciliationService.Finalize(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to finalize reconciliation")
		return
	}

	logger.Info("Reconciliation finalized", slog.String("reconciliation_id", session.ReconciliationID))

	view, err := h.reconciliationService.GetSessionView(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to load reconciliation view")
		return
	}
	c.JSON(http.StatusOK, view)
}

// listSuggestions godoc
// @Summary Suggest matches between book and bank items
// @Description Scores candidate pairings of uncleared book entries and bank rows; suggestions are ephemeral and never persisted
// @Tags reconciliations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Success 200 {object} dto.ListSuggestionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session finalized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/suggestions [get]
func (h *reconciliationHandler) listSuggestions(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	suggestions, err := h.matchingService.Suggest(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to compute match suggestions")
		return
	}

	c.JSON(http.StatusOK, dto.ListSuggestionsResponse{Suggestions: dto.ToMatchSuggestionResponses(suggestions)})
}

// autoMatch godoc
// @Summary Auto-apply high-confidence matches
// @Description Clears the suggested pairs at or above the confidence threshold, first-match-wins by descending confidence
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Param   options body dto.AutoMatchRequest false "Auto-match options"
// @Success 200 {object} dto.AutoMatchResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session finalized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/auto-match [post]
func (h *reconciliationHandler) autoMatch(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	// The options body is optional.
	var req dto.AutoMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for AutoMatch", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	minConfidence := services.DefaultAutoMatchConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}

	applied, gap, err := h.matchingService.AutoApply(c.Request.Context(), organizationID, reconciliationID, minConfidence, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to auto-match")
		return
	}

	logger.Info("Auto-match applied",
		slog.String("reconciliation_id", reconciliationID),
		slog.Int("pairs", len(applied)))
	c.JSON(http.StatusOK, dto.AutoMatchResponse{
		Applied: dto.ToMatchSuggestionResponses(applied),
		Gap:     dto.ToGapResponse(gap),
	})
}

// postAdjustment godoc
// @Summary Post a reconciliation adjustment
// @Description Creates a two-line transaction for a statement-only item (bank fee, interest) and clears the resulting book entry in the session
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   reconciliation_id path string true "Reconciliation ID"
// @Param   adjustment body dto.PostAdjustmentRequest true "Adjustment details"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 400 {object} map[string]string "Invalid input or date after statement date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session or counter account not found"
// @Failure 409 {object} map[string]string "Session finalized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/reconciliations/{reconciliation_id}/adjustments [post]
func (h *reconciliationHandler) postAdjustment(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	reconciliationID := c.Param("reconciliation_id")

	var req dto.PostAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostAdjustment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, gap, err := h.reconciliationService.PostAdjustment(c.Request.Context(), organizationID, reconciliationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post adjustment")
		return
	}

	logger.Info("Adjustment posted",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.AdjustmentResponse{
		Transaction: dto.ToTransactionResponse(txn),
		Gap:         dto.ToGapResponse(gap),
	})
}
