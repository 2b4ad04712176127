package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// transactionHandler handles HTTP requests for the posting engine.
type transactionHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newTransactionHandler(ls portssvc.LedgerSvcFacade) *transactionHandler {
	return &transactionHandler{ledgerService: ls}
}

// registerTransactionRoutes registers routes related to transactions, nested
// under a specific organization.
func registerTransactionRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newTransactionHandler(ledgerService)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.postTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transaction_id", h.getTransaction)
		transactions.PUT("/:transaction_id", h.updateDraft)
		transactions.POST("/:transaction_id/post", h.postDraft)
		transactions.DELETE("/:transaction_id", h.deleteDraft)
		transactions.POST("/:transaction_id/reverse", h.reverseTransaction)
	}
}

// postTransaction godoc
// @Summary Post a transaction
// @Description Validates and commits a balanced set of debit/credit lines, either directly POSTED or as an editable DRAFT
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input or unbalanced entries"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions [post]
func (h *transactionHandler) postTransaction(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.PostTransaction(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post transaction")
		return
	}

	logger.Info("Transaction saved", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves a paginated list of transactions, newest first
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Pagination token from a previous page"
// @Param   includeReversals query bool false "Include reversal transactions" default(false)
// @Param   includeEntries query bool false "Include entry lines" default(false)
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), organizationID, userID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Description Retrieves a transaction with its entry lines
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{transaction_id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	transactionID := c.Param("transaction_id")

	txn, err := h.ledgerService.GetTransactionByID(c.Request.Context(), organizationID, transactionID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// updateDraft godoc
// @Summary Update a draft transaction
// @Description Replaces a draft's line items wholesale; posted transactions are immutable
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction_id path string true "Transaction ID"
// @Param   transaction body dto.UpdateDraftRequest true "Draft details"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not a draft"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{transaction_id} [put]
func (h *transactionHandler) updateDraft(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	transactionID := c.Param("transaction_id")

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.UpdateDraft(c.Request.Context(), organizationID, transactionID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to update draft")
		return
	}

	logger.Info("Draft updated", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// postDraft godoc
// @Summary Post a draft transaction
// @Description Revalidates the draft's entries and balance, then posts it
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Unbalanced entries"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not a draft"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{transaction_id}/post [post]
func (h *transactionHandler) postDraft(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	transactionID := c.Param("transaction_id")

	txn, err := h.ledgerService.PostDraft(c.Request.Context(), organizationID, transactionID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post draft")
		return
	}

	logger.Info("Draft posted", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// deleteDraft godoc
// @Summary Delete a draft transaction
// @Description Removes a draft; posted transactions can only be reversed
// @Tags transactions
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not a draft"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{transaction_id} [delete]
func (h *transactionHandler) deleteDraft(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	transactionID := c.Param("transaction_id")

	if err := h.ledgerService.DeleteDraft(c.Request.Context(), organizationID, transactionID, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to delete draft")
		return
	}

	logger.Info("Draft deleted", slog.String("transaction_id", transactionID))
	c.Status(http.StatusNoContent)
}

// reverseTransaction godoc
// @Summary Reverse a posted transaction
// @Description Posts an offsetting transaction and marks the original VOIDED; the original is never altered
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   transaction_id path string true "Transaction ID"
// @Param   reversal body dto.ReverseTransactionRequest true "Reversal reason"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input or draft cannot be reversed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already voided"
// @Security BearerAuth
// @Router /organizations/{organization_id}/transactions/{transaction_id}/reverse [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	transactionID := c.Param("transaction_id")

	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reversal, err := h.ledgerService.ReverseTransaction(c.Request.Context(), organizationID, transactionID, req.Reason, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reverse transaction")
		return
	}

	logger.Info("Transaction reversed",
		slog.String("original_transaction_id", transactionID),
		slog.String("reversal_transaction_id", reversal.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(reversal))
}
