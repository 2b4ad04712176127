package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
)

// bankAccountHandler handles HTTP requests related to bank accounts and
// their imported statement feed.
type bankAccountHandler struct {
	bankAccountService    portssvc.BankAccountSvcFacade
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newBankAccountHandler(bs portssvc.BankAccountSvcFacade, rs portssvc.ReconciliationSvcFacade) *bankAccountHandler {
	return &bankAccountHandler{
		bankAccountService:    bs,
		reconciliationService: rs,
	}
}

// registerBankAccountRoutes registers routes related to bank accounts, nested
// under a specific organization.
func registerBankAccountRoutes(rg *gin.RouterGroup, bankAccountService portssvc.BankAccountSvcFacade, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newBankAccountHandler(bankAccountService, reconciliationService)

	bankAccounts := rg.Group("/bank-accounts")
	{
		bankAccounts.POST("", h.createBankAccount)
		bankAccounts.GET("", h.listBankAccounts)
		bankAccounts.GET("/:bank_account_id", h.getBankAccount)
		bankAccounts.POST("/:bank_account_id/transactions/import", h.importBankTransactions)
		bankAccounts.GET("/:bank_account_id/reconciliations", h.listReconciliations)
	}
}

// createBankAccount godoc
// @Summary Register a bank account
// @Description Registers a bank account against an existing asset GL account
// @Tags bank-accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   bankAccount body dto.CreateBankAccountRequest true "Bank account details"
// @Success 201 {object} dto.BankAccountResponse
// @Failure 400 {object} map[string]string "Invalid input or GL account is not an asset"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "GL account not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/bank-accounts [post]
func (h *bankAccountHandler) createBankAccount(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBankAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	bankAccount, err := h.bankAccountService.CreateBankAccount(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create bank account")
		return
	}

	logger.Info("Bank account created", slog.String("bank_account_id", bankAccount.BankAccountID))
	c.JSON(http.StatusCreated, dto.ToBankAccountResponse(bankAccount))
}

// listBankAccounts godoc
// @Summary List bank accounts
// @Tags bank-accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Success 200 {array} dto.BankAccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /organizations/{organization_id}/bank-accounts [get]
func (h *bankAccountHandler) listBankAccounts(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}

	bankAccounts, err := h.bankAccountService.ListBankAccounts(c.Request.Context(), organizationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list bank accounts")
		return
	}

	responses := make([]dto.BankAccountResponse, len(bankAccounts))
	for i := range bankAccounts {
		responses[i] = dto.ToBankAccountResponse(&bankAccounts[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getBankAccount godoc
// @Summary Get a bank account by ID
// @Description Retrieves a bank account with its derived current balance
// @Tags bank-accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   bank_account_id path string true "Bank account ID"
// @Success 200 {object} dto.BankAccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/bank-accounts/{bank_account_id} [get]
func (h *bankAccountHandler) getBankAccount(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	bankAccountID := c.Param("bank_account_id")

	bankAccount, err := h.bankAccountService.GetBankAccountByID(c.Request.Context(), organizationID, bankAccountID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve bank account")
		return
	}

	c.JSON(http.StatusOK, dto.ToBankAccountResponse(bankAccount))
}

// importBankTransactions godoc
// @Summary Import bank statement rows
// @Description Bulk-inserts normalized feed rows; duplicates by (reference, date, amount, direction) are skipped
// @Tags bank-accounts
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   bank_account_id path string true "Bank account ID"
// @Param   import body dto.ImportBankTransactionsRequest true "Feed rows"
// @Success 200 {object} dto.ImportBankTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/bank-accounts/{bank_account_id}/transactions/import [post]
func (h *bankAccountHandler) importBankTransactions(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	bankAccountID := c.Param("bank_account_id")

	var req dto.ImportBankTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ImportBankTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	resp, err := h.bankAccountService.ImportBankTransactions(c.Request.Context(), organizationID, bankAccountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to import bank transactions")
		return
	}

	logger.Info("Bank transactions imported",
		slog.String("bank_account_id", bankAccountID),
		slog.Int("imported", resp.Imported),
		slog.Int("skipped", resp.Skipped))
	c.JSON(http.StatusOK, resp)
}

// listReconciliations godoc
// @Summary List reconciliation sessions for a bank account
// @Description Returns the bank account's reconciliation history, newest first
// @Tags bank-accounts
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   bank_account_id path string true "Bank account ID"
// @Param   limit query int false "Limit number of results" default(20)
// @Success 200 {array} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/bank-accounts/{bank_account_id}/reconciliations [get]
func (h *bankAccountHandler) listReconciliations(c *gin.Context) {
	logger, organizationID, userID, ok := requestContext(c)
	if !ok {
		return
	}
	bankAccountID := c.Param("bank_account_id")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	sessions, err := h.reconciliationService.ListSessions(c.Request.Context(), organizationID, bankAccountID, limit, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list reconciliations")
		return
	}

	responses := make([]dto.ReconciliationResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = dto.ReconciliationResponse{
			ReconciliationID: s.ReconciliationID,
			OrganizationID:   s.OrganizationID,
			BankAccountID:    s.BankAccountID,
			StatementDate:    s.StatementDate,
			Status:           string(s.Status),
			FinalizedAt:      s.FinalizedAt,
			FinalizedBy:      s.FinalizedBy,
		}
	}
	c.JSON(http.StatusOK, responses)
}
