package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kitabuhq/kitabu_backend/internal/core/ports/services"
	"github.com/kitabuhq/kitabu_backend/internal/dto"
	"github.com/kitabuhq/kitabu_backend/internal/middleware"
)

// organizationHandler handles HTTP requests related to organizations.
type organizationHandler struct {
	organizationService portssvc.OrganizationSvcFacade
}

func newOrganizationHandler(os portssvc.OrganizationSvcFacade) *organizationHandler {
	return &organizationHandler{organizationService: os}
}

// registerOrganizationRoutes registers routes for organizations and nests all
// tenant-scoped resources (accounts, transactions, bank accounts,
// reconciliations) under a specific organization.
func registerOrganizationRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newOrganizationHandler(services.Organization)

	organizationsTopLevel := rg.Group("/organizations")
	{
		organizationsTopLevel.POST("", h.createOrganization)
		organizationsTopLevel.GET("", h.listUserOrganizations)
	}

	organizationSpecific := rg.Group("/organizations/:organization_id")
	{
		organizationSpecific.GET("", h.getOrganization)

		members := organizationSpecific.Group("/members")
		{
			members.POST("", h.addMember)
		}

		registerAccountRoutes(organizationSpecific, services.Account, services.Ledger)
		registerTransactionRoutes(organizationSpecific, services.Ledger)
		registerBankAccountRoutes(organizationSpecific, services.BankAccount, services.Reconciliation)
		registerReconciliationRoutes(organizationSpecific, services.Reconciliation, services.Matching)
	}
}

// createOrganization godoc
// @Summary Create a new organization
// @Description Creates an organization and assigns the creator as OWNER
// @Tags organizations
// @Accept  json
// @Produce  json
// @Param   organization body dto.CreateOrganizationRequest true "Organization details"
// @Success 201 {object} dto.OrganizationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create organization"
// @Security BearerAuth
// @Router /organizations [post]
func (h *organizationHandler) createOrganization(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateOrganization", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	org, err := h.organizationService.CreateOrganization(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create organization")
		return
	}

	logger.Info("Organization created", slog.String("organization_id", org.OrganizationID))
	c.JSON(http.StatusCreated, dto.ToOrganizationResponse(org))
}

// listUserOrganizations godoc
// @Summary List the caller's organizations
// @Tags organizations
// @Produce  json
// @Success 200 {array} dto.OrganizationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /organizations [get]
func (h *organizationHandler) listUserOrganizations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orgs, err := h.organizationService.ListUserOrganizations(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list organizations")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationResponses(orgs))
}

// getOrganization godoc
// @Summary Get an organization
// @Tags organizations
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Success 200 {object} dto.OrganizationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Organization not found"
// @Security BearerAuth
// @Router /organizations/{organization_id} [get]
func (h *organizationHandler) getOrganization(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	org, err := h.organizationService.GetOrganizationByID(c.Request.Context(), organizationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve organization")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationResponse(org))
}

// addMember godoc
// @Summary Add a member to an organization
// @Description Adds an existing user to the organization with the given role. Requires ADMIN; minting an OWNER requires OWNER.
// @Tags organizations
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   member body dto.AddMemberRequest true "Member details"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Organization or user not found"
// @Failure 409 {object} map[string]string "User already a member"
// @Security BearerAuth
// @Router /organizations/{organization_id}/members [post]
func (h *organizationHandler) addMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	organizationID := c.Param("organization_id")

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddMember", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.organizationService.AddMember(c.Request.Context(), organizationID, req, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to add member")
		return
	}

	logger.Info("Member added to organization", slog.String("organization_id", organizationID), slog.String("member_user_id", req.UserID))
	c.Status(http.StatusNoContent)
}
