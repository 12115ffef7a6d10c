package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/middleware"
)

// accountHandler handles HTTP requests for the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerReaderSvc
}

func newAccountHandler(accountService portssvc.AccountSvcFacade, ledgerService portssvc.LedgerReaderSvc) *accountHandler {
	return &accountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	accountID := c.Param("accountID")

	account, err := h.accountService.GetAccountByID(c.Request.Context(), tenantID, accountID)
	if err != nil {
		respondError(c, err, "Failed to retrieve account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list accounts")
		return
	}

	responses := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = dto.ToAccountResponse(&accounts[i])
	}
	c.JSON(http.StatusOK, gin.H{"accounts": responses})
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	accountID := c.Param("accountID")

	if err := h.accountService.DeactivateAccount(c.Request.Context(), tenantID, accountID, actorID); err != nil {
		respondError(c, err, "Failed to deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}

// getAccountBalance derives the balance from posted lines as of a date
// (defaults to now).
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	accountID := c.Param("accountID")

	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected RFC3339"})
			return
		}
		asOf = parsed
	}

	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), tenantID, accountID, asOf)
	if err != nil {
		respondError(c, err, "Failed to derive account balance")
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountID: accountID,
		AsOfDate:  asOf,
		Balance:   balance.String(),
	})
}

// registerAccountRoutes registers chart-of-accounts specific routes
func registerAccountRoutes(group *gin.RouterGroup, accountService portssvc.AccountSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	handler := newAccountHandler(accountService, ledgerService)

	accounts := group.Group("/accounts")
	{
		accounts.POST("", handler.createAccount)
		accounts.GET("", handler.listAccounts)
		accounts.GET("/:accountID", handler.getAccount)
		accounts.DELETE("/:accountID", handler.deactivateAccount)
		accounts.GET("/:accountID/balance", handler.getAccountBalance)
	}
}
