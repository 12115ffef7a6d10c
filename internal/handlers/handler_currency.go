package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/middleware"
)

// currencyHandler handles HTTP requests for currencies, rates and conversion.
type currencyHandler struct {
	currencyService portssvc.CurrencySvcFacade
}

func newCurrencyHandler(currencyService portssvc.CurrencySvcFacade) *currencyHandler {
	return &currencyHandler{currencyService: currencyService}
}

func (h *currencyHandler) createCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	_, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create currency")
		return
	}

	c.JSON(http.StatusCreated, dto.ToCurrencyResponse(currency))
}

func (h *currencyHandler) getCurrency(c *gin.Context) {
	code := c.Param("currencyCode")

	currency, err := h.currencyService.GetCurrencyByCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "Failed to retrieve currency")
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}

func (h *currencyHandler) createExchangeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateExchangeRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	_, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	rate, err := h.currencyService.CreateExchangeRate(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create exchange rate")
		return
	}

	c.JSON(http.StatusCreated, rate)
}

// convert parses the amount at the source currency's scale, converts at the
// effective rate and returns the amount at the target currency's scale.
func (h *currencyHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	from, err := h.currencyService.GetCurrencyByCode(c.Request.Context(), req.FromCurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("currency %s is not registered", req.FromCurrencyCode)})
			return
		}
		respondError(c, err, "Failed to resolve source currency")
		return
	}

	amount, err := domain.ParseMoney(req.Amount, from.DecimalPlaces)
	if err != nil {
		respondError(c, err, "Failed to parse amount")
		return
	}

	converted, err := h.currencyService.Convert(c.Request.Context(), amount, req.FromCurrencyCode, req.ToCurrencyCode, req.AsOfDate)
	if err != nil {
		respondError(c, err, "Failed to convert amount")
		return
	}

	c.JSON(http.StatusOK, dto.ConvertResponse{
		Amount:           amount.String(),
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Converted:        converted.String(),
		AsOfDate:         req.AsOfDate,
	})
}

func (h *currencyHandler) revalueAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RevalueAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for RevalueAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	accountID := c.Param("accountID")

	entry, err := h.currencyService.RevalueAccount(c.Request.Context(), tenantID, accountID,
		req.GainLossAccountID, req.OldRate, req.NewRate, req.AsOfDate, actorID)
	if err != nil {
		respondError(c, err, "Failed to revalue account")
		return
	}
	if entry == nil {
		// Zero adjustment, nothing was posted.
		c.Status(http.StatusNoContent)
		return
	}

	logger.Info("Account revalued",
		slog.String("account_id", accountID),
		slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// registerCurrencyRoutes registers currency specific routes
func registerCurrencyRoutes(group *gin.RouterGroup, currencyService portssvc.CurrencySvcFacade) {
	handler := newCurrencyHandler(currencyService)

	currencies := group.Group("/currencies")
	{
		currencies.POST("", handler.createCurrency)
		currencies.GET("/:currencyCode", handler.getCurrency)
		currencies.POST("/convert", handler.convert)
	}
	group.POST("/exchange-rates", handler.createExchangeRate)
	group.POST("/accounts/:accountID/revalue", handler.revalueAccount)
}
