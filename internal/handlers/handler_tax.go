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

// taxHandler handles HTTP requests for tax jurisdictions, rates and calculations.
type taxHandler struct {
	taxService      portssvc.TaxSvcFacade
	currencyService portssvc.CurrencySvcFacade
}

func newTaxHandler(taxService portssvc.TaxSvcFacade, currencyService portssvc.CurrencySvcFacade) *taxHandler {
	return &taxHandler{
		taxService:      taxService,
		currencyService: currencyService,
	}
}

func (h *taxHandler) createJurisdiction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJurisdictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateJurisdiction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	_, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	jurisdiction, err := h.taxService.CreateJurisdiction(c.Request.Context(), domain.TaxJurisdiction{
		Code: req.Code,
		Name: req.Name,
	}, actorID)
	if err != nil {
		respondError(c, err, "Failed to create tax jurisdiction")
		return
	}

	c.JSON(http.StatusCreated, jurisdiction)
}

func (h *taxHandler) createRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateTaxRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	_, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	rate, err := h.taxService.CreateRate(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create tax rate")
		return
	}

	c.JSON(http.StatusCreated, rate)
}

// calculateTax resolves the taxable amount at the currency's scale before
// handing off to the calculator.
func (h *taxHandler) calculateTax(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CalculateTax", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if _, _, ok := requireIdentity(c); !ok {
		return
	}

	currency, err := h.currencyService.GetCurrencyByCode(c.Request.Context(), req.CurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("currency %s is not registered", req.CurrencyCode)})
			return
		}
		respondError(c, err, "Failed to resolve currency")
		return
	}

	taxable, err := domain.ParseMoney(req.TaxableAmount, currency.DecimalPlaces)
	if err != nil {
		respondError(c, err, "Failed to parse taxable amount")
		return
	}

	result, err := h.taxService.CalculateTax(c.Request.Context(), taxable, req.JurisdictionCodes, req.TaxType, req.AsOfDate)
	if err != nil {
		respondError(c, err, "Failed to calculate tax")
		return
	}

	c.JSON(http.StatusOK, dto.ToCalculateTaxResponse(result))
}

// registerTaxRoutes registers tax specific routes
func registerTaxRoutes(group *gin.RouterGroup, taxService portssvc.TaxSvcFacade, currencyService portssvc.CurrencySvcFacade) {
	handler := newTaxHandler(taxService, currencyService)

	tax := group.Group("/tax")
	{
		tax.POST("/jurisdictions", handler.createJurisdiction)
		tax.POST("/rates", handler.createRate)
		tax.POST("/calculate", handler.calculateTax)
	}
}
