package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/middleware"
)

// periodHandler handles HTTP requests for the fiscal period lifecycle.
type periodHandler struct {
	periodService portssvc.FiscalPeriodSvcFacade
}

func newPeriodHandler(periodService portssvc.FiscalPeriodSvcFacade) *periodHandler {
	return &periodHandler{periodService: periodService}
}

func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreatePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create fiscal period")
		return
	}

	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

func (h *periodHandler) getPeriod(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	periodID := c.Param("periodID")

	period, err := h.periodService.GetPeriodByID(c.Request.Context(), tenantID, periodID)
	if err != nil {
		respondError(c, err, "Failed to retrieve fiscal period")
		return
	}

	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	periodID := c.Param("periodID")

	if err := h.periodService.ClosePeriod(c.Request.Context(), tenantID, periodID, actorID); err != nil {
		respondError(c, err, "Failed to close fiscal period")
		return
	}

	logger.Info("Period closed", slog.String("period_id", periodID))
	c.Status(http.StatusNoContent)
}

func (h *periodHandler) processYearEnd(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.YearEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ProcessYearEnd", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	closingEntry, err := h.periodService.ProcessYearEnd(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to process year end")
		return
	}
	if closingEntry == nil {
		// A dormant year has no revenue or expense activity to close out;
		// the final period is closed without posting an entry.
		logger.Info("Year end processed without closing entry", slog.Int("fiscal_year", req.FiscalYear))
		c.Status(http.StatusNoContent)
		return
	}

	logger.Info("Year end processed",
		slog.Int("fiscal_year", req.FiscalYear),
		slog.String("closing_entry_id", closingEntry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(closingEntry))
}

// registerPeriodRoutes registers fiscal period specific routes
func registerPeriodRoutes(group *gin.RouterGroup, periodService portssvc.FiscalPeriodSvcFacade) {
	handler := newPeriodHandler(periodService)

	periods := group.Group("/periods")
	{
		periods.POST("", handler.createPeriod)
		periods.GET("/:periodID", handler.getPeriod)
		periods.POST("/:periodID/close", handler.closePeriod)
	}
	group.POST("/year-end", handler.processYearEnd)
}
