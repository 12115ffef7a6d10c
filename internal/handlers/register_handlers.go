package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corefin/ledgercore/internal/apperrors"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/middleware"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	registerCustomValidations()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	v1 := r.Group("/api/v1", middleware.IdentityMiddleware())

	registerAccountRoutes(v1, services.Account, services.Ledger)
	registerEntryRoutes(v1, services.Ledger)
	registerPeriodRoutes(v1, services.Period)
	registerTaxRoutes(v1, services.Tax, services.Currency)
	registerCurrencyRoutes(v1, services.Currency)
	registerARAPRoutes(v1, services.ARAP)
}

// requireIdentity extracts the tenant and actor from the request context or
// aborts with 401. Every /api/v1 command needs both for audit attribution.
func requireIdentity(c *gin.Context) (tenantID, actorID string, ok bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, ok = middleware.GetTenantIDFromContext(c)
	if !ok {
		logger.Warn("Tenant ID missing from request context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing tenant identity"})
		return "", "", false
	}
	actorID, ok = middleware.GetActorIDFromContext(c)
	if !ok {
		logger.Warn("Actor ID missing from request context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing actor identity"})
		return "", "", false
	}
	return tenantID, actorID, true
}

// respondError maps service errors onto HTTP statuses. Sentinel kinds keep
// their wrapped message; anything unknown becomes an opaque 500.
func respondError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrEmptyEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnbalancedEntry),
		errors.Is(err, apperrors.ErrPeriodClosed),
		errors.Is(err, apperrors.ErrPriorPeriodOpen),
		errors.Is(err, apperrors.ErrUnbalancedPeriod),
		errors.Is(err, apperrors.ErrNoEffectiveRate),
		errors.Is(err, apperrors.ErrNoExchangeRate),
		errors.Is(err, apperrors.ErrOverApplication),
		errors.Is(err, apperrors.ErrInvoiceVoided):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
