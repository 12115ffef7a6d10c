package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/middleware"
)

// arapHandler handles HTTP requests for invoices, payments and aging.
type arapHandler struct {
	arapService portssvc.ARAPSvcFacade
}

func newARAPHandler(arapService portssvc.ARAPSvcFacade) *arapHandler {
	return &arapHandler{arapService: arapService}
}

func (h *arapHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	invoice, err := h.arapService.CreateInvoice(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create invoice")
		return
	}

	logger.Info("Invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("invoice_number", invoice.InvoiceNumber))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice))
}

func (h *arapHandler) getInvoice(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	invoiceID := c.Param("invoiceID")

	invoice, err := h.arapService.GetInvoiceByID(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		respondError(c, err, "Failed to retrieve invoice")
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *arapHandler) listInvoices(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	counterpartyID := c.Query("counterpartyID")
	if counterpartyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counterpartyID query parameter is required"})
		return
	}

	invoices, err := h.arapService.ListInvoicesByCounterparty(c.Request.Context(), tenantID, counterpartyID)
	if err != nil {
		respondError(c, err, "Failed to list invoices")
		return
	}

	responses := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = dto.ToInvoiceResponse(&invoices[i])
	}
	c.JSON(http.StatusOK, gin.H{"invoices": responses})
}

func (h *arapHandler) voidInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	invoiceID := c.Param("invoiceID")

	if err := h.arapService.VoidInvoice(c.Request.Context(), tenantID, invoiceID, actorID); err != nil {
		respondError(c, err, "Failed to void invoice")
		return
	}

	logger.Info("Invoice voided", slog.String("invoice_id", invoiceID))
	c.Status(http.StatusNoContent)
}

func (h *arapHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for RecordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	payment, err := h.arapService.RecordPayment(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}

	logger.Info("Payment recorded", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

func (h *arapHandler) getPayment(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	paymentID := c.Param("paymentID")

	payment, err := h.arapService.GetPaymentByID(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *arapHandler) applyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ApplyPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	paymentID := c.Param("paymentID")

	invoice, err := h.arapService.ApplyPayment(c.Request.Context(), tenantID, paymentID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to apply payment")
		return
	}

	logger.Info("Payment applied",
		slog.String("payment_id", paymentID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("invoice_status", string(invoice.Status)))
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice))
}

func (h *arapHandler) agingReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AgingReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for AgingReport", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	report, err := h.arapService.GenerateAgingReport(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err, "Failed to generate aging report")
		return
	}

	c.JSON(http.StatusOK, dto.ToAgingReportResponse(report))
}

// registerARAPRoutes registers invoice and payment specific routes
func registerARAPRoutes(group *gin.RouterGroup, arapService portssvc.ARAPSvcFacade) {
	handler := newARAPHandler(arapService)

	invoices := group.Group("/invoices")
	{
		invoices.POST("", handler.createInvoice)
		invoices.GET("", handler.listInvoices)
		invoices.GET("/:invoiceID", handler.getInvoice)
		invoices.POST("/:invoiceID/void", handler.voidInvoice)
	}
	payments := group.Group("/payments")
	{
		payments.POST("", handler.recordPayment)
		payments.GET("/:paymentID", handler.getPayment)
		payments.POST("/:paymentID/apply", handler.applyPayment)
	}
	group.POST("/reports/aging", handler.agingReport)
}
