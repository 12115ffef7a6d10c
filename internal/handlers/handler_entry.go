package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/middleware"
)

// entryHandler handles HTTP requests for journal entries.
type entryHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newEntryHandler(ledgerService portssvc.LedgerSvcFacade) *entryHandler {
	return &entryHandler{ledgerService: ledgerService}
}

func (h *entryHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.CreateDraftEntry(c.Request.Context(), tenantID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create journal entry")
		return
	}

	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *entryHandler) getEntry(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("entryID")

	entry, err := h.ledgerService.GetEntryByID(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondError(c, err, "Failed to retrieve journal entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) listEntries(c *gin.Context) {
	tenantID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.ledgerService.ListEntries(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list journal entries")
		return
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i])
	}
	c.JSON(http.StatusOK, gin.H{"entries": responses})
}

func (h *entryHandler) updateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for UpdateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("entryID")

	entry, err := h.ledgerService.UpdateDraftEntry(c.Request.Context(), tenantID, entryID, req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update journal entry")
		return
	}

	logger.Info("Draft entry updated", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("entryID")

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), tenantID, entryID, actorID)
	if err != nil {
		respondError(c, err, "Failed to post journal entry")
		return
	}

	logger.Info("Entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.Int64("sequence_number", entry.SequenceNumber))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *entryHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	tenantID, actorID, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("entryID")

	reversal, err := h.ledgerService.ReverseEntry(c.Request.Context(), tenantID, entryID, req.Reason, actorID)
	if err != nil {
		respondError(c, err, "Failed to reverse journal entry")
		return
	}

	logger.Info("Entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// registerEntryRoutes registers journal entry specific routes
func registerEntryRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	handler := newEntryHandler(ledgerService)

	entries := group.Group("/entries")
	{
		entries.POST("", handler.createEntry)
		entries.GET("", handler.listEntries)
		entries.GET("/:entryID", handler.getEntry)
		entries.PUT("/:entryID", handler.updateEntry)
		entries.POST("/:entryID/post", handler.postEntry)
		entries.POST("/:entryID/reverse", handler.reverseEntry)
	}
}
