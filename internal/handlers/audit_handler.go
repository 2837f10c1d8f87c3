package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kasa/internal/errors"
	"kasa/internal/models"
	"kasa/internal/pagination"
	"kasa/internal/services"
)

// AuditHandler exposes the audit trail. Routes using it are gated to
// admins at registration time.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ExportLogRequest carries the parameters of an export performed by the
// caller, recorded for the audit trail.
type ExportLogRequest struct {
	Format string         `json:"format" binding:"required,max=20"`
	Params map[string]any `json:"params"`
}

// RecordExport logs an export event
// @Summary     Record an export
// @Description Record that the caller exported transaction data, with the export parameters as audit metadata
// @Tags        audit-logs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExportLogRequest true "Export parameters"
// @Success     201 {object} MessageResponse "Export recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /export-log [post]
func (h *AuditHandler) RecordExport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExportLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	metadata := map[string]any{"format": req.Format}
	for k, v := range req.Params {
		metadata[k] = v
	}
	h.auditService.Log(&userID, models.AuditActionExport, "transaction", "batch", metadata)

	c.JSON(http.StatusCreated, gin.H{"message": "Export recorded"})
}

// ListAuditLogs handles the retrieval of audit log entries
// @Summary     List audit logs
// @Description Get a paginated list of audit log entries, newest first. Admin only.
// @Tags        audit-logs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit log entries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.List(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
