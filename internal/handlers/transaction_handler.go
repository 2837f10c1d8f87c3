package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "kasa/internal/errors"
	"kasa/internal/middleware"
	"kasa/internal/models"
	"kasa/internal/pagination"
	"kasa/internal/receipt"
	"kasa/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents the payload for creating or updating a
// transaction. Sent as JSON or, when a receipt is attached, as
// multipart form fields.
type TransactionRequest struct {
	Amount          string                 `form:"amount" json:"amount" binding:"required"`
	Type            models.TransactionType `form:"type" json:"type" binding:"required,transaction_type"`
	Description     string                 `form:"description" json:"description" binding:"max=60"`
	Date            string                 `form:"transaction_date" json:"transaction_date" binding:"required"`
	PaymentMethodID uint                   `form:"payment_method_id" json:"payment_method_id" binding:"required"`
	SubcategoryID   uint                   `form:"subcategory_id" json:"subcategory_id"`
	SubcategoryName string                 `form:"subcategory_name" json:"subcategory_name" binding:"max=60"`
}

func (r TransactionRequest) toInput() (services.TransactionInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return services.TransactionInput{}, apperrors.Validation("amount", "Amount must be a decimal number.")
	}
	date, err := parseFlexibleTime(r.Date)
	if err != nil {
		return services.TransactionInput{}, apperrors.Validation("transaction_date", err.Error())
	}
	return services.TransactionInput{
		Amount:          amount,
		Type:            r.Type,
		Description:     r.Description,
		Date:            date,
		PaymentMethodID: r.PaymentMethodID,
		SubcategoryID:   r.SubcategoryID,
		SubcategoryName: r.SubcategoryName,
	}, nil
}

// authorizeRead hides other users' transactions from roles without the
// view-all privilege. Failing the check reads as not-found, never as
// forbidden.
func authorizeRead(c *gin.Context, userID uint, tx *models.Transaction) error {
	if middleware.RoleFromContext(c).CanViewAll() {
		return nil
	}
	if tx.OwnerID != userID {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// resolveScope maps the optional scope query parameter onto a read
// scope. Anything beyond active rows requires the restore privilege.
func resolveScope(c *gin.Context) (services.Scope, error) {
	switch c.Query("scope") {
	case "", "active":
		return services.ScopeActiveOnly, nil
	case "all":
		if !middleware.RoleFromContext(c).CanRestore() {
			return "", apperrors.ErrForbidden
		}
		return services.ScopeAll, nil
	case "inactive":
		if !middleware.RoleFromContext(c).CanRestore() {
			return "", apperrors.ErrForbidden
		}
		return services.ScopeInactiveOnly, nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid scope, must be active, all, or inactive")
	}
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new transaction, optionally with a receipt image attached as multipart field "receipt"
// @Tags        transactions
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or invalid receipt file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	var upload *receipt.UploadCandidate
	if fh, err := c.FormFile("receipt"); err == nil {
		upload, err = receipt.FromMultipart(fh)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.Create(c.Request.Context(), userID, input, upload)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(&userID, models.AuditActionCreate, "transaction", fmt.Sprintf("%d", transaction.ID),
		map[string]any{"type": transaction.Type, "amount": transaction.Amount.String(), "has_receipt": transaction.HasReceipt()})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles the retrieval of transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions with optional filters. Non-privileged callers see only their own active transactions.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page              query int    false "Page number (default 1)"
// @Param       page_size         query int    false "Items per page (default 20, max 100)"
// @Param       scope             query string false "Row visibility: active (default), all, inactive (privileged)"
// @Param       owner_id          query int    false "Filter by owner (privileged)"
// @Param       from_date         query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date           query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type              query string false "Filter by transaction type (INCOME, EXPENSE)"
// @Param       payment_method_id query int    false "Filter by payment method ID"
// @Param       subcategory_id    query int    false "Filter by subcategory ID"
// @Param       min_amount        query string false "Filter by minimum amount"
// @Param       max_amount        query string false "Filter by maximum amount"
// @Param       search            query string false "Search in description and subcategory name"
// @Param       sort_by           query string false "Sort field: transaction_date (default) or amount"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope, err := resolveScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !middleware.RoleFromContext(c).CanViewAll() {
		filter.OwnerID = &userID
	}

	result, err := h.transactionService.List(c.Request.Context(), scope, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("owner_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid owner_id")
		}
		ownerID := uint(id)
		filter.OwnerID = &ownerID
	}

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be INCOME or EXPENSE")
		}
		filter.Type = &txType
	}

	if v := c.Query("payment_method_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid payment_method_id")
		}
		pmID := uint(id)
		filter.PaymentMethodID = &pmID
	}

	if v := c.Query("subcategory_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid subcategory_id")
		}
		subID := uint(id)
		filter.SubcategoryID = &subID
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}

	if v := c.Query("max_amount"); v != "" {
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	filter.Search = c.Query("search")

	if v := c.Query("sort_by"); v != "" {
		switch v {
		case "transaction_date", "amount":
			filter.SortBy = v
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid sort_by, must be transaction_date or amount")
		}
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int    true  "Transaction ID"
// @Param       scope query string false "Row visibility: active (default), all, inactive (privileged)"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope, err := resolveScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetByID(c.Request.Context(), transactionID, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeRead(c, userID, transaction); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Update the fields of an active transaction. The stored receipt cannot be replaced.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Transaction ID"
// @Param       request body TransactionRequest true "New field values"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	existing, err := h.transactionService.GetByID(c.Request.Context(), transactionID, services.ScopeActiveOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeRead(c, userID, existing); err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.Update(c.Request.Context(), userID, transactionID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(&userID, models.AuditActionUpdate, "transaction", fmt.Sprintf("%d", transactionID), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the reversible deletion of a transaction
// @Summary     Soft-delete transaction
// @Description Mark a transaction inactive. Reversible via restore; repeating the call is a no-op.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Deletion status"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	existing, err := h.transactionService.GetByID(c.Request.Context(), transactionID, services.ScopeAll)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeRead(c, userID, existing); err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.transactionService.SoftDelete(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if status == services.StatusDeleted {
		h.auditService.Log(&userID, models.AuditActionSoftDelete, "transaction", fmt.Sprintf("%d", transactionID), nil)
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// RestoreTransaction handles restoring a soft-deleted transaction
// @Summary     Restore transaction
// @Description Return a soft-deleted transaction to the active state. Repeating the call is a no-op.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} MessageResponse "Restore status"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/restore [post]
func (h *TransactionHandler) RestoreTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.transactionService.Restore(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if status == services.StatusRestored {
		h.auditService.Log(&userID, models.AuditActionRestore, "transaction", fmt.Sprintf("%d", transactionID), nil)
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// PurgeTransaction handles the permanent deletion of a transaction
// @Summary     Permanently delete transaction
// @Description Remove the transaction row and its stored receipt files. Irreversible; blob cleanup failures are reported as warnings.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} services.PurgeResult "Purge result with any cleanup warnings"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/purge [delete]
func (h *TransactionHandler) PurgeTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.HardDelete(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(&userID, models.AuditActionHardDelete, "transaction", fmt.Sprintf("%d", transactionID),
		map[string]any{"warnings": result.Warnings})

	c.JSON(http.StatusOK, result)
}

// receiptContentTypes maps stored receipt extensions to media types.
var receiptContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// DownloadReceipt streams the stored receipt image
// @Summary     Download receipt
// @Description Download the receipt image attached to a transaction, served under its original upload name
// @Tags        transactions
// @Produce     image/jpeg
// @Produce     image/png
// @Produce     image/webp
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {file} file "Receipt image"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or receipt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/receipt [get]
func (h *TransactionHandler) DownloadReceipt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scope, err := resolveScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, data, err := h.transactionService.OpenReceipt(c.Request.Context(), transactionID, scope)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := authorizeRead(c, userID, transaction); err != nil {
		respondWithError(c, err)
		return
	}

	contentType := receiptContentTypes[strings.ToLower(path.Ext(transaction.ReceiptKey))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := transaction.ReceiptOriginalName
	if name == "" {
		name = path.Base(transaction.ReceiptKey)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}

// ExportTransactions writes the filtered transaction list as CSV
// @Summary     Export transactions
// @Description Export the filtered transaction list as a CSV file. Requires the export privilege; each export is recorded in the audit log.
// @Tags        transactions
// @Produce     text/csv
// @Security    BearerAuth
// @Param       from_date query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type      query string false "Filter by transaction type (INCOME, EXPENSE)"
// @Success     200 {file} file "CSV export"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Export everything matching the filter, not just one page.
	rows, err := pagination.Collect(func(page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
		return h.transactionService.List(c.Request.Context(), services.ScopeActiveOnly, filter, page)
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	c.Header("Content-Type", "text/csv")

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "owner_id", "type", "amount", "description", "date", "payment_method", "subcategory", "has_receipt"})
	for _, tx := range rows {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(tx.ID), 10),
			strconv.FormatUint(uint64(tx.OwnerID), 10),
			string(tx.Type),
			tx.Amount.StringFixed(2),
			tx.Description,
			tx.Date.Format("2006-01-02"),
			tx.PaymentMethod.Name,
			tx.Subcategory.Name,
			strconv.FormatBool(tx.HasReceipt()),
		})
	}
	w.Flush()

	h.auditService.Log(&userID, models.AuditActionExport, "transaction", "batch",
		map[string]any{"rows": len(rows)})
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
