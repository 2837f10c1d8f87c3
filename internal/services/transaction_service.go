package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "kasa/internal/errors"
	"kasa/internal/logger"
	"kasa/internal/models"
	"kasa/internal/pagination"
	"kasa/internal/receipt"
	"kasa/internal/storage"
)

// maxAmount bounds the integer part of an amount to 10 digits
// (numeric(12,2) with 2 fractional digits).
var maxAmount = decimal.New(1, 10)

// transactionService implements the transaction lifecycle: validation,
// receipt commit through the content-addressed store, the soft-delete
// state machine, and permanent removal with best-effort blob cleanup.
type transactionService struct {
	db            *gorm.DB
	receipts      *storage.ReceiptStore
	subcategories SubcategoryServicer
	now           func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, receipts *storage.ReceiptStore, subcategories SubcategoryServicer) TransactionServicer {
	return &transactionService{
		db:            db,
		receipts:      receipts,
		subcategories: subcategories,
		now:           time.Now,
	}
}

// scoped returns a GORM scope applying the lifecycle visibility filter.
func scoped(scope Scope) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		switch scope {
		case ScopeAll:
			return q
		case ScopeInactiveOnly:
			return q.Where("transactions.is_active = ?", false)
		default:
			return q.Where("transactions.is_active = ?", true)
		}
	}
}

// validateInput checks the field invariants. Nothing may be written
// before this passes.
func (s *transactionService) validateInput(input TransactionInput) error {
	if !input.Amount.IsPositive() {
		return apperrors.Validation("amount", "Amount must be positive.")
	}
	if !input.Amount.Sub(input.Amount.Truncate(2)).IsZero() {
		return apperrors.Validation("amount", "Amount cannot have more than 2 decimal places.")
	}
	if !input.Amount.LessThan(maxAmount) {
		return apperrors.Validation("amount", "Amount is too large.")
	}
	if !input.Type.Valid() {
		return apperrors.Validation("type", "Type must be INCOME or EXPENSE.")
	}
	if len(input.Description) > 60 {
		return apperrors.Validation("description", "Description must be at most 60 characters.")
	}
	if input.Date.IsZero() {
		return apperrors.Validation("transaction_date", "Transaction date is required.")
	}
	// Strictly-after comparison: a date equal to "now" is allowed.
	if input.Date.After(s.now()) {
		return apperrors.Validation("transaction_date", "Future dates are not allowed.")
	}

	var count int64
	if err := s.db.Model(&models.PaymentMethod{}).Where("id = ?", input.PaymentMethodID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrPaymentMethodNotFound
	}
	return nil
}

// resolveSubcategory returns the referenced subcategory, creating one
// from the given name when no id is supplied.
func (s *transactionService) resolveSubcategory(input TransactionInput) (*models.Subcategory, error) {
	if input.SubcategoryID != 0 {
		return s.subcategories.GetByID(input.SubcategoryID)
	}
	if input.SubcategoryName != "" {
		return s.subcategories.GetOrCreate(input.SubcategoryName)
	}
	return nil, apperrors.Validation("subcategory", "Subcategory is required.")
}

// Create validates the input and optional upload, commits the receipt
// blob straight to its final content-addressed key, persists the row,
// and then best-effort generates the thumbnail as a separate narrow
// write. Validation strictly precedes any storage write, so a failure
// leaves no partial row behind.
func (s *transactionService) Create(ctx context.Context, actorID uint, input TransactionInput, upload *receipt.UploadCandidate) (*models.Transaction, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if upload != nil {
		if err := receipt.Validate(upload.Bytes(), upload.Size); err != nil {
			return nil, err
		}
	}

	subcategory, err := s.resolveSubcategory(input)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		OwnerID:         actorID,
		Amount:          input.Amount,
		Type:            input.Type,
		Description:     input.Description,
		Date:            input.Date,
		PaymentMethodID: input.PaymentMethodID,
		SubcategoryID:   subcategory.ID,
		IsActive:        true,
		CreatedBy:       &actorID,
		UpdatedBy:       &actorID,
	}

	if upload != nil {
		// The blob goes directly to its final key; there is never a
		// temporary key a client could observe or race against. If the
		// row write below fails, the residue is an unreferenced blob,
		// never a row pointing at a missing blob.
		key, err := s.receipts.Commit(ctx, upload.Bytes(), upload.Ext(), s.now())
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		txn.ReceiptKey = key
		txn.ReceiptOriginalName = path.Base(upload.Name)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(txn).Error
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.ensureThumbnail(ctx, txn)
	return txn, nil
}

// Update re-validates the fields and saves them. Receipts are immutable
// once committed, so this path never consumes a new upload; it does
// opportunistically self-heal legacy receipt key layouts before saving.
func (s *transactionService) Update(ctx context.Context, actorID, id uint, input TransactionInput) (*models.Transaction, error) {
	txn, err := s.GetByID(ctx, id, ScopeActiveOnly)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	subcategory, err := s.resolveSubcategory(input)
	if err != nil {
		return nil, err
	}

	if txn.HasReceipt() {
		fixed, err := s.receipts.RepairReceiptKey(ctx, txn.ReceiptKey, s.now())
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		txn.ReceiptKey = fixed

		if txn.ReceiptThumbnailKey != "" {
			fixedThumb, err := s.receipts.RepairThumbnailKey(ctx, txn.ReceiptThumbnailKey, s.now())
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			txn.ReceiptThumbnailKey = fixedThumb
		}
	}

	txn.Amount = input.Amount
	txn.Type = input.Type
	txn.Description = input.Description
	txn.Date = input.Date
	txn.PaymentMethodID = input.PaymentMethodID
	txn.SubcategoryID = subcategory.ID
	txn.UpdatedBy = &actorID

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Save(txn).Error
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.ensureThumbnail(ctx, txn)
	return txn, nil
}

// ensureThumbnail derives and commits the preview for a stored receipt.
// It runs after the row exists and only when no thumbnail reference is
// set, so a thumbnail is generated at most once per transaction. Any
// failure is logged and skipped; a later Update retries.
func (s *transactionService) ensureThumbnail(ctx context.Context, txn *models.Transaction) {
	if !txn.HasReceipt() || txn.ReceiptThumbnailKey != "" {
		return
	}

	data, err := s.receipts.Read(ctx, txn.ReceiptKey)
	if err != nil {
		logger.Get().Warnw("thumbnail skipped: receipt blob unreadable", "transaction_id", txn.ID, "key", txn.ReceiptKey, "error", err)
		return
	}
	thumb, err := receipt.Thumbnail(data, receipt.DefaultThumbnailWidth)
	if err != nil {
		logger.Get().Warnw("thumbnail generation failed", "transaction_id", txn.ID, "error", err)
		return
	}
	key, err := s.receipts.CommitThumbnail(ctx, thumb, txn.ReceiptKey, s.now())
	if err != nil {
		logger.Get().Warnw("thumbnail commit failed", "transaction_id", txn.ID, "error", err)
		return
	}

	// Narrow second write: only the thumbnail reference column.
	if err := s.db.Model(&models.Transaction{}).Where("id = ?", txn.ID).
		Update("receipt_thumbnail_key", key).Error; err != nil {
		logger.Get().Warnw("thumbnail reference update failed", "transaction_id", txn.ID, "error", err)
		return
	}
	txn.ReceiptThumbnailKey = key
}

// SoftDelete flips the row inactive and stamps who deleted it when.
// Reversible; an already-inactive row is a designed no-op.
func (s *transactionService) SoftDelete(ctx context.Context, actorID, id uint) (LifecycleStatus, error) {
	txn, err := s.GetByID(ctx, id, ScopeAll)
	if err != nil {
		return "", err
	}
	if !txn.IsActive {
		return StatusAlreadyInactive, nil
	}

	now := s.now()
	if err := s.db.Model(txn).Updates(map[string]any{
		"is_active":  false,
		"deleted_at": now,
		"deleted_by": actorID,
	}).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return StatusDeleted, nil
}

// Restore returns a soft-deleted row to the active state, clearing the
// deletion stamps so it is indistinguishable from a never-deleted row
// (audit history aside).
func (s *transactionService) Restore(ctx context.Context, actorID, id uint) (LifecycleStatus, error) {
	txn, err := s.GetByID(ctx, id, ScopeAll)
	if err != nil {
		return "", err
	}
	if txn.IsActive {
		return StatusAlreadyActive, nil
	}

	if err := s.db.Model(txn).Updates(map[string]any{
		"is_active":  true,
		"deleted_at": nil,
		"deleted_by": nil,
	}).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return StatusRestored, nil
}

// HardDelete permanently removes the row, then best-effort deletes the
// receipt blob, the thumbnail, and every known legacy duplicate shape.
// Row removal is the point of no return: cleanup failures are returned
// as warnings, never as errors, and never roll anything back.
func (s *transactionService) HardDelete(ctx context.Context, actorID, id uint) (*PurgeResult, error) {
	txn, err := s.GetByID(ctx, id, ScopeAll)
	if err != nil {
		return nil, err
	}

	res := s.db.Delete(&models.Transaction{}, txn.ID)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	// A concurrent hard delete may have won the race between the read
	// above and this delete; the loser reports not-found and must not
	// re-run blob cleanup.
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrTransactionNotFound
	}

	var keys []string
	if txn.HasReceipt() {
		keys = append(keys, txn.ReceiptKey)
		keys = append(keys, storage.LegacyDuplicateKeys(txn.ReceiptKey)...)
	}
	if txn.ReceiptThumbnailKey != "" {
		keys = append(keys, txn.ReceiptThumbnailKey)
		if collapsed, changed := storage.RepairedThumbnailKey(txn.ReceiptThumbnailKey, s.now()); changed {
			keys = append(keys, collapsed)
		}
	}

	warnings := s.receipts.Cleanup(ctx, keys)
	return &PurgeResult{Status: StatusPurged, Warnings: warnings}, nil
}

// GetByID retrieves a transaction within the given visibility scope.
func (s *transactionService) GetByID(_ context.Context, id uint, scope Scope) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.Scopes(scoped(scope)).
		Preload("PaymentMethod").Preload("Subcategory").
		First(&txn, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// List retrieves a paginated, filtered, scope-aware list of transactions.
func (s *transactionService) List(_ context.Context, scope Scope, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Scopes(scoped(scope))
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("PaymentMethod").Preload("Subcategory").
		Order(sortOrder(filter.SortBy)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// OpenReceipt loads the transaction and the receipt blob bytes for download.
func (s *transactionService) OpenReceipt(ctx context.Context, id uint, scope Scope) (*models.Transaction, []byte, error) {
	txn, err := s.GetByID(ctx, id, scope)
	if err != nil {
		return nil, nil, err
	}
	if !txn.HasReceipt() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrNotFound, "No receipt on file")
	}

	data, err := s.receipts.Read(ctx, txn.ReceiptKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrNotFound, "No receipt on file")
	}
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, data, nil
}

// sortWhitelist guards Order() against arbitrary column injection.
var sortWhitelist = map[string]string{
	"":                 "transaction_date DESC, transactions.id DESC",
	"transaction_date": "transaction_date DESC, transactions.id DESC",
	"amount":           "amount DESC, transactions.id DESC",
}

func sortOrder(sortBy string) string {
	if order, ok := sortWhitelist[sortBy]; ok {
		return order
	}
	return sortWhitelist[""]
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.OwnerID != nil {
		q = q.Where("transactions.owner_id = ?", *f.OwnerID)
	}
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("transactions.type = ?", *f.Type)
	}
	if f.PaymentMethodID != nil {
		q = q.Where("payment_method_id = ?", *f.PaymentMethodID)
	}
	if f.SubcategoryID != nil {
		q = q.Where("subcategory_id = ?", *f.SubcategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", f.Search)
		q = q.Joins("JOIN subcategories ON subcategories.id = transactions.subcategory_id").
			Where("transactions.description LIKE ? OR subcategories.name LIKE ?", pattern, pattern)
	}
	return q
}
