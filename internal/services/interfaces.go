package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kasa/internal/models"
	"kasa/internal/pagination"
	"kasa/internal/receipt"
)

// Scope selects which lifecycle states a read operation may see. The
// API layer resolves the caller's authorization into a scope; services
// apply it uniformly so soft-deleted rows never leak into default reads.
type Scope string

const (
	ScopeActiveOnly   Scope = "active"
	ScopeAll          Scope = "all"
	ScopeInactiveOnly Scope = "inactive"
)

// LifecycleStatus reports the outcome of a state-transition call.
// Already-in-state transitions are designed no-ops, not errors.
type LifecycleStatus string

const (
	StatusDeleted         LifecycleStatus = "deleted"
	StatusAlreadyInactive LifecycleStatus = "already_inactive"
	StatusRestored        LifecycleStatus = "restored"
	StatusAlreadyActive   LifecycleStatus = "already_active"
	StatusPurged          LifecycleStatus = "purged"
)

// PurgeResult is the outcome of a hard delete. Warnings carry blob
// cleanup failures; the row removal itself already succeeded and is
// irreversible by the time any warning is produced.
type PurgeResult struct {
	Status   LifecycleStatus `json:"status"`
	Warnings []string        `json:"warnings,omitempty"`
}

// TransactionInput carries the writable fields of a transaction.
// Exactly one of SubcategoryID and SubcategoryName must be set; a name
// resolves to an existing subcategory by normalized form or creates one.
type TransactionInput struct {
	Amount          decimal.Decimal
	Type            models.TransactionType
	Description     string
	Date            time.Time
	PaymentMethodID uint
	SubcategoryID   uint
	SubcategoryName string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	OwnerID         *uint
	FromDate        *time.Time
	ToDate          *time.Time
	Type            *models.TransactionType
	PaymentMethodID *uint
	SubcategoryID   *uint
	MinAmount       *decimal.Decimal
	MaxAmount       *decimal.Decimal
	Search          string
	SortBy          string // "transaction_date" (default) or "amount"
}

// TransactionServicer is the transaction lifecycle contract: creation,
// mutation, the soft-delete state machine, permanent removal, and
// scope-aware reads.
type TransactionServicer interface {
	Create(ctx context.Context, actorID uint, input TransactionInput, upload *receipt.UploadCandidate) (*models.Transaction, error)
	Update(ctx context.Context, actorID, id uint, input TransactionInput) (*models.Transaction, error)
	SoftDelete(ctx context.Context, actorID, id uint) (LifecycleStatus, error)
	Restore(ctx context.Context, actorID, id uint) (LifecycleStatus, error)
	HardDelete(ctx context.Context, actorID, id uint) (*PurgeResult, error)
	GetByID(ctx context.Context, id uint, scope Scope) (*models.Transaction, error)
	List(ctx context.Context, scope Scope, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	OpenReceipt(ctx context.Context, id uint, scope Scope) (*models.Transaction, []byte, error)
}

// PaymentMethodServicer defines the contract for payment method reads
// and the protected delete.
type PaymentMethodServicer interface {
	List(active bool) ([]models.PaymentMethod, error)
	GetByID(id uint) (*models.PaymentMethod, error)
	Create(name string) (*models.PaymentMethod, error)
	Delete(id uint) error
}

// SubcategoryServicer defines the contract for subcategory business logic.
type SubcategoryServicer interface {
	List(page pagination.PageRequest) (*pagination.PageResponse[models.Subcategory], error)
	GetByID(id uint) (*models.Subcategory, error)
	Create(name string) (*models.Subcategory, error)
	Update(id uint, name string) (*models.Subcategory, error)
	Delete(id uint) error
	GetOrCreate(name string) (*models.Subcategory, error)
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(email, password, firstName, lastName string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
}

// AuditServicer records lifecycle events. Implementations must never
// fail the operation they are attached to.
type AuditServicer interface {
	Log(actorID *uint, action models.AuditAction, objectType, objectID string, metadata map[string]any)
	List(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
