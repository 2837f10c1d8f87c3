package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether the type is one of the known values.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is the aggregate root of the ledger. A row is either
// active or soft-deleted; hard deletion removes the row and its stored
// receipt blobs entirely.
//
// Invariants maintained by the transaction service:
//   - is_active=false implies deleted_at is set;
//     is_active=true implies deleted_at and deleted_by are both null.
//   - ReceiptThumbnailKey is only ever set when ReceiptKey is set.
//   - ReceiptOriginalName is captured on first upload and never overwritten.
type Transaction struct {
	Base
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type        TransactionType `gorm:"size:7;not null" json:"type"`
	Description string          `gorm:"size:60" json:"description"`
	Date        time.Time       `gorm:"column:transaction_date;not null;index" json:"transaction_date"`

	PaymentMethodID uint `gorm:"not null" json:"payment_method_id"`
	SubcategoryID   uint `gorm:"not null" json:"subcategory_id"`

	// Receipt blob references. Keys point into the receipt store; the
	// key is content-addressed, so identical uploads share one blob.
	ReceiptKey          string `gorm:"size:255" json:"receipt_key,omitempty"`
	ReceiptOriginalName string `gorm:"size:255" json:"receipt_original_name,omitempty"`
	ReceiptThumbnailKey string `gorm:"size:255" json:"receipt_thumbnail_key,omitempty"`

	// Soft delete & audit
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uint      `json:"deleted_by,omitempty"`
	CreatedBy *uint      `json:"created_by,omitempty"`
	UpdatedBy *uint      `json:"updated_by,omitempty"`

	// Relationships. A transaction dies with its owner; shared lookup
	// rows are protected from deletion while referenced.
	Owner         User          `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	PaymentMethod PaymentMethod `gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:RESTRICT" json:"payment_method,omitempty"`
	Subcategory   Subcategory   `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:RESTRICT" json:"subcategory,omitempty"`
}

// HasReceipt reports whether a receipt blob has been committed for this row.
func (t *Transaction) HasReceipt() bool { return t.ReceiptKey != "" }
