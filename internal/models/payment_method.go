package models

// PaymentMethod is a shared reference entity. Deletion is blocked while
// any transaction references it (RESTRICT constraint plus a service-level
// check for a friendlier error).
type PaymentMethod struct {
	Base
	Name     string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Transactions []Transaction `gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:RESTRICT" json:"transactions,omitempty"`
}
