package models

import (
	"kasa/internal/normalize"

	"gorm.io/gorm"
)

// Subcategory is a shared reference entity. NormalizedName is the
// canonical comparison form of Name (case-folded, punctuation and
// whitespace stripped) and is recomputed on every save so a renamed
// display name can never drift away from its dedup key.
type Subcategory struct {
	Base
	Name           string `gorm:"size:60;not null" json:"name"`
	NormalizedName string `gorm:"uniqueIndex;size:80;not null" json:"normalized_name"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`

	Transactions []Transaction `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:RESTRICT" json:"transactions,omitempty"`
}

// BeforeSave recomputes the normalized name from the display name.
func (s *Subcategory) BeforeSave(tx *gorm.DB) error {
	s.NormalizedName = normalize.SubcategoryName(s.Name)
	return nil
}
