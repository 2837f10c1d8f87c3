package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kasa/internal/models"
)

// openEnforcingDB opens an in-memory database with referential actions
// enforced, which the regular test database leaves off.
func openEnforcingDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PaymentMethod{},
		&models.Subcategory{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB) (*models.User, *models.Transaction) {
	t.Helper()

	user := &models.User{Email: "owner@example.com", Password: "x", Role: models.RoleUser}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	pm := &models.PaymentMethod{Name: "Nakit"}
	if err := db.Create(pm).Error; err != nil {
		t.Fatalf("failed to create payment method: %v", err)
	}
	sub := &models.Subcategory{Name: "Groceries"}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create subcategory: %v", err)
	}

	tx := &models.Transaction{
		OwnerID:         user.ID,
		Amount:          decimal.NewFromFloat(10.00),
		Type:            models.TransactionTypeExpense,
		Date:            time.Now().Add(-time.Hour),
		PaymentMethodID: pm.ID,
		SubcategoryID:   sub.ID,
		IsActive:        true,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}
	return user, tx
}

func TestTransactionsCascadeWithOwner(t *testing.T) {
	db := openEnforcingDB(t)
	user, _ := seedTransaction(t, db)

	if err := db.Delete(user).Error; err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	var count int64
	if err := db.Model(&models.Transaction{}).Where("owner_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected owner deletion to remove %d transaction(s)", count)
	}
}

func TestLookupRowsProtectedWhileReferenced(t *testing.T) {
	db := openEnforcingDB(t)
	_, tx := seedTransaction(t, db)

	if err := db.Delete(&models.PaymentMethod{}, tx.PaymentMethodID).Error; err == nil {
		t.Error("expected deleting a referenced payment method to be rejected")
	}
	if err := db.Delete(&models.Subcategory{}, tx.SubcategoryID).Error; err == nil {
		t.Error("expected deleting a referenced subcategory to be rejected")
	}
}
