package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kasa/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with the "user" role and a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleUser)
}

// CreateTestAdmin creates an active user with the "admin" role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleAdmin)
}

// CreateTestUserWithRole creates a user with a hashed password and the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPaymentMethod creates an active payment method with a unique name.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB) *models.PaymentMethod {
	t.Helper()

	pm := &models.PaymentMethod{
		Name:     fmt.Sprintf("Method %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(pm).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return pm
}

// CreateTestSubcategory creates a subcategory with a unique name.
func CreateTestSubcategory(t *testing.T, db *gorm.DB) *models.Subcategory {
	t.Helper()

	sub := &models.Subcategory{
		Name:     fmt.Sprintf("Subcategory %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subcategory: %v", err)
	}
	return sub
}

// CreateTestTransaction creates an active expense transaction dated yesterday.
func CreateTestTransaction(t *testing.T, db *gorm.DB, owner *models.User) *models.Transaction {
	t.Helper()

	pm := CreateTestPaymentMethod(t, db)
	sub := CreateTestSubcategory(t, db)

	tx := &models.Transaction{
		OwnerID:         owner.ID,
		Amount:          decimal.NewFromFloat(100.50),
		Type:            models.TransactionTypeExpense,
		Date:            time.Now().Add(-24 * time.Hour),
		PaymentMethodID: pm.ID,
		SubcategoryID:   sub.ID,
		IsActive:        true,
		CreatedBy:       &owner.ID,
		UpdatedBy:       &owner.ID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
