package services

import (
	"testing"

	"kasa/internal/models"
	"kasa/internal/testutil"
)

func TestCreatePaymentMethod(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)

		pm, err := svc.Create("Kredi Kartı")
		testutil.AssertNoError(t, err)
		if pm.ID == 0 {
			t.Fatal("expected non-zero payment method ID")
		}
		if !pm.IsActive {
			t.Error("expected new payment method to be active")
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)

		_, err := svc.Create("Nakit")
		testutil.AssertNoError(t, err)

		_, err = svc.Create("Nakit")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)

		_, err := svc.Create("  ")
		testutil.AssertValidationField(t, err, "name")
	})
}

func TestListPaymentMethods(t *testing.T) {
	t.Run("active_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)

		active := testutil.CreateTestPaymentMethod(t, db)
		inactive := testutil.CreateTestPaymentMethod(t, db)
		testutil.AssertNoError(t, db.Model(inactive).Update("is_active", false).Error)

		methods, err := svc.List(true)
		testutil.AssertNoError(t, err)
		if len(methods) != 1 || methods[0].ID != active.ID {
			t.Errorf("expected only the active method, got %d entries", len(methods))
		}

		all, err := svc.List(false)
		testutil.AssertNoError(t, err)
		if len(all) != 2 {
			t.Errorf("expected 2 methods without the filter, got %d", len(all))
		}
	})
}

func TestDeletePaymentMethod(t *testing.T) {
	t.Run("deletes_unused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)
		pm := testutil.CreateTestPaymentMethod(t, db)

		testutil.AssertNoError(t, svc.Delete(pm.ID))

		_, err := svc.GetByID(pm.ID)
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_NOT_FOUND")
	})

	t.Run("rejects_in_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user)

		err := svc.Delete(tx.PaymentMethodID)
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_IN_USE")

		// The method must still exist after the rejected delete.
		var count int64
		db.Model(&models.PaymentMethod{}).Where("id = ?", tx.PaymentMethodID).Count(&count)
		if count != 1 {
			t.Error("expected payment method to survive rejected delete")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPaymentMethodService(db)

		err := svc.Delete(99999)
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_NOT_FOUND")
	})
}
