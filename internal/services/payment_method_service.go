package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kasa/internal/errors"
	"kasa/internal/models"
)

// paymentMethodService handles the fixed catalog of payment methods.
type paymentMethodService struct {
	db *gorm.DB
}

// NewPaymentMethodService creates a new PaymentMethodServicer.
func NewPaymentMethodService(db *gorm.DB) PaymentMethodServicer {
	return &paymentMethodService{db: db}
}

// List retrieves payment methods, optionally only the active ones.
func (s *paymentMethodService) List(activeOnly bool) ([]models.PaymentMethod, error) {
	q := s.db.Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var methods []models.PaymentMethod
	if err := q.Find(&methods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return methods, nil
}

// GetByID retrieves a payment method by its id.
func (s *paymentMethodService) GetByID(id uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := s.db.First(&method, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentMethodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &method, nil
}

// Create adds a payment method to the catalog.
func (s *paymentMethodService) Create(name string) (*models.PaymentMethod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name", "Payment method name is required.")
	}
	if len(name) > 50 {
		return nil, apperrors.Validation("name", "Payment method name must be at most 50 characters.")
	}

	var count int64
	if err := s.db.Model(&models.PaymentMethod{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method with this name already exists")
	}

	method := &models.PaymentMethod{Name: name, IsActive: true}
	if err := s.db.Create(method).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return method, nil
}

// Delete removes a payment method that is not referenced by any
// transaction. Referenced methods should be deactivated instead.
func (s *paymentMethodService) Delete(id uint) error {
	method, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).Where("payment_method_id = ?", id).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrPaymentMethodInUse
	}

	if err := s.db.Delete(method).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
