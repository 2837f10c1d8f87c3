package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kasa/internal/errors"
	"kasa/internal/models"
	"kasa/internal/normalize"
	"kasa/internal/pagination"
)

// subcategoryService handles subcategory business logic, including the
// normalized get-or-create used when transactions are created with a
// free-form subcategory name.
type subcategoryService struct {
	db *gorm.DB
}

// NewSubcategoryService creates a new SubcategoryServicer.
func NewSubcategoryService(db *gorm.DB) SubcategoryServicer {
	return &subcategoryService{db: db}
}

func validateSubcategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("name", "Subcategory name is required.")
	}
	if len(name) > 60 {
		return "", apperrors.Validation("name", "Subcategory name must be at most 60 characters.")
	}
	if normalize.SubcategoryName(name) == "" {
		return "", apperrors.Validation("name", "Subcategory name must contain letters or digits.")
	}
	return name, nil
}

// List retrieves a paginated list of subcategories ordered by name.
func (s *subcategoryService) List(page pagination.PageRequest) (*pagination.PageResponse[models.Subcategory], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Subcategory{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var subcategories []models.Subcategory
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&subcategories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(subcategories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetByID retrieves a subcategory by its id.
func (s *subcategoryService) GetByID(id uint) (*models.Subcategory, error) {
	var subcategory models.Subcategory
	if err := s.db.First(&subcategory, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubcategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subcategory, nil
}

// Create creates a new subcategory. Names that normalize to an
// existing subcategory are rejected as duplicates.
func (s *subcategoryService) Create(name string) (*models.Subcategory, error) {
	name, err := validateSubcategoryName(name)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Subcategory{}).
		Where("normalized_name = ?", normalize.SubcategoryName(name)).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory with this name already exists")
	}

	subcategory := &models.Subcategory{Name: name, IsActive: true}
	if err := s.db.Create(subcategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subcategory, nil
}

// Update renames an existing subcategory.
func (s *subcategoryService) Update(id uint, name string) (*models.Subcategory, error) {
	subcategory, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	name, err = validateSubcategoryName(name)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Subcategory{}).
		Where("normalized_name = ? AND id <> ?", normalize.SubcategoryName(name), id).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "subcategory with this name already exists")
	}

	subcategory.Name = name
	if err := s.db.Save(subcategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subcategory, nil
}

// Delete removes a subcategory that is not referenced by any transaction.
func (s *subcategoryService) Delete(id uint) error {
	subcategory, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Transaction{}).Where("subcategory_id = ?", id).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrSubcategoryInUse
	}

	if err := s.db.Delete(subcategory).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetOrCreate resolves a free-form name to a subcategory, matching on
// the normalized form so "Groceries", "groceries" and "GROCERIES!" all
// land on the same row. The first caller's spelling is kept as the
// display name.
func (s *subcategoryService) GetOrCreate(name string) (*models.Subcategory, error) {
	name, err := validateSubcategoryName(name)
	if err != nil {
		return nil, err
	}

	var subcategory models.Subcategory
	err = s.db.Where("normalized_name = ?", normalize.SubcategoryName(name)).First(&subcategory).Error
	if err == nil {
		return &subcategory, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	subcategory = models.Subcategory{Name: name, IsActive: true}
	if err := s.db.Create(&subcategory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subcategory, nil
}
