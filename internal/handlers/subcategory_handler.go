package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kasa/internal/errors"
	"kasa/internal/pagination"
	"kasa/internal/services"
)

// SubcategoryHandler handles subcategory requests.
type SubcategoryHandler struct {
	subcategoryService services.SubcategoryServicer
}

// NewSubcategoryHandler creates a new SubcategoryHandler.
func NewSubcategoryHandler(subcategoryService services.SubcategoryServicer) *SubcategoryHandler {
	return &SubcategoryHandler{subcategoryService: subcategoryService}
}

// SubcategoryRequest represents the payload for creating or renaming a subcategory
type SubcategoryRequest struct {
	Name string `json:"name" binding:"required,max=60"`
}

// ListSubcategories handles the retrieval of subcategories
// @Summary     List subcategories
// @Description Get a paginated list of subcategories ordered by name
// @Tags        subcategories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Subcategory] "Paginated subcategories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subcategories [get]
func (h *SubcategoryHandler) ListSubcategories(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.subcategoryService.List(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubcategoryByID handles the retrieval of a specific subcategory
// @Summary     Get subcategory by ID
// @Description Get a specific subcategory by ID
// @Tags        subcategories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Subcategory ID"
// @Success     200 {object} models.Subcategory "Subcategory details"
// @Failure     400 {object} ErrorResponse "Invalid subcategory ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subcategory not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subcategories/{id} [get]
func (h *SubcategoryHandler) GetSubcategoryByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	subcategory, err := h.subcategoryService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory})
}

// CreateSubcategory handles the creation of a subcategory
// @Summary     Create subcategory
// @Description Create a new subcategory. Names that normalize to an existing subcategory are rejected.
// @Tags        subcategories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SubcategoryRequest true "Subcategory details"
// @Success     201 {object} models.Subcategory "Subcategory created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subcategories [post]
func (h *SubcategoryHandler) CreateSubcategory(c *gin.Context) {
	var req SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	subcategory, err := h.subcategoryService.Create(req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"subcategory": subcategory})
}

// UpdateSubcategory handles renaming a subcategory
// @Summary     Rename subcategory
// @Description Rename a subcategory. The new name must not collide with another subcategory's normalized name.
// @Tags        subcategories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Subcategory ID"
// @Param       request body SubcategoryRequest true "New name"
// @Success     200 {object} models.Subcategory "Updated subcategory"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subcategory not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subcategories/{id} [put]
func (h *SubcategoryHandler) UpdateSubcategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	subcategory, err := h.subcategoryService.Update(id, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subcategory": subcategory})
}

// DeleteSubcategory handles the deletion of a subcategory
// @Summary     Delete subcategory
// @Description Delete a subcategory that no transaction references
// @Tags        subcategories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Subcategory ID"
// @Success     200 {object} MessageResponse "Subcategory deleted"
// @Failure     400 {object} ErrorResponse "Invalid subcategory ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Subcategory not found"
// @Failure     409 {object} ErrorResponse "Subcategory in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subcategories/{id} [delete]
func (h *SubcategoryHandler) DeleteSubcategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.subcategoryService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subcategory deleted successfully"})
}
