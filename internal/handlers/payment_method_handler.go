package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kasa/internal/errors"
	"kasa/internal/services"
)

// PaymentMethodHandler handles payment method requests.
type PaymentMethodHandler struct {
	paymentMethodService services.PaymentMethodServicer
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(paymentMethodService services.PaymentMethodServicer) *PaymentMethodHandler {
	return &PaymentMethodHandler{paymentMethodService: paymentMethodService}
}

// PaymentMethodRequest represents the payload for creating a payment method
type PaymentMethodRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// ListPaymentMethods handles the retrieval of payment methods
// @Summary     List payment methods
// @Description Get the payment methods available for new transactions
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       include_inactive query bool false "Include deactivated payment methods"
// @Success     200 {array} models.PaymentMethod "Payment methods"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payment-methods [get]
func (h *PaymentMethodHandler) ListPaymentMethods(c *gin.Context) {
	activeOnly := c.Query("include_inactive") != "true"

	methods, err := h.paymentMethodService.List(activeOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// GetPaymentMethodByID handles the retrieval of a specific payment method
// @Summary     Get payment method by ID
// @Description Get a specific payment method by ID
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment method ID"
// @Success     200 {object} models.PaymentMethod "Payment method details"
// @Failure     400 {object} ErrorResponse "Invalid payment method ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment method not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payment-methods/{id} [get]
func (h *PaymentMethodHandler) GetPaymentMethodByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	method, err := h.paymentMethodService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_method": method})
}

// CreatePaymentMethod handles the creation of a payment method
// @Summary     Create payment method
// @Description Add a new payment method. Admin only.
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PaymentMethodRequest true "Payment method details"
// @Success     201 {object} models.PaymentMethod "Payment method created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payment-methods [post]
func (h *PaymentMethodHandler) CreatePaymentMethod(c *gin.Context) {
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	method, err := h.paymentMethodService.Create(req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment_method": method})
}

// DeletePaymentMethod handles the deletion of a payment method
// @Summary     Delete payment method
// @Description Delete a payment method that no transaction references. Admin only.
// @Tags        payment-methods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment method ID"
// @Success     200 {object} MessageResponse "Payment method deleted"
// @Failure     400 {object} ErrorResponse "Invalid payment method ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment method not found"
// @Failure     409 {object} ErrorResponse "Payment method in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payment-methods/{id} [delete]
func (h *PaymentMethodHandler) DeletePaymentMethod(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentMethodService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted successfully"})
}
