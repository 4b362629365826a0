// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/checkout"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		config:          cfg,
	}
}

// Start handles POST /checkout
func (h *CheckoutHandler) Start(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)
	email, _ := middleware.GetUserEmailFromContext(c)

	var userID *uint
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		userID = &id
	}

	session, err := h.checkoutService.Start(c.Request.Context(), sessionID, userID, email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout started",
		"data":    session,
	})
}

// Get handles GET /checkout
func (h *CheckoutHandler) Get(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	session, err := h.checkoutService.Get(c.Request.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, checkout.ErrNoSession) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session retrieved",
		"data":    session,
	})
}

// Options handles GET /checkout/options
func (h *CheckoutHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout options retrieved",
		"data": gin.H{
			"districts": checkout.Districts,
			"payment_methods": []string{
				checkout.PaymentFinancing,
				checkout.PaymentFPX,
				checkout.PaymentBankTransfer,
			},
			"fpx_banks":            checkout.FPXBanks,
			"delivery_window_days": h.config.Checkout.DeliveryWindowDays,
		},
	})
}

// SetDelivery handles PUT /checkout/delivery
func (h *CheckoutHandler) SetDelivery(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req checkout.DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.SetDelivery(c.Request.Context(), sessionID, &req)
	if err != nil {
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery details saved",
		"data":    session,
	})
}

// SetPaymentMethod handles PUT /checkout/payment-method
func (h *CheckoutHandler) SetPaymentMethod(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req checkout.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.SetPaymentMethod(c.Request.Context(), sessionID, &req)
	if err != nil {
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment method saved",
		"data":    session,
	})
}

// SetPaymentDetails handles PUT /checkout/payment-details
func (h *CheckoutHandler) SetPaymentDetails(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	var req checkout.PaymentDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.SetPaymentDetails(c.Request.Context(), sessionID, &req)
	if err != nil {
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment details saved",
		"data":    session,
	})
}

// Next handles POST /checkout/next
func (h *CheckoutHandler) Next(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	result, err := h.checkoutService.Next(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	message := "Moved to next step"
	if !result.Moved {
		message = "Step unchanged: " + result.Blocked
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    result,
	})
}

// Back handles POST /checkout/back
func (h *CheckoutHandler) Back(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	result, err := h.checkoutService.Back(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Moved back",
		"data":    result,
	})
}

// Close handles DELETE /checkout
func (h *CheckoutHandler) Close(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	if err := h.checkoutService.Close(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to close checkout",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout closed",
	})
}

// Submit handles POST /checkout/submit
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sessionID := getOrCreateSessionID(c)

	result, err := h.checkoutService.Submit(c.Request.Context(), sessionID)
	if err != nil {
		// The visitor stays on the payment step and may retry
		c.JSON(checkoutErrorStatus(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed successfully",
		"data":    result,
	})
}

func checkoutErrorStatus(err error) int {
	if errors.Is(err, checkout.ErrNoSession) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
