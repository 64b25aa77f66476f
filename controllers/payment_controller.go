package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
)

// CheckoutRequest represents the request body for starting a checkout
type CheckoutRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// ConfirmPaymentRequest represents the request body for confirming a payment
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// CreateCheckoutSession handles POST /api/v1/payments/checkout - starts a
// hosted checkout for the caller's order and returns the redirect URL
func CreateCheckoutSession(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	checkoutURL, err := services.GetPaymentService().CreateCheckoutSession(userID, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"checkout_url": checkoutURL,
		},
	})
}

// ConfirmPayment handles POST /api/v1/payments/confirm - reconciles a payment
// intent against its invoice and settles the order
func ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.GetPaymentService().ConfirmPayment(req.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// PaymentSuccess handles GET /api/v1/payments/success - the checkout redirect
// target. The session's payment intent is resolved and confirmed.
func PaymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "session_id query parameter is required",
			},
		})
		return
	}

	order, err := services.GetPaymentService().ConfirmCheckoutSession(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
