package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
)

// RequestDeliveryRequest represents the request body for requesting delivery
type RequestDeliveryRequest struct {
	OrderID         uint   `json:"order_id" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	Notes           string `json:"notes"`
}

// ConfirmDeliveryRequest represents the request body for scheduling a delivery
type ConfirmDeliveryRequest struct {
	PlannedDate time.Time `json:"planned_date" binding:"required"`
	StaffNotes  string    `json:"staff_notes"`
}

// UpdateDeliveryStatusRequest represents the request body for a status change
type UpdateDeliveryStatusRequest struct {
	Status      string     `json:"status" binding:"required,oneof=pending scheduled in_transit delivered cancelled"`
	PlannedDate *time.Time `json:"planned_date"`
	ActualDate  *time.Time `json:"actual_date"`
}

// RequestDelivery handles POST /api/v1/deliveries - a customer requests
// delivery of a confirmed, paid order
func RequestDelivery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req RequestDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	delivery, err := services.GetDeliveryService().RequestDelivery(userID, req.OrderID, req.ShippingAddress, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// ConfirmDelivery handles PUT /api/v1/deliveries/:id/confirm - staff schedules
// a pending delivery
func ConfirmDelivery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	deliveryID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	delivery, err := services.GetDeliveryService().ConfirmDelivery(userID, deliveryID, req.PlannedDate, req.StaffNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// UpdateDeliveryStatus handles PUT /api/v1/deliveries/:id/status (staff only)
func UpdateDeliveryStatus(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	deliveryID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	delivery, err := services.GetDeliveryService().UpdateDeliveryStatus(userID, deliveryID, req.Status, req.PlannedDate, req.ActualDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// CancelDelivery handles POST /api/v1/deliveries/:id/cancel
func CancelDelivery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	deliveryID, ok := idParam(c, "id")
	if !ok {
		return
	}

	delivery, err := services.GetDeliveryService().CancelDelivery(userID, deliveryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// GetDelivery handles GET /api/v1/deliveries/:id
func GetDelivery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	deliveryID, ok := idParam(c, "id")
	if !ok {
		return
	}

	delivery, err := services.GetDeliveryService().GetDeliveryByID(deliveryID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Customers may only see deliveries on their own orders.
	role, _ := middleware.GetUserRole(c)
	if role == models.RoleCustomer && delivery.Order.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You don't have permission to view this delivery",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// GetDeliveryForOrder handles GET /api/v1/orders/:id/delivery
func GetDeliveryForOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	// Ownership check rides on the order lookup.
	if _, err := services.GetOrderService().GetOrderByID(userID, orderID); err != nil {
		respondError(c, err)
		return
	}

	delivery, err := services.GetDeliveryService().GetDeliveryByOrderID(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    delivery,
	})
}

// GetAllDeliveries handles GET /api/v1/deliveries - full list with filters (staff only)
func GetAllDeliveries(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)

	filter := &services.DeliveryFilter{
		SearchTerm: c.Query("search"),
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.FromDate = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.ToDate = &t
		}
	}

	deliveries, total, err := services.GetDeliveryService().GetAllDeliveries(userID, page, pageSize, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, deliveries, page, pageSize, total)
}
