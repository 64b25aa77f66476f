package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
)

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	VehicleID uint   `json:"vehicle_id" binding:"required"`
	Notes     string `json:"notes"`
}

// CancelOrderRequest represents the request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// UpdateOrderStatusRequest represents the request body for a status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled"`
	Notes  string `json:"notes"`
}

// AssignStaffRequest represents the request body for staff assignment
type AssignStaffRequest struct {
	StaffID uint `json:"staff_id" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders - places an order (customers only)
func CreateOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	role, _ := middleware.GetUserRole(c)
	if role != models.RoleCustomer {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only customers can create orders",
			},
		})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	orderID, err := services.GetOrderService().CreateOrder(userID, req.VehicleID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := services.GetOrderService().GetOrderByID(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func CancelOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := services.GetOrderService().CancelOrder(userID, orderID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	order, err := services.GetOrderService().GetOrderByID(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status (staff only)
func UpdateOrderStatus(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.GetOrderService().UpdateOrderStatus(userID, orderID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AssignStaff handles PUT /api/v1/orders/:id/assign (staff only)
func AssignStaff(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.GetOrderService().AssignStaff(userID, orderID, req.StaffID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id - owner or staff
func GetOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := services.GetOrderService().GetOrderByID(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetMyOrders handles GET /api/v1/orders/my - the caller's own orders
func GetMyOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	orders, total, err := services.GetOrderService().GetMyOrders(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, orders, page, pageSize, total)
}

// GetAllOrders handles GET /api/v1/orders - full order list with filters (staff only)
func GetAllOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	filter := orderFilterFromQuery(c)

	orders, total, err := services.GetOrderService().GetAllOrders(userID, page, pageSize, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, orders, page, pageSize, total)
}

func orderFilterFromQuery(c *gin.Context) *services.OrderFilter {
	filter := &services.OrderFilter{
		SearchTerm: c.Query("search"),
	}
	if v := c.Query("customer_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			customerID := uint(id)
			filter.CustomerID = &customerID
		}
	}
	if v := c.Query("staff_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			staffID := uint(id)
			filter.StaffID = &staffID
		}
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
	return filter
}
