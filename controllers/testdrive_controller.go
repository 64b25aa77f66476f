package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
)

// RegisterTestDriveRequest represents the request body for booking a test drive
type RegisterTestDriveRequest struct {
	CustomerID    *uint     `json:"customer_id"`
	VehicleID     uint      `json:"vehicle_id" binding:"required"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	Notes         string    `json:"notes"`
}

// TestDriveNoteRequest represents the request body for confirm/complete
type TestDriveNoteRequest struct {
	Notes string `json:"notes"`
}

// CancelTestDriveRequest represents the request body for cancelling
type CancelTestDriveRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RegisterTestDrive handles POST /api/v1/test-drives. Customers book for
// themselves; staff may book on a customer's behalf via customer_id.
func RegisterTestDrive(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req RegisterTestDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	customerID := userID
	if req.CustomerID != nil {
		customerID = *req.CustomerID
	}

	testDrive, err := services.GetTestDriveService().Register(userID, customerID, req.VehicleID, req.ScheduledDate, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    testDrive,
	})
}

// ConfirmTestDrive handles PUT /api/v1/test-drives/:id/confirm (staff only)
func ConfirmTestDrive(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	testDriveID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req TestDriveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondValidationError(c, err)
		return
	}

	testDrive, err := services.GetTestDriveService().Confirm(userID, testDriveID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    testDrive,
	})
}

// CompleteTestDrive handles PUT /api/v1/test-drives/:id/complete (staff only)
func CompleteTestDrive(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	testDriveID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req TestDriveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondValidationError(c, err)
		return
	}

	testDrive, err := services.GetTestDriveService().Complete(userID, testDriveID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    testDrive,
	})
}

// CancelTestDrive handles POST /api/v1/test-drives/:id/cancel
func CancelTestDrive(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	testDriveID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CancelTestDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	testDrive, err := services.GetTestDriveService().Cancel(userID, testDriveID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    testDrive,
	})
}

// GetTestDrive handles GET /api/v1/test-drives/:id
func GetTestDrive(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	testDriveID, ok := idParam(c, "id")
	if !ok {
		return
	}

	testDrive, err := services.GetTestDriveService().GetByID(testDriveID)
	if err != nil {
		respondError(c, err)
		return
	}

	role, _ := middleware.GetUserRole(c)
	if role == models.RoleCustomer && testDrive.CustomerID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You don't have permission to view this test drive",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    testDrive,
	})
}

// GetMyTestDrives handles GET /api/v1/test-drives/my
func GetMyTestDrives(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	testDrives, total, err := services.GetTestDriveService().GetMine(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, testDrives, page, pageSize, total)
}

// GetAllTestDrives handles GET /api/v1/test-drives (staff only)
func GetAllTestDrives(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}

	testDrives, total, err := services.GetTestDriveService().GetAll(userID, page, pageSize, status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, testDrives, page, pageSize, total)
}
