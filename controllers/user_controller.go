package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
)

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

// StaffRequest represents the request body for creating or updating staff
type StaffRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" binding:"required,oneof=staff manager"`
}

// GetProfile handles GET /api/v1/users/me - returns the caller's profile
func GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	user, err := services.GetUserService().GetProfile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateProfile handles PUT /api/v1/users/me - updates the caller's profile
func UpdateProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := services.GetUserService().UpdateProfile(userID, req.FullName, req.PhoneNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// CreateStaff handles POST /api/v1/users/staff - creates a staff account (managers only)
func CreateStaff(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := services.GetUserService().CreateStaff(actorID, req.Email, req.Password, req.FullName, req.PhoneNumber, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateStaff handles PUT /api/v1/users/staff/:id - updates a staff account (managers only)
func UpdateStaff(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	staffID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := services.GetUserService().UpdateStaff(actorID, staffID, req.FullName, req.PhoneNumber, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// DeleteStaff handles DELETE /api/v1/users/staff/:id - removes a staff account (managers only)
func DeleteStaff(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	staffID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := services.GetUserService().DeleteStaff(actorID, staffID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

// ListStaff handles GET /api/v1/users/staff - lists staff accounts
func ListStaff(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	users, total, err := services.GetUserService().ListStaff(actorID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, users, page, pageSize, total)
}

// ListCustomers handles GET /api/v1/users/customers - lists customer accounts
func ListCustomers(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	users, total, err := services.GetUserService().ListCustomers(actorID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, users, page, pageSize, total)
}

// GetUser handles GET /api/v1/users/:id - returns one user (staff only)
func GetUser(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := services.GetUserService().GetUserByID(actorID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
