package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
)

// CreateFeedbackRequest represents the request body for submitting feedback
type CreateFeedbackRequest struct {
	OrderID *uint  `json:"order_id"`
	Content string `json:"content" binding:"required"`
}

// CreateFeedback handles POST /api/v1/feedback (customers only)
func CreateFeedback(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	feedback, err := services.GetFeedbackService().Create(userID, req.OrderID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    feedback,
	})
}

// ResolveFeedback handles PUT /api/v1/feedback/:id/resolve (managers only)
func ResolveFeedback(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	feedbackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	feedback, err := services.GetFeedbackService().Resolve(userID, feedbackID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    feedback,
	})
}

// DeleteFeedback handles DELETE /api/v1/feedback/:id
func DeleteFeedback(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	feedbackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := services.GetFeedbackService().Delete(userID, feedbackID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

// GetMyFeedback handles GET /api/v1/feedback/my
func GetMyFeedback(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	feedbacks, total, err := services.GetFeedbackService().GetMine(userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, feedbacks, page, pageSize, total)
}

// GetAllFeedback handles GET /api/v1/feedback (staff only)
func GetAllFeedback(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	page, pageSize := paginationParams(c)
	unresolvedOnly := c.Query("unresolved") == "true"

	feedbacks, total, err := services.GetFeedbackService().GetAll(userID, page, pageSize, unresolvedOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, feedbacks, page, pageSize, total)
}
