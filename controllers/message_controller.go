package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
)

// SendMessageRequest represents the request body for sending a chat message
type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// SendMessage handles POST /api/v1/messages
func SendMessage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	message, err := services.GetMessageService().Send(userID, req.RecipientID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// GetConversation handles GET /api/v1/messages/:id - history with one user.
// Messages from that user are marked read as a side effect.
func GetConversation(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	otherID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page, pageSize := paginationParams(c)
	messages, total, err := services.GetMessageService().History(userID, otherID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := services.GetMessageService().MarkRead(userID, otherID); err != nil {
		respondError(c, err)
		return
	}

	respondList(c, messages, page, pageSize, total)
}

// GetConversations handles GET /api/v1/messages - the caller's inbox listing
func GetConversations(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	partners, err := services.GetMessageService().Conversations(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    partners,
	})
}

// GetUnreadCount handles GET /api/v1/messages/unread-count
func GetUnreadCount(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	count, err := services.GetMessageService().UnreadCount(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"unread_count": count},
	})
}
