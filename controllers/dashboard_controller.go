package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
)

// GetDashboardStats handles GET /api/v1/dashboard - sales and engagement
// figures for staff. Accepts optional from/to query parameters (RFC 3339).
func GetDashboardStats(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	stats, err := services.GetDashboardService().GetStats(userID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
