package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/services"
)

// respondError translates a service-layer error into the API envelope. Codes
// raised by services map onto fixed HTTP statuses; anything else is a 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "An unexpected error occurred"

	switch services.ErrorCode(err) {
	case services.CodeNotFound:
		status = http.StatusNotFound
		code = services.CodeNotFound
		message = err.Error()
	case services.CodeUnauthorized:
		status = http.StatusUnauthorized
		code = services.CodeUnauthorized
		message = err.Error()
	case services.CodeForbidden:
		status = http.StatusForbidden
		code = services.CodeForbidden
		message = err.Error()
	case services.CodeInvalidState:
		status = http.StatusBadRequest
		code = services.CodeInvalidState
		message = err.Error()
	case services.CodeExternalService:
		status = http.StatusBadGateway
		code = services.CodeExternalService
		message = err.Error()
	default:
		log.Printf("unhandled error: %v", err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondValidationError reports a request-binding failure.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondUnauthorized reports a missing or unusable identity in the request.
func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Could not extract user information",
		},
	})
}

// respondList wraps paginated data with its pagination metadata.
func respondList(c *gin.Context, data interface{}, page, pageSize int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// paginationParams reads page/page_size query parameters with defaults.
func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// idParam parses the named path parameter as an entity ID.
func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid " + name + " parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}
