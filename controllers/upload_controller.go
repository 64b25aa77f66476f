package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voltmotors/ev-dealer-api/utils"
)

// GetUploadedImage serves vehicle photos from local disk. It backs the
// /uploads/:filename route used when no S3 bucket is configured.
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		serveImageError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Reject path separators so requests cannot escape the upload directory.
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		serveImageError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	contentType := utils.ImageContentType(filename)
	if contentType == "application/octet-stream" {
		serveImageError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PNG, JPEG and WebP files are supported")
		return
	}

	filePath := filepath.Join(utils.UploadDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		serveImageError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(filePath)
}

func serveImageError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
