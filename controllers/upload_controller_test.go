package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/voltmotors/ev-dealer-api/utils"
)

func uploadRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/uploads/:filename", GetUploadedImage)
	return router
}

func getUpload(router *gin.Engine, filename string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/api/v1/uploads/"+filename, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetUploadedImage(t *testing.T) {
	originalDir := utils.UploadDir
	utils.UploadDir = t.TempDir()
	defer func() { utils.UploadDir = originalDir }()

	content := []byte("fake png bytes")
	err := os.WriteFile(filepath.Join(utils.UploadDir, "volt_s.png"), content, 0644)
	assert.NoError(t, err)

	w := getUpload(uploadRouter(), "volt_s.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	assert.Equal(t, content, w.Body.Bytes())
}

func TestGetUploadedImageContentTypes(t *testing.T) {
	originalDir := utils.UploadDir
	utils.UploadDir = t.TempDir()
	defer func() { utils.UploadDir = originalDir }()

	tests := []struct {
		filename    string
		contentType string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"photo.webp", "image/webp"},
	}

	router := uploadRouter()
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			err := os.WriteFile(filepath.Join(utils.UploadDir, tt.filename), []byte("data"), 0644)
			assert.NoError(t, err)

			w := getUpload(router, tt.filename)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
		})
	}
}

func TestGetUploadedImageRejections(t *testing.T) {
	originalDir := utils.UploadDir
	utils.UploadDir = t.TempDir()
	defer func() { utils.UploadDir = originalDir }()

	router := uploadRouter()

	// Unsupported extension.
	w := getUpload(router, "malware.exe")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FILE_TYPE")

	// Traversal attempts never reach the filesystem.
	w = getUpload(router, "..secrets.png")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FILENAME")

	// Missing file.
	w = getUpload(router, "nonexistent.png")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_NOT_FOUND")
}
