package services

import (
	"fmt"
	"mime/multipart"

	"github.com/voltmotors/ev-dealer-api/utils"
)

// ImageService abstracts vehicle photo storage so controllers never talk
// to S3 directly.
type ImageService interface {
	// UploadImage validates the file and stores it, returning the storage key.
	UploadImage(fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL resolves a storage key into a browser-usable URL.
	GetImageURL(imageKey string) (string, error)

	// DeleteImage removes a stored photo. Blank keys are a no-op.
	DeleteImage(imageKey string) error
}

// S3ImageService stores vehicle photos in an S3 bucket.
type S3ImageService struct {
	s3Service S3Interface
}

var imageServiceInstance ImageService

// InitImageService wires the image service to an S3 backend. A nil
// instance means photos are served from local disk instead.
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{s3Service: s3Service}
	return imageServiceInstance
}

func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService swaps the instance, used by tests and to disable S3.
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

func (s *S3ImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	s3Key, err := s.s3Service.UploadFile(fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s3Key, nil
}

func (s *S3ImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

func (s *S3ImageService) DeleteImage(imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
