package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/services"
	"github.com/voltmotors/ev-dealer-api/utils"
)

// VehicleRequest represents the request body for creating or updating a vehicle
type VehicleRequest struct {
	ModelName       string  `json:"model_name" binding:"required"`
	TrimName        string  `json:"trim_name"`
	ModelYear       *int    `json:"model_year"`
	BasePrice       float64 `json:"base_price" binding:"required,gt=0"`
	ImageURL        *string `json:"image_url"`
	BatteryCapacity int     `json:"battery_capacity"`
	RangeKM         int     `json:"range_km"`
	ChargingTime    int     `json:"charging_time"`
	TopSpeed        int     `json:"top_speed"`
	Stock           *int    `json:"stock" binding:"omitempty,gte=0"`
	IsActive        *bool   `json:"is_active"`
}

func vehicleInputFromRequest(req *VehicleRequest) *services.VehicleInput {
	return &services.VehicleInput{
		ModelName:       req.ModelName,
		TrimName:        req.TrimName,
		ModelYear:       req.ModelYear,
		BasePrice:       req.BasePrice,
		ImageURL:        req.ImageURL,
		BatteryCapacity: req.BatteryCapacity,
		RangeKM:         req.RangeKM,
		ChargingTime:    req.ChargingTime,
		TopSpeed:        req.TopSpeed,
		Stock:           req.Stock,
		IsActive:        req.IsActive,
	}
}

// respondUploadError reports a photo validation or storage failure.
func respondUploadError(c *gin.Context, err error) {
	if uploadErr, ok := err.(*utils.FileUploadError); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    uploadErr.Code,
				"message": uploadErr.Message,
			},
		})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "EXTERNAL_SERVICE_ERROR",
			"message": "Failed to store image",
		},
	})
}

// ListVehicles handles GET /api/v1/vehicles - public catalog browsing
func ListVehicles(c *gin.Context) {
	page, pageSize := paginationParams(c)

	filter := &services.VehicleFilter{
		SearchTerm: c.Query("search"),
		InStock:    c.Query("in_stock") == "true",
		ActiveOnly: c.Query("include_inactive") != "true",
	}
	if v := c.Query("min_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &price
		}
	}
	if v := c.Query("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &price
		}
	}

	vehicles, total, err := services.GetVehicleService().ListVehicles(page, pageSize, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, vehicles, page, pageSize, total)
}

// GetVehicle handles GET /api/v1/vehicles/:id - public vehicle detail
func GetVehicle(c *gin.Context) {
	vehicleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	vehicle, err := services.GetVehicleService().GetVehicleByID(vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicle,
	})
}

// CreateVehicle handles POST /api/v1/vehicles (staff only)
func CreateVehicle(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	vehicle, err := services.GetVehicleService().CreateVehicle(actorID, vehicleInputFromRequest(&req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    vehicle,
	})
}

// UpdateVehicle handles PUT /api/v1/vehicles/:id (staff only)
func UpdateVehicle(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	vehicleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	vehicle, err := services.GetVehicleService().UpdateVehicle(actorID, vehicleID, vehicleInputFromRequest(&req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicle,
	})
}

// ToggleVehicleStatus handles PUT /api/v1/vehicles/:id/toggle (staff only)
func ToggleVehicleStatus(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	vehicleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	vehicle, err := services.GetVehicleService().ToggleVehicleStatus(actorID, vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicle,
	})
}

// DeleteVehicle handles DELETE /api/v1/vehicles/:id (staff only)
func DeleteVehicle(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	vehicleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := services.GetVehicleService().DeleteVehicle(actorID, vehicleID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

// UploadVehicleImage handles POST /api/v1/vehicles/:id/image (staff only).
// The photo is validated, pushed to storage and its key stored on the vehicle.
func UploadVehicleImage(c *gin.Context) {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	vehicleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "An image file is required in the 'image' form field",
			},
		})
		return
	}

	// Without S3 configured, photos land on local disk and are served from
	// the uploads route.
	if services.GetImageService() == nil {
		if err := utils.ValidateImageFile(fileHeader); err != nil {
			respondUploadError(c, err)
			return
		}
		filename, err := utils.SaveUploadedFile(fileHeader, utils.UploadDir)
		if err != nil {
			respondError(c, err)
			return
		}
		vehicle, err := services.GetVehicleService().SetVehicleImageURL(actorID, vehicleID, utils.GetImageURL(filename))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    vehicle,
		})
		return
	}

	imageKey, err := services.GetImageService().UploadImage(fileHeader)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	vehicle, err := services.GetVehicleService().SetVehicleImage(actorID, vehicleID, imageKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vehicle,
	})
}
