package services

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// VehicleFilter narrows catalog listings.
type VehicleFilter struct {
	SearchTerm string
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	ActiveOnly bool
}

// VehicleInput carries catalog fields for create/update.
type VehicleInput struct {
	ModelName       string
	TrimName        string
	ModelYear       *int
	BasePrice       float64
	ImageURL        *string
	BatteryCapacity int
	RangeKM         int
	ChargingTime    int
	TopSpeed        int
	Stock           *int
	IsActive        *bool
}

// VehicleService manages the vehicle catalog. Stock mutation during the order
// lifecycle belongs to OrderService; this service only sets initial stock
// levels and catalog data.
type VehicleService struct {
	imageService ImageService
}

// NewVehicleService creates a vehicle service.
func NewVehicleService(imageService ImageService) *VehicleService {
	return &VehicleService{imageService: imageService}
}

var vehicleServiceInstance *VehicleService

// InitVehicleService initializes the package-level vehicle service.
func InitVehicleService(imageService ImageService) *VehicleService {
	vehicleServiceInstance = NewVehicleService(imageService)
	return vehicleServiceInstance
}

// GetVehicleService returns the initialized vehicle service instance
func GetVehicleService() *VehicleService {
	return vehicleServiceInstance
}

// ListVehicles lists catalog vehicles with optional filters. Public.
func (s *VehicleService) ListVehicles(page, pageSize int, filter *VehicleFilter) ([]models.Vehicle, int64, error) {
	db := config.GetDB()
	page, pageSize = normalizePagination(page, pageSize)

	query := db.Model(&models.Vehicle{})
	if filter != nil {
		if term := strings.ToLower(strings.TrimSpace(filter.SearchTerm)); term != "" {
			pattern := "%" + term + "%"
			query = query.Where("LOWER(model_name) LIKE ? OR LOWER(trim_name) LIKE ?", pattern, pattern)
		}
		if filter.MinPrice != nil {
			query = query.Where("base_price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			query = query.Where("base_price <= ?", *filter.MaxPrice)
		}
		if filter.InStock {
			query = query.Where("stock > 0")
		}
		if filter.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vehicles []models.Vehicle
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&vehicles).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range vehicles {
		s.resolveImageURL(&vehicles[i])
	}
	return vehicles, total, nil
}

// GetVehicleByID returns one catalog vehicle.
func (s *VehicleService) GetVehicleByID(vehicleID uint) (*models.Vehicle, error) {
	db := config.GetDB()

	var vehicle models.Vehicle
	if err := db.First(&vehicle, vehicleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Vehicle with ID %d not found", vehicleID))
		}
		return nil, err
	}
	s.resolveImageURL(&vehicle)
	return &vehicle, nil
}

// CreateVehicle adds a vehicle to the catalog. Staff only.
func (s *VehicleService) CreateVehicle(actorID uint, input *VehicleInput) (*models.Vehicle, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return nil, err
	}
	if input.BasePrice <= 0 {
		return nil, InvalidStateError("Vehicle base price must be positive")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, InvalidStateError("Vehicle stock cannot be negative")
	}

	vehicle := models.Vehicle{
		ModelName:       input.ModelName,
		TrimName:        input.TrimName,
		ModelYear:       input.ModelYear,
		BasePrice:       input.BasePrice,
		ImageURL:        input.ImageURL,
		BatteryCapacity: input.BatteryCapacity,
		RangeKM:         input.RangeKM,
		ChargingTime:    input.ChargingTime,
		TopSpeed:        input.TopSpeed,
		IsActive:        true,
	}
	if input.Stock != nil {
		vehicle.Stock = *input.Stock
	}
	if input.IsActive != nil {
		vehicle.IsActive = *input.IsActive
	}

	if err := db.Create(&vehicle).Error; err != nil {
		return nil, err
	}

	log.Printf("Vehicle %d (%s %s) added to catalog by user %d", vehicle.ID, vehicle.ModelName, vehicle.TrimName, actorID)
	return &vehicle, nil
}

// UpdateVehicle updates catalog fields. Staff only. Price changes never touch
// existing order items: those hold frozen unit-price snapshots.
func (s *VehicleService) UpdateVehicle(actorID uint, vehicleID uint, input *VehicleInput) (*models.Vehicle, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return nil, err
	}

	vehicle, err := s.GetVehicleByID(vehicleID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(input.ModelName) != "" {
		updates["model_name"] = input.ModelName
	}
	if strings.TrimSpace(input.TrimName) != "" {
		updates["trim_name"] = input.TrimName
	}
	if input.ModelYear != nil {
		updates["model_year"] = *input.ModelYear
	}
	if input.BasePrice > 0 {
		updates["base_price"] = input.BasePrice
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.BatteryCapacity > 0 {
		updates["battery_capacity"] = input.BatteryCapacity
	}
	if input.RangeKM > 0 {
		updates["range_km"] = input.RangeKM
	}
	if input.ChargingTime > 0 {
		updates["charging_time"] = input.ChargingTime
	}
	if input.TopSpeed > 0 {
		updates["top_speed"] = input.TopSpeed
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, InvalidStateError("Vehicle stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := db.Model(vehicle).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetVehicleByID(vehicleID)
}

// ToggleVehicleStatus flips the active flag. Staff only.
func (s *VehicleService) ToggleVehicleStatus(actorID uint, vehicleID uint) (*models.Vehicle, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return nil, err
	}

	vehicle, err := s.GetVehicleByID(vehicleID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(vehicle).Update("is_active", !vehicle.IsActive).Error; err != nil {
		return nil, err
	}
	return s.GetVehicleByID(vehicleID)
}

// DeleteVehicle soft-deletes a catalog vehicle. Staff only.
func (s *VehicleService) DeleteVehicle(actorID uint, vehicleID uint) error {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return err
	}

	vehicle, err := s.GetVehicleByID(vehicleID)
	if err != nil {
		return err
	}
	if err := db.Delete(vehicle).Error; err != nil {
		return err
	}
	log.Printf("Vehicle %d removed from catalog by user %d", vehicleID, actorID)
	return nil
}

// SetVehicleImage stores the uploaded photo's S3 key on the vehicle. Staff
// only. The public URL is resolved on read via a presigned link.
func (s *VehicleService) SetVehicleImage(actorID uint, vehicleID uint, s3Key string) (*models.Vehicle, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return nil, err
	}

	vehicle, err := s.GetVehicleByID(vehicleID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(vehicle).Update("image_s3_key", s3Key).Error; err != nil {
		return nil, err
	}
	return s.GetVehicleByID(vehicleID)
}

// SetVehicleImageURL stores a direct photo URL on the vehicle, used when
// photos are served from local disk instead of S3. Staff only.
func (s *VehicleService) SetVehicleImageURL(actorID uint, vehicleID uint, url string) (*models.Vehicle, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "manage the vehicle catalog"); err != nil {
		return nil, err
	}

	vehicle, err := s.GetVehicleByID(vehicleID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(vehicle).Update("image_url", url).Error; err != nil {
		return nil, err
	}
	return s.GetVehicleByID(vehicleID)
}

// resolveImageURL fills ImageURL from the stored S3 key when no explicit URL
// is set. Presign failures only log; catalog reads never fail on image URLs.
func (s *VehicleService) resolveImageURL(vehicle *models.Vehicle) {
	if s.imageService == nil || vehicle.ImageS3Key == nil || *vehicle.ImageS3Key == "" {
		return
	}
	if vehicle.ImageURL != nil && *vehicle.ImageURL != "" {
		return
	}
	url, err := s.imageService.GetImageURL(*vehicle.ImageS3Key)
	if err != nil {
		log.Printf("Failed to presign image URL for vehicle %d: %v", vehicle.ID, err)
		return
	}
	if url != "" {
		vehicle.ImageURL = &url
	}
}
