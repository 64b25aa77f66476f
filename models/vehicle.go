package models

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle represents an electric vehicle in the dealership catalog.
// Stock is the number of units available for sale; it is decremented when an
// order reserves a unit and restored when an unpaid order is cancelled.
type Vehicle struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ModelName       string         `gorm:"not null;index" json:"model_name"`
	TrimName        string         `gorm:"not null" json:"trim_name"`
	ModelYear       *int           `json:"model_year"`
	BasePrice       float64        `gorm:"not null" json:"base_price"`
	ImageURL        *string        `json:"image_url"`
	ImageS3Key      *string        `json:"image_s3_key"`                    // S3 key for uploaded vehicle photo
	BatteryCapacity int            `json:"battery_capacity"`                // kWh
	RangeKM         int            `json:"range_km"`
	ChargingTime    int            `json:"charging_time"`                   // minutes to 80%
	TopSpeed        int            `json:"top_speed"`                       // km/h
	Stock           int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}
