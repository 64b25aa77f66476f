package models

import (
	"time"

	"gorm.io/gorm"
)

// Test drive statuses.
const (
	TestDriveStatusPending   = "pending"   // registered, waiting for staff confirmation
	TestDriveStatusConfirmed = "confirmed" // staff confirmed the appointment
	TestDriveStatusCompleted = "completed"
	TestDriveStatusCanceled  = "canceled"
)

// TestDrive is a customer's appointment to try a vehicle before buying.
type TestDrive struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CustomerID    uint           `gorm:"not null;index" json:"customer_id"`
	Customer      User           `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleID     uint           `gorm:"not null;index" json:"vehicle_id"`
	Vehicle       Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle"`
	StaffID       *uint          `gorm:"index" json:"staff_id"`
	Staff         *User          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	ScheduledDate time.Time      `gorm:"not null" json:"scheduled_date"`
	Status        string         `gorm:"not null;default:'pending'" json:"status"`
	Notes         string         `json:"notes"`
	CreatedBy     *uint          `json:"created_by"`
	UpdatedBy     *uint          `json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TestDrive model
func (TestDrive) TableName() string {
	return "test_drives"
}
