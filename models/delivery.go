package models

import (
	"time"

	"gorm.io/gorm"
)

// Delivery statuses. Flow: pending -> scheduled -> in_transit -> delivered.
// Cancelled is reachable from pending or scheduled only. Delivered and
// cancelled are terminal.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusScheduled = "scheduled"
	DeliveryStatusInTransit = "in_transit"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusCancelled = "cancelled"
)

// Delivery is the customer-requested shipment of a confirmed order (1:1 with
// the order). Created only by customer request, never by staff directly.
type Delivery struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderID         uint           `gorm:"not null;uniqueIndex" json:"order_id"`
	Order           Order          `gorm:"foreignKey:OrderID" json:"-"`
	Status          string         `gorm:"not null;default:'pending'" json:"status"`
	PlannedDate     *time.Time     `json:"planned_date"`
	ActualDate      *time.Time     `json:"actual_date"`
	ShippingAddress string         `gorm:"not null" json:"shipping_address"`
	Notes           string         `json:"notes"`       // customer notes
	StaffNotes      string         `json:"staff_notes"` // staff scheduling notes
	CreatedBy       *uint          `json:"created_by"`
	UpdatedBy       *uint          `json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Delivery model
func (Delivery) TableName() string {
	return "deliveries"
}
