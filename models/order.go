package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. Confirmed is terminal on the happy path; delivery and
// feedback track post-confirmation progress separately.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order represents a vehicle purchase order.
// TotalAmount is frozen at creation time from the vehicle's base price and is
// never recomputed. Notes is an append-only log joined with newlines.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderNumber string         `gorm:"uniqueIndex;not null" json:"order_number"` // e.g. ORD-20260830-0001
	CustomerID  uint           `gorm:"not null;index" json:"customer_id"`
	Customer    User           `gorm:"foreignKey:CustomerID" json:"customer"`
	StaffID     *uint          `gorm:"index" json:"staff_id"` // assigned when staff takes the order
	Staff       *User          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Status      string         `gorm:"not null;default:'pending'" json:"status"`
	TotalAmount float64        `gorm:"not null" json:"total_amount"`
	Notes       string         `gorm:"type:text" json:"notes"`
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	Invoices    []Invoice      `gorm:"foreignKey:OrderID" json:"invoices"`
	Delivery    *Delivery      `gorm:"foreignKey:OrderID" json:"delivery,omitempty"`
	CreatedBy   *uint          `json:"created_by"`
	UpdatedBy   *uint          `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// HasPaidPayment reports whether any payment under the order's invoices has
// been paid. Invoices and their Payments must already be loaded.
func (o *Order) HasPaidPayment() bool {
	for _, inv := range o.Invoices {
		for _, p := range inv.Payments {
			if p.Status == PaymentStatusPaid {
				return true
			}
		}
	}
	return false
}

// OrderItem links an order to a vehicle. UnitPrice is a snapshot of the
// vehicle's base price at order time and must not change afterwards.
type OrderItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   uint           `gorm:"not null;index" json:"order_id"`
	VehicleID uint           `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle"`
	UnitPrice float64        `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
