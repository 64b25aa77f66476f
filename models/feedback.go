package models

import (
	"time"

	"gorm.io/gorm"
)

// Feedback is a customer-submitted comment, optionally tied to one of the
// customer's confirmed orders. A non-nil ResolvedBy means it has been resolved;
// there is no separate boolean.
type Feedback struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID uint           `gorm:"not null;index" json:"customer_id"`
	Customer   User           `gorm:"foreignKey:CustomerID" json:"customer"`
	OrderID    *uint          `gorm:"index" json:"order_id"`
	Order      *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	ResolvedBy *uint          `json:"resolved_by"` // manager who resolved it
	Resolver   *User          `gorm:"foreignKey:ResolvedBy" json:"resolver,omitempty"`
	CreatedBy  *uint          `json:"created_by"`
	UpdatedBy  *uint          `json:"updated_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedbacks"
}
