package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleManager  = "manager"
)

// User represents a user in the system (customer, dealer staff or manager)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	FullName     string         `gorm:"not null" json:"full_name"`
	Role         string         `gorm:"not null;default:'customer'" json:"role"` // "customer", "staff" or "manager"
	PhoneNumber  string         `json:"phone_number"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user holds a dealership role (staff or manager).
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleManager
}
