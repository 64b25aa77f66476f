package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses.
const (
	InvoiceStatusPending  = "pending"
	InvoiceStatusUnpaid   = "unpaid"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusOverdue  = "overdue"
	InvoiceStatusCanceled = "canceled"
)

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Invoice belongs to exactly one order. CustomerID is duplicated from the
// order for query convenience. In practice one invoice is created per order.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       uint           `gorm:"not null;index" json:"order_id"`
	Order         Order          `gorm:"foreignKey:OrderID" json:"-"`
	CustomerID    uint           `gorm:"not null;index" json:"customer_id"`
	InvoiceNumber string         `gorm:"uniqueIndex;not null" json:"invoice_number"` // e.g. INV-20260830-0001
	TotalAmount   float64        `gorm:"not null" json:"total_amount"`
	Status        string         `gorm:"not null;default:'pending'" json:"status"`
	Notes         string         `json:"notes"`
	Payments      []Payment      `gorm:"foreignKey:InvoiceID" json:"payments"`
	CreatedBy     *uint          `json:"created_by"`
	UpdatedBy     *uint          `json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// HasPaymentForIntent reports whether the invoice already holds a payment row
// correlated to the given Stripe payment intent. Payments must be loaded.
func (i *Invoice) HasPaymentForIntent(paymentIntentID string) bool {
	for _, p := range i.Payments {
		if p.PaymentIntentID == paymentIntentID {
			return true
		}
	}
	return false
}

// Payment records the outcome of one external payment attempt against an
// invoice. Rows are created lazily when the confirmation callback arrives, so
// abandoned checkouts leave no orphans. At most one payment per invoice should
// ever reach the paid status.
type Payment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	InvoiceID       uint           `gorm:"not null;index" json:"invoice_id"`
	Invoice         Invoice        `gorm:"foreignKey:InvoiceID" json:"-"`
	Amount          float64        `gorm:"not null" json:"amount"`
	Status          string         `gorm:"not null;default:'pending'" json:"status"`
	PaymentDate     *time.Time     `json:"payment_date"`
	PaymentIntentID string         `gorm:"index" json:"payment_intent_id"` // external processor correlation id
	TransactionID   string         `json:"transaction_id"`
	PaymentMethod   string         `json:"payment_method"` // e.g. "card"
	CreatedBy       *uint          `json:"created_by"`
	UpdatedBy       *uint          `json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
