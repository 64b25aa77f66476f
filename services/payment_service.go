package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// recentInvoiceWindow bounds the unpaid-invoice scan in ConfirmPayment.
const recentInvoiceWindow = 10

// maxImageURLLength is the processor's limit on line-item image URLs.
const maxImageURLLength = 2000

// PaymentService creates hosted checkout sessions and reconciles the
// processor's asynchronous payment results against local invoices and orders.
type PaymentService struct {
	clock   Clock
	gateway PaymentGateway
	baseURL string
}

// NewPaymentService creates a payment service.
func NewPaymentService(clock Clock, gateway PaymentGateway, baseURL string) *PaymentService {
	return &PaymentService{clock: clock, gateway: gateway, baseURL: baseURL}
}

var paymentServiceInstance *PaymentService

// InitPaymentService initializes the package-level payment service.
func InitPaymentService(clock Clock, gateway PaymentGateway, baseURL string) *PaymentService {
	paymentServiceInstance = NewPaymentService(clock, gateway, baseURL)
	return paymentServiceInstance
}

// GetPaymentService returns the initialized payment service instance
func GetPaymentService() *PaymentService {
	return paymentServiceInstance
}

// CreateCheckoutSession builds a hosted checkout session for the order and
// returns the URL the customer is redirected to. No local payment row is
// created here; that is deferred to ConfirmPayment so abandoned checkouts
// leave no orphaned rows.
func (s *PaymentService) CreateCheckoutSession(actorID uint, orderID uint) (string, error) {
	db := config.GetDB()

	var order models.Order
	err := db.Preload("Customer").
		Preload("Items.Vehicle").
		Preload("Invoices.Payments").
		First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return "", err
	}

	if order.CustomerID != actorID {
		return "", ForbiddenError("You don't have permission to pay for this order")
	}
	if order.Status == models.OrderStatusCancelled {
		return "", InvalidStateError("Cannot create payment for cancelled order")
	}
	if len(order.Invoices) == 0 {
		return "", InvalidStateError("Invoice not found for this order")
	}
	invoice := order.Invoices[0]
	for _, p := range invoice.Payments {
		if p.Status == models.PaymentStatusPaid {
			return "", InvalidStateError("This order has already been paid")
		}
	}

	req := &CheckoutSessionRequest{
		SuccessURL:        s.baseURL + "/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.baseURL + "/api/v1/orders/" + strconv.FormatUint(uint64(orderID), 10),
		CustomerEmail:     order.Customer.Email,
		ClientReferenceID: strconv.FormatUint(uint64(orderID), 10),
		Metadata: map[string]string{
			"order_id":   strconv.FormatUint(uint64(orderID), 10),
			"invoice_id": strconv.FormatUint(uint64(invoice.ID), 10),
		},
	}

	for _, item := range order.Items {
		name := strings.TrimSpace(item.Vehicle.ModelName + " - " + item.Vehicle.TrimName)
		line := CheckoutLineItem{
			Name:       name,
			UnitAmount: int64(item.UnitPrice * 100),
			Quantity:   1,
		}
		if item.Vehicle.ModelYear != nil {
			line.Description = fmt.Sprintf("%d Model", *item.Vehicle.ModelYear)
		}
		if url := item.Vehicle.ImageURL; url != nil && validImageURL(*url) {
			line.ImageURL = *url
		}
		req.Items = append(req.Items, line)
	}

	session, err := s.gateway.CreateCheckoutSession(req)
	if err != nil {
		return "", err
	}

	log.Printf("Checkout session %s created for order %d", session.ID, orderID)
	return session.URL, nil
}

// ConfirmCheckoutSession resolves a checkout session id from the success
// redirect into its payment intent and runs the reconciliation.
func (s *PaymentService) ConfirmCheckoutSession(sessionID string) (*models.Order, error) {
	session, err := s.gateway.GetCheckoutSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.PaymentIntentID == "" {
		return nil, InvalidStateError("Checkout session " + sessionID + " has no payment intent yet")
	}
	return s.ConfirmPayment(session.PaymentIntentID)
}

// ConfirmPayment is the reconciliation entry point invoked from the checkout
// success redirect. It retrieves the authoritative intent status from the
// processor, attaches a new payment row to the most recent unpaid invoice not
// already holding this intent, and settles payment, invoice and order state
// in one transaction. A repeated callback for the same intent finds no
// candidate invoice and cannot create a duplicate payment.
func (s *PaymentService) ConfirmPayment(paymentIntentID string) (*models.Order, error) {
	db := config.GetDB()

	intent, err := s.gateway.GetPaymentIntent(paymentIntentID)
	if err != nil {
		return nil, err
	}

	// Candidate: newest unpaid invoice without a payment for this intent.
	// The reconciliation deliberately mirrors the redirect-callback design:
	// the session metadata is not consulted here.
	var recent []models.Invoice
	err = db.Preload("Payments").
		Where("status <> ?", models.InvoiceStatusPaid).
		Order("created_at DESC").
		Limit(recentInvoiceWindow).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	for i := range recent {
		if !recent[i].HasPaymentForIntent(paymentIntentID) {
			invoice = &recent[i]
			break
		}
	}
	if invoice == nil {
		return nil, InvalidStateError("No unpaid invoice found for payment intent " + paymentIntentID)
	}

	now := s.clock.Now()
	succeeded := intent.Status == "succeeded"

	err = db.Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			InvoiceID:       invoice.ID,
			Amount:          invoice.TotalAmount,
			Status:          models.PaymentStatusPending,
			PaymentDate:     &now,
			PaymentIntentID: paymentIntentID,
			TransactionID:   paymentIntentID,
			PaymentMethod:   "card",
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		log.Printf("Created payment %d for invoice %d (intent %s)", payment.ID, invoice.ID, paymentIntentID)

		if succeeded {
			paymentUpdates := map[string]interface{}{
				"status":         models.PaymentStatusPaid,
				"payment_date":   now,
				"transaction_id": intent.ID,
			}
			if err := tx.Model(&payment).Updates(paymentUpdates).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
				Update("status", models.InvoiceStatusPaid).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", invoice.OrderID).
				Update("status", models.OrderStatusConfirmed).Error; err != nil {
				return err
			}
			return nil
		}

		// Negative outcome is persisted before the error is raised: the
		// failed payment, cancelled invoice and cancelled order survive.
		if err := tx.Model(&payment).
			Update("status", models.PaymentStatusFailed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
			Update("status", models.InvoiceStatusCanceled).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", invoice.OrderID).
			Update("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !succeeded {
		log.Printf("Payment failed for order %d with status %s", invoice.OrderID, intent.Status)
		return nil, InvalidStateError("Payment failed with status: " + intent.Status)
	}

	var order models.Order
	err = db.Preload("Customer").
		Preload("Staff").
		Preload("Items.Vehicle").
		Preload("Invoices.Payments").
		Preload("Delivery").
		First(&order, invoice.OrderID).Error
	if err != nil {
		return nil, err
	}

	log.Printf("Payment confirmed for order %d (intent %s)", order.ID, paymentIntentID)
	return &order, nil
}

// validImageURL reports whether the URL is safe to forward to the processor:
// absolute http(s) and within the length limit.
func validImageURL(url string) bool {
	if url == "" || len(url) > maxImageURLLength {
		return false
	}
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
