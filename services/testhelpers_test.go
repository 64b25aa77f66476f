package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Order{},
		&models.OrderItem{},
		&models.Invoice{},
		&models.Payment{},
		&models.Delivery{},
		&models.TestDrive{},
		&models.Feedback{},
		&models.Message{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

func createTestCustomer(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		FullName:     "Test Customer",
		Role:         models.RoleCustomer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return &user
}

func createTestStaff(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		FullName:     "Test Staff",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test staff: %v", err)
	}
	return &user
}

func createTestVehicle(t *testing.T, db *gorm.DB, price float64, stock int) *models.Vehicle {
	t.Helper()
	year := 2026
	vehicle := models.Vehicle{
		ModelName: "Volt S",
		TrimName:  "Long Range",
		ModelYear: &year,
		BasePrice: price,
		RangeKM:   520,
		Stock:     stock,
		IsActive:  true,
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("Failed to create test vehicle: %v", err)
	}
	return &vehicle
}

var paidOrderSeq int

// createPaidOrder seeds a confirmed order with a paid invoice, the state an
// order reaches after successful payment reconciliation.
func createPaidOrder(t *testing.T, db *gorm.DB, customer *models.User, vehicle *models.Vehicle) *models.Order {
	t.Helper()

	paidOrderSeq++
	order := models.Order{
		OrderNumber: fmt.Sprintf("ORD-20250101-%04d", paidOrderSeq),
		CustomerID:  customer.ID,
		Status:      models.OrderStatusConfirmed,
		TotalAmount: vehicle.BasePrice,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	item := models.OrderItem{OrderID: order.ID, VehicleID: vehicle.ID, UnitPrice: vehicle.BasePrice}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create test order item: %v", err)
	}

	invoice := models.Invoice{
		OrderID:       order.ID,
		CustomerID:    customer.ID,
		InvoiceNumber: fmt.Sprintf("INV-20250101-%04d", paidOrderSeq),
		TotalAmount:   vehicle.BasePrice,
		Status:        models.InvoiceStatusPaid,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("Failed to create test invoice: %v", err)
	}

	now := time.Now().UTC()
	payment := models.Payment{
		InvoiceID:       invoice.ID,
		Amount:          invoice.TotalAmount,
		Status:          models.PaymentStatusPaid,
		PaymentDate:     &now,
		PaymentIntentID: fmt.Sprintf("pi_seed_%d", order.ID),
		TransactionID:   fmt.Sprintf("pi_seed_%d", order.ID),
		PaymentMethod:   "card",
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return &order
}

// fakeGateway is an in-memory PaymentGateway for tests.
type fakeGateway struct {
	sessions       map[string]*CheckoutSession
	intents        map[string]*PaymentIntent
	createErr      error
	createdReqs    []*CheckoutSessionRequest
	sessionCounter int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions: make(map[string]*CheckoutSession),
		intents:  make(map[string]*PaymentIntent),
	}
}

func (g *fakeGateway) CreateCheckoutSession(req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.createdReqs = append(g.createdReqs, req)
	g.sessionCounter++
	session := &CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", g.sessionCounter),
		URL: fmt.Sprintf("https://checkout.example.com/c/pay/cs_test_%d", g.sessionCounter),
	}
	g.sessions[session.ID] = session
	return session, nil
}

func (g *fakeGateway) GetCheckoutSession(sessionID string) (*CheckoutSession, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, NotFoundError("Checkout session " + sessionID + " not found")
	}
	return session, nil
}

func (g *fakeGateway) GetPaymentIntent(paymentIntentID string) (*PaymentIntent, error) {
	intent, ok := g.intents[paymentIntentID]
	if !ok {
		return nil, NotFoundError("Payment intent " + paymentIntentID + " not found")
	}
	return intent, nil
}

// addIntent registers an intent the fake processor will report.
func (g *fakeGateway) addIntent(id, status string, amount int64) {
	g.intents[id] = &PaymentIntent{ID: id, Status: status, Amount: amount, Currency: "usd"}
}
