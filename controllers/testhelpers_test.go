package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
	"github.com/voltmotors/ev-dealer-api/tests/testutil"
)

// stubGateway is an in-memory payment gateway so controller tests never
// reach the real processor.
type stubGateway struct {
	sessions map[string]*services.CheckoutSession
	intents  map[string]*services.PaymentIntent
	counter  int
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		sessions: make(map[string]*services.CheckoutSession),
		intents:  make(map[string]*services.PaymentIntent),
	}
}

func (g *stubGateway) CreateCheckoutSession(req *services.CheckoutSessionRequest) (*services.CheckoutSession, error) {
	g.counter++
	session := &services.CheckoutSession{
		ID:  fmt.Sprintf("cs_ctrl_%d", g.counter),
		URL: fmt.Sprintf("https://checkout.example.com/c/pay/cs_ctrl_%d", g.counter),
	}
	g.sessions[session.ID] = session
	return session, nil
}

func (g *stubGateway) GetCheckoutSession(sessionID string) (*services.CheckoutSession, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, services.NotFoundError("Checkout session " + sessionID + " not found")
	}
	return session, nil
}

func (g *stubGateway) GetPaymentIntent(paymentIntentID string) (*services.PaymentIntent, error) {
	intent, ok := g.intents[paymentIntentID]
	if !ok {
		return nil, services.NotFoundError("Payment intent " + paymentIntentID + " not found")
	}
	return intent, nil
}

// setupControllerTest wires a fresh in-memory database and the service
// singletons the handlers resolve at call time.
func setupControllerTest(t *testing.T) (*gorm.DB, *stubGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	clock := services.NewRealClock()
	gateway := newStubGateway()

	services.InitAuthService(clock, "controller-test-secret")
	services.InitUserService()
	services.InitVehicleService(nil)
	services.InitOrderService(clock)
	services.InitPaymentService(clock, gateway, "http://localhost:8080")
	services.InitDeliveryService(clock)
	services.InitTestDriveService(clock)
	services.InitFeedbackService()
	services.InitDashboardService(clock)
	services.InitMessageService(clock)

	return db, gateway
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		FullName:     "Test User",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return &user
}

func seedVehicle(t *testing.T, db *gorm.DB, price float64, stock int) *models.Vehicle {
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
		t.Fatalf("Failed to seed vehicle: %v", err)
	}
	return &vehicle
}

// asUser injects the identity the auth middleware would have extracted.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		testutil.SetMockAuthContext(c, user.ID, user.Role)
		c.Next()
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v\nbody: %s", err, w.Body.String())
	}
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeBody(t, w)
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no error object: %s", w.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	response := decodeBody(t, w)
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no data object: %s", w.Body.String())
	}
	return data
}
