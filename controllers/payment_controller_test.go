package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
)

func paymentRouter(user *models.User) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/payments/success", PaymentSuccess)
	payments := v1.Group("/payments", asUser(user))
	{
		payments.POST("/checkout", CreateCheckoutSession)
		payments.POST("/confirm", ConfirmPayment)
	}
	return router
}

func placeOrder(t *testing.T, customer *models.User, vehicleID uint) uint {
	t.Helper()
	w := performJSON(orderRouter(customer), "POST", "/api/v1/orders", gin.H{"vehicle_id": vehicleID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to place order: %d %s", w.Code, w.Body.String())
	}
	return uint(dataField(t, w)["id"].(float64))
}

func TestCreateCheckoutSessionEndpoint(t *testing.T) {
	db, gateway := setupControllerTest(t)
	customer := seedUser(t, db, "buyer@example.com", models.RoleCustomer)
	other := seedUser(t, db, "other@example.com", models.RoleCustomer)
	vehicle := seedVehicle(t, db, 55000.0, 3)
	orderID := placeOrder(t, customer, vehicle.ID)

	w := performJSON(paymentRouter(customer), "POST", "/api/v1/payments/checkout", gin.H{"order_id": orderID})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, dataField(t, w)["checkout_url"], "https://checkout.example.com/")
	assert.Len(t, gateway.sessions, 1)

	// Only the order's customer can start a checkout.
	w = performJSON(paymentRouter(other), "POST", "/api/v1/payments/checkout", gin.H{"order_id": orderID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performJSON(paymentRouter(customer), "POST", "/api/v1/payments/checkout", gin.H{"order_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmPaymentEndpoint(t *testing.T) {
	db, gateway := setupControllerTest(t)
	customer := seedUser(t, db, "buyer@example.com", models.RoleCustomer)
	vehicle := seedVehicle(t, db, 55000.0, 3)
	orderID := placeOrder(t, customer, vehicle.ID)

	gateway.intents["pi_ok"] = &services.PaymentIntent{
		ID: "pi_ok", Status: "succeeded", Amount: 5500000, Currency: "usd",
	}

	w := performJSON(paymentRouter(customer), "POST", "/api/v1/payments/confirm", gin.H{
		"payment_intent_id": "pi_ok",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, float64(orderID), data["id"])

	var payment models.Payment
	assert.NoError(t, db.Where("payment_intent_id = ?", "pi_ok").First(&payment).Error)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)

	// A repeated confirmation finds no unpaid invoice for the intent.
	w = performJSON(paymentRouter(customer), "POST", "/api/v1/payments/confirm", gin.H{
		"payment_intent_id": "pi_ok",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))
}

func TestConfirmPaymentEndpointFailure(t *testing.T) {
	db, gateway := setupControllerTest(t)
	customer := seedUser(t, db, "buyer@example.com", models.RoleCustomer)
	vehicle := seedVehicle(t, db, 55000.0, 3)
	orderID := placeOrder(t, customer, vehicle.ID)

	gateway.intents["pi_declined"] = &services.PaymentIntent{
		ID: "pi_declined", Status: "requires_payment_method", Amount: 5500000, Currency: "usd",
	}

	w := performJSON(paymentRouter(customer), "POST", "/api/v1/payments/confirm", gin.H{
		"payment_intent_id": "pi_declined",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))

	// The failed outcome is persisted.
	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
}

func TestPaymentSuccessEndpoint(t *testing.T) {
	db, gateway := setupControllerTest(t)
	customer := seedUser(t, db, "buyer@example.com", models.RoleCustomer)
	vehicle := seedVehicle(t, db, 55000.0, 3)
	orderID := placeOrder(t, customer, vehicle.ID)

	w := performJSON(paymentRouter(customer), "POST", "/api/v1/payments/checkout", gin.H{
		"order_id": orderID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// The processor attaches the intent to the session after payment.
	var sessionID string
	for id := range gateway.sessions {
		sessionID = id
	}
	gateway.sessions[sessionID].PaymentIntentID = "pi_redirect"
	gateway.intents["pi_redirect"] = &services.PaymentIntent{
		ID: "pi_redirect", Status: "succeeded", Amount: 5500000, Currency: "usd",
	}

	w = performJSON(paymentRouter(customer), "GET", "/api/v1/payments/success?session_id="+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", dataField(t, w)["status"])

	// Missing or unknown session ids are rejected.
	w = performJSON(paymentRouter(customer), "GET", "/api/v1/payments/success", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performJSON(paymentRouter(customer), "GET", "/api/v1/payments/success?session_id=cs_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
