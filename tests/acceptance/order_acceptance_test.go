package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/controllers"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
	"github.com/voltmotors/ev-dealer-api/tests/testutil"
)

// OrderAcceptanceTestSuite defines the acceptance test suite for order endpoints
type OrderAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
	cfg    *config.Config
}

// SetupSuite runs once before all tests
func (suite *OrderAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	// Set test environment
	testutil.MustSetTestEnvironment(suite.T())
	os.Setenv("DATABASE_URL", "file::memory:")
	os.Setenv("JWT_SECRET", "acceptance-test-secret")
	os.Setenv("PORT", "8080")

	cfg, err := config.Load()
	suite.NoError(err)
	suite.cfg = cfg

	// Setup database
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{}, &models.Vehicle{}, &models.Order{}, &models.OrderItem{},
		&models.Invoice{}, &models.Payment{}, &models.Delivery{},
	)
	suite.NoError(err)

	config.SetDB(db)
	config.SetConfig(cfg)

	clock := services.NewRealClock()
	services.InitUserService()
	services.InitVehicleService(nil)
	services.InitOrderService(clock)

	// Create test server
	router := suite.createRouter()
	suite.server = httptest.NewServer(router)
}

// TearDownSuite runs once after all tests
func (suite *OrderAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *OrderAcceptanceTestSuite) SetupTest() {
	// Clean up database before each test
	suite.db.Exec("DELETE FROM order_items")
	suite.db.Exec("DELETE FROM orders")
	suite.db.Exec("DELETE FROM vehicles")
	suite.db.Exec("DELETE FROM users")

	customer := models.User{
		ID:           1,
		Email:        "customer@test.com",
		PasswordHash: "not-a-real-hash",
		FullName:     "Test Customer",
		Role:         models.RoleCustomer,
	}
	suite.NoError(suite.db.Create(&customer).Error)

	staff := models.User{
		ID:           2,
		Email:        "staff@test.com",
		PasswordHash: "not-a-real-hash",
		FullName:     "Test Advisor",
		Role:         models.RoleStaff,
	}
	suite.NoError(suite.db.Create(&staff).Error)
}

// createRouter creates the application router for acceptance testing
func (suite *OrderAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		// Order routes (using mock auth for acceptance testing)
		v1.POST("/orders", suite.mockAuthMiddleware(1, models.RoleCustomer), controllers.CreateOrder)
		v1.GET("/orders/my", suite.mockAuthMiddleware(1, models.RoleCustomer), controllers.GetMyOrders)
		v1.GET("/orders/:id", suite.mockAuthMiddleware(1, models.RoleCustomer), controllers.GetOrder)
		v1.POST("/orders/:id/cancel", suite.mockAuthMiddleware(1, models.RoleCustomer), controllers.CancelOrder)

		// Routes for staff scenarios
		v1.GET("/staff/orders", suite.mockAuthMiddleware(2, models.RoleStaff), controllers.GetAllOrders)
		v1.PUT("/staff/orders/:id/assign", suite.mockAuthMiddleware(2, models.RoleStaff), controllers.AssignStaff)
		v1.PUT("/staff/orders/:id/status", suite.mockAuthMiddleware(2, models.RoleStaff), controllers.UpdateOrderStatus)
	}

	return router
}

// mockAuthMiddleware simulates authentication for acceptance testing
func (suite *OrderAcceptanceTestSuite) mockAuthMiddleware(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

// makeRequest is a helper to make HTTP requests
func (suite *OrderAcceptanceTestSuite) makeRequest(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bodyReader)
	suite.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	var responseData map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&responseData)
	suite.NoError(err)
	resp.Body.Close()

	return resp, responseData
}

func (suite *OrderAcceptanceTestSuite) seedVehicle(stock int) models.Vehicle {
	year := 2026
	vehicle := models.Vehicle{
		ModelName: "Volt S",
		TrimName:  "Long Range",
		ModelYear: &year,
		BasePrice: 55000,
		RangeKM:   520,
		Stock:     stock,
		IsActive:  true,
	}
	suite.NoError(suite.db.Create(&vehicle).Error)
	return vehicle
}

// TestCompleteOrderWorkflow_Acceptance tests the order workflow from the
// customer and staff perspectives
func (suite *OrderAcceptanceTestSuite) TestCompleteOrderWorkflow_Acceptance() {
	vehicle := suite.seedVehicle(2)

	// Step 1: Customer places an order
	createBody := map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"notes":      "Acceptance test order",
	}

	resp, respData := suite.makeRequest("POST", "/api/v1/orders", createBody)

	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	assert.True(suite.T(), respData["success"].(bool))

	orderData := respData["data"].(map[string]interface{})
	orderID := int(orderData["id"].(float64))
	assert.Equal(suite.T(), "pending", orderData["status"])
	assert.Equal(suite.T(), 55000.0, orderData["total_amount"])
	assert.NotEmpty(suite.T(), orderData["order_number"])

	// Ordering reserves a unit
	var fresh models.Vehicle
	suite.NoError(suite.db.First(&fresh, vehicle.ID).Error)
	assert.Equal(suite.T(), 1, fresh.Stock)

	// Step 2: Customer lists their orders
	resp, respData = suite.makeRequest("GET", "/api/v1/orders/my", nil)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	orders := respData["data"].([]interface{})
	assert.Equal(suite.T(), 1, len(orders))

	pagination := respData["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), pagination["page"])
	assert.Equal(suite.T(), float64(10), pagination["page_size"])
	assert.Equal(suite.T(), float64(1), pagination["total"])

	// Step 3: Customer retrieves the specific order
	resp, respData = suite.makeRequest("GET", fmt.Sprintf("/api/v1/orders/%d", orderID), nil)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	retrievedOrder := respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(orderID), retrievedOrder["id"].(float64))

	// Customer and line item relationships are loaded
	customerData := retrievedOrder["customer"].(map[string]interface{})
	assert.Equal(suite.T(), "customer@test.com", customerData["email"])
	items := retrievedOrder["items"].([]interface{})
	assert.Equal(suite.T(), 1, len(items))

	// Step 4: Staff takes the order
	resp, respData = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/staff/orders/%d/assign", orderID), map[string]interface{}{
		"staff_id": 2,
	})

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), float64(2), respData["data"].(map[string]interface{})["staff_id"])

	// Step 5: Staff sees it in the full listing
	resp, respData = suite.makeRequest("GET", "/api/v1/staff/orders?status=pending", nil)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), 1, len(respData["data"].([]interface{})))
}

// TestCancelOrder_RestoresStock_Acceptance tests cancellation over real HTTP
func (suite *OrderAcceptanceTestSuite) TestCancelOrder_RestoresStock_Acceptance() {
	vehicle := suite.seedVehicle(1)

	resp, respData := suite.makeRequest("POST", "/api/v1/orders", map[string]interface{}{
		"vehicle_id": vehicle.ID,
	})
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderID := int(respData["data"].(map[string]interface{})["id"].(float64))

	var reserved models.Vehicle
	suite.NoError(suite.db.First(&reserved, vehicle.ID).Error)
	assert.Equal(suite.T(), 0, reserved.Stock)

	// Cancellation requires a reason
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/orders/%d/cancel", orderID), map[string]interface{}{})
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	assert.False(suite.T(), respData["success"].(bool))

	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/orders/%d/cancel", orderID), map[string]interface{}{
		"reason": "changed my mind",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	cancelled := respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), "cancelled", cancelled["status"])
	assert.Contains(suite.T(), cancelled["notes"], "Cancelled: changed my mind")

	// The unit goes back on the lot
	var restored models.Vehicle
	suite.NoError(suite.db.First(&restored, vehicle.ID).Error)
	assert.Equal(suite.T(), 1, restored.Stock)

	// A cancelled order cannot be cancelled again
	resp, respData = suite.makeRequest("POST", fmt.Sprintf("/api/v1/orders/%d/cancel", orderID), map[string]interface{}{
		"reason": "twice",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	assert.Equal(suite.T(), "INVALID_STATE", respData["error"].(map[string]interface{})["code"])
}

// TestListOrders_Pagination_Acceptance tests pagination with real HTTP requests
func (suite *OrderAcceptanceTestSuite) TestListOrders_Pagination_Acceptance() {
	vehicle := suite.seedVehicle(5)

	for i := 1; i <= 5; i++ {
		resp, _ := suite.makeRequest("POST", "/api/v1/orders", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"notes":      fmt.Sprintf("Order %d", i),
		})
		assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	}

	resp, respData := suite.makeRequest("GET", "/api/v1/orders/my?page=2&page_size=2", nil)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), 2, len(respData["data"].([]interface{})))

	pagination := respData["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(2), pagination["page"])
	assert.Equal(suite.T(), float64(2), pagination["page_size"])
	assert.Equal(suite.T(), float64(5), pagination["total"])
}

// TestOrderAcceptanceTestSuite runs the test suite
func TestOrderAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderAcceptanceTestSuite))
}
