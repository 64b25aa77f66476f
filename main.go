package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/controllers"
	"github.com/voltmotors/ev-dealer-api/middleware"
	"github.com/voltmotors/ev-dealer-api/models"
	"github.com/voltmotors/ev-dealer-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting EV Dealer API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
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
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	initServices(cfg)

	router := setupRouter(cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initServices wires the service singletons. S3 is optional; without
// credentials vehicle photos fall back to local disk.
func initServices(cfg *config.Config) {
	clock := services.NewRealClock()

	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		if _, err := services.InitS3Service(); err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(services.GetS3Service())
	} else {
		log.Println("AWS credentials not configured; serving vehicle photos from local disk")
	}

	gateway := services.InitPaymentGateway(cfg.StripeSecretKey)

	services.InitAuthService(clock, cfg.JWTSecret)
	services.InitUserService()
	services.InitVehicleService(services.GetImageService())
	services.InitOrderService(clock)
	services.InitPaymentService(clock, gateway, cfg.BaseURL)
	services.InitDeliveryService(clock)
	services.InitTestDriveService(clock)
	services.InitFeedbackService()
	services.InitDashboardService(clock)
	services.InitMessageService(clock)
}

// setupRouter builds the full route table. Split out of main so tests can
// exercise the same routing.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.BaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	authRequired := middleware.EnsureValidToken(cfg)
	staffOnly := middleware.RequireRole(models.RoleStaff, models.RoleManager)
	managerOnly := middleware.RequireRole(models.RoleManager)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
		}

		// Catalog browsing is public.
		v1.GET("/vehicles", controllers.ListVehicles)
		v1.GET("/vehicles/:id", controllers.GetVehicle)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		// Checkout success redirect arrives without a token.
		v1.GET("/payments/success", controllers.PaymentSuccess)

		users := v1.Group("/users", authRequired)
		{
			users.GET("/me", controllers.GetProfile)
			users.PUT("/me", controllers.UpdateProfile)
			users.GET("/staff", staffOnly, controllers.ListStaff)
			users.POST("/staff", managerOnly, controllers.CreateStaff)
			users.PUT("/staff/:id", managerOnly, controllers.UpdateStaff)
			users.DELETE("/staff/:id", managerOnly, controllers.DeleteStaff)
			users.GET("/customers", staffOnly, controllers.ListCustomers)
			users.GET("/:id", staffOnly, controllers.GetUser)
		}

		vehicles := v1.Group("/vehicles", authRequired, staffOnly)
		{
			vehicles.POST("", controllers.CreateVehicle)
			vehicles.PUT("/:id", controllers.UpdateVehicle)
			vehicles.PUT("/:id/toggle", controllers.ToggleVehicleStatus)
			vehicles.DELETE("/:id", controllers.DeleteVehicle)
			vehicles.POST("/:id/image", controllers.UploadVehicleImage)
		}

		orders := v1.Group("/orders", authRequired)
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("/my", controllers.GetMyOrders)
			orders.GET("", staffOnly, controllers.GetAllOrders)
			orders.GET("/:id", controllers.GetOrder)
			orders.POST("/:id/cancel", controllers.CancelOrder)
			orders.PUT("/:id/status", staffOnly, controllers.UpdateOrderStatus)
			orders.PUT("/:id/assign", staffOnly, controllers.AssignStaff)
			orders.GET("/:id/delivery", controllers.GetDeliveryForOrder)
		}

		payments := v1.Group("/payments", authRequired)
		{
			payments.POST("/checkout", controllers.CreateCheckoutSession)
			payments.POST("/confirm", controllers.ConfirmPayment)
		}

		deliveries := v1.Group("/deliveries", authRequired)
		{
			deliveries.POST("", controllers.RequestDelivery)
			deliveries.GET("", staffOnly, controllers.GetAllDeliveries)
			deliveries.GET("/:id", controllers.GetDelivery)
			deliveries.PUT("/:id/confirm", staffOnly, controllers.ConfirmDelivery)
			deliveries.PUT("/:id/status", staffOnly, controllers.UpdateDeliveryStatus)
			deliveries.POST("/:id/cancel", controllers.CancelDelivery)
		}

		testDrives := v1.Group("/test-drives", authRequired)
		{
			testDrives.POST("", controllers.RegisterTestDrive)
			testDrives.GET("/my", controllers.GetMyTestDrives)
			testDrives.GET("", staffOnly, controllers.GetAllTestDrives)
			testDrives.GET("/:id", controllers.GetTestDrive)
			testDrives.PUT("/:id/confirm", staffOnly, controllers.ConfirmTestDrive)
			testDrives.PUT("/:id/complete", staffOnly, controllers.CompleteTestDrive)
			testDrives.POST("/:id/cancel", controllers.CancelTestDrive)
		}

		feedback := v1.Group("/feedback", authRequired)
		{
			feedback.POST("", controllers.CreateFeedback)
			feedback.GET("/my", controllers.GetMyFeedback)
			feedback.GET("", staffOnly, controllers.GetAllFeedback)
			feedback.PUT("/:id/resolve", managerOnly, controllers.ResolveFeedback)
			feedback.DELETE("/:id", controllers.DeleteFeedback)
		}

		messages := v1.Group("/messages", authRequired)
		{
			messages.POST("", controllers.SendMessage)
			messages.GET("", controllers.GetConversations)
			messages.GET("/unread-count", controllers.GetUnreadCount)
			messages.GET("/:id", controllers.GetConversation)
		}

		v1.GET("/dashboard", authRequired, staffOnly, controllers.GetDashboardStats)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "EV Dealer API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
