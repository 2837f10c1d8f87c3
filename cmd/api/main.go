package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"kasa/internal/config"
	"kasa/internal/database"
	"kasa/internal/handlers"
	"kasa/internal/logger"
	"kasa/internal/middleware"
	"kasa/internal/models"
	"kasa/internal/services"
	"kasa/internal/storage"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "kasa/internal/docs" // Import swagger docs
)

// @title           Kasa API
// @version         1.0
// @description     Kasa is a personal finance ledger for tracking income and expense transactions with receipt images, shared reference data, and a full audit trail.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

// newBlobStore picks the receipt blob backend from configuration.
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET must be set when STORAGE_BACKEND=gcs")
		}
		return storage.NewGCSStore(context.Background(), cfg.GCSBucket)
	case "local", "":
		return storage.NewLocalStore(cfg.StorageRoot)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Receipt blob storage
	blobs, err := newBlobStore(appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	receiptStore := storage.NewReceiptStore(blobs)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	subcategoryService := services.NewSubcategoryService(db)
	paymentMethodService := services.NewPaymentMethodService(db)
	transactionService := services.NewTransactionService(db, receiptStore, subcategoryService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(paymentMethodService)
	subcategoryHandler := handlers.NewSubcategoryHandler(subcategoryService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Transaction routes. Restore and purge are admin-only; export is
	// manager-or-above. The role gate answers 404 for everyone else.
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/export", middleware.RequireRole(models.Role.CanExport), transactionHandler.ExportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/restore", middleware.RequireRole(models.Role.CanRestore), transactionHandler.RestoreTransaction)
	transactions.DELETE("/:id/purge", middleware.RequireRole(models.Role.CanHardDelete), transactionHandler.PurgeTransaction)
	transactions.GET("/:id/receipt", transactionHandler.DownloadReceipt)

	// Payment method routes
	paymentMethods := protected.Group("/payment-methods")
	paymentMethods.GET("", paymentMethodHandler.ListPaymentMethods)
	paymentMethods.GET("/:id", paymentMethodHandler.GetPaymentMethodByID)
	paymentMethods.POST("", middleware.RequireRole(models.Role.CanHardDelete), paymentMethodHandler.CreatePaymentMethod)
	paymentMethods.DELETE("/:id", middleware.RequireRole(models.Role.CanHardDelete), paymentMethodHandler.DeletePaymentMethod)

	// Subcategory routes
	subcategories := protected.Group("/subcategories")
	subcategories.GET("", subcategoryHandler.ListSubcategories)
	subcategories.GET("/:id", subcategoryHandler.GetSubcategoryByID)
	subcategories.POST("", subcategoryHandler.CreateSubcategory)
	subcategories.PUT("/:id", middleware.RequireRole(models.Role.CanHardDelete), subcategoryHandler.UpdateSubcategory)
	subcategories.DELETE("/:id", middleware.RequireRole(models.Role.CanHardDelete), subcategoryHandler.DeleteSubcategory)

	// Audit log routes
	protected.POST("/export-log", middleware.RequireRole(models.Role.CanExport), auditHandler.RecordExport)
	auditLogs := protected.Group("/audit-logs")
	auditLogs.GET("", middleware.RequireRole(models.Role.CanHardDelete), auditHandler.ListAuditLogs)

	log.Infof("Starting Kasa backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
