package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kasa/internal/handlers"
	"kasa/internal/logger"
	"kasa/internal/middleware"
	"kasa/internal/models"
	"kasa/internal/services"
	"kasa/internal/storage"
	"kasa/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Blobs  storage.BlobStore
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.PaymentMethod{},
		&models.Subcategory{},
		&models.Transaction{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a blob store rooted in a temp directory.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}
	receiptStore := storage.NewReceiptStore(blobs)

	// Services
	userService := services.NewUserService(db)
	subcategoryService := services.NewSubcategoryService(db)
	paymentMethodService := services.NewPaymentMethodService(db)
	transactionService := services.NewTransactionService(db, receiptStore, subcategoryService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(paymentMethodService)
	subcategoryHandler := handlers.NewSubcategoryHandler(subcategoryService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

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

	paymentMethods := protected.Group("/payment-methods")
	paymentMethods.GET("", paymentMethodHandler.ListPaymentMethods)
	paymentMethods.GET("/:id", paymentMethodHandler.GetPaymentMethodByID)
	paymentMethods.POST("", middleware.RequireRole(models.Role.CanHardDelete), paymentMethodHandler.CreatePaymentMethod)
	paymentMethods.DELETE("/:id", middleware.RequireRole(models.Role.CanHardDelete), paymentMethodHandler.DeletePaymentMethod)

	subcategories := protected.Group("/subcategories")
	subcategories.GET("", subcategoryHandler.ListSubcategories)
	subcategories.GET("/:id", subcategoryHandler.GetSubcategoryByID)
	subcategories.POST("", subcategoryHandler.CreateSubcategory)
	subcategories.PUT("/:id", middleware.RequireRole(models.Role.CanHardDelete), subcategoryHandler.UpdateSubcategory)
	subcategories.DELETE("/:id", middleware.RequireRole(models.Role.CanHardDelete), subcategoryHandler.DeleteSubcategory)

	protected.POST("/export-log", middleware.RequireRole(models.Role.CanExport), auditHandler.RecordExport)
	auditLogs := protected.Group("/audit-logs")
	auditLogs.GET("", middleware.RequireRole(models.Role.CanHardDelete), auditHandler.ListAuditLogs)

	return &testApp{DB: db, Blobs: blobs, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// multipartRequest posts form fields plus an optional receipt file.
func (app *testApp) multipartRequest(t *testing.T, method, path string, fields map[string]string, fileName string, fileData []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("receipt", fileName)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// registerUserWithRole registers a user, promotes it directly in the database,
// and logs in again so the token carries the new role.
func (app *testApp) registerUserWithRole(t *testing.T, email, password string, role models.Role) (accessToken string, userID float64) {
	t.Helper()
	_, _, userID = app.registerUser(t, email, password)
	if err := app.DB.Model(&models.User{}).Where("id = ?", uint(userID)).Update("role", role).Error; err != nil {
		t.Fatalf("failed to promote user: %v", err)
	}
	accessToken, _ = app.loginUser(t, email, password)
	return accessToken, userID
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createPaymentMethod inserts a payment method directly and returns its ID.
func (app *testApp) createPaymentMethod(t *testing.T, name string) uint {
	t.Helper()
	pm := models.PaymentMethod{Name: name, IsActive: true}
	if err := app.DB.Create(&pm).Error; err != nil {
		t.Fatalf("failed to create payment method: %v", err)
	}
	return pm.ID
}

// pngBytes encodes a small solid-color PNG for upload tests.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// drain reads a response body fully, for endpoints that stream files.
func drain(t *testing.T, r io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return data
}
