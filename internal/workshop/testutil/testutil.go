package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-workshop/internal/middleware"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "nimo-workshop-jwt-secret-key-2024"

// SetupTestDB creates an isolated sqlite database in a temp directory.
// The file is removed with the temp dir when the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "workshop_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.ItemDefinition{},
		&entity.StockItem{},
		&entity.Product{},
		&entity.ProductIngredient{},
		&entity.Order{},
		&entity.OrderItem{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "nimo-workshop",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", "user@test.com")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedDefinition creates an item definition in the database
func SeedDefinition(t *testing.T, db *gorm.DB, name string, category entity.ItemCategory) *entity.ItemDefinition {
	t.Helper()
	def := &entity.ItemDefinition{
		ID:       uuid.New().String(),
		Name:     name,
		Category: category,
	}
	if err := db.Create(def).Error; err != nil {
		t.Fatalf("Failed to seed item definition: %v", err)
	}
	return def
}

// SeedStock creates a stock item in the database. definitionID may be empty
// for legacy rows that predate the catalog.
func SeedStock(t *testing.T, db *gorm.DB, name string, width, height, price float64, definitionID string) *entity.StockItem {
	t.Helper()
	item := &entity.StockItem{
		ID:     uuid.New().String(),
		Name:   name,
		Width:  width,
		Height: height,
		Price:  price,
		Status: entity.StockStatusAvailable,
	}
	if definitionID != "" {
		item.ItemDefinitionID = &definitionID
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed stock item: %v", err)
	}
	return item
}

// SeedProduct creates a product with the given recipe lines
func SeedProduct(t *testing.T, db *gorm.DB, name string, price float64, ingredients ...entity.ProductIngredient) *entity.Product {
	t.Helper()
	product := &entity.Product{
		ID:    uuid.New().String(),
		Name:  name,
		Price: price,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	for i := range ingredients {
		ingredients[i].ID = uuid.New().String()
		ingredients[i].ProductID = product.ID
		if err := db.Create(&ingredients[i]).Error; err != nil {
			t.Fatalf("Failed to seed product ingredient: %v", err)
		}
	}
	return product
}

// SeedOrder creates an order with one line per (product, quantity) pair
func SeedOrder(t *testing.T, db *gorm.DB, name string, lines ...OrderLine) *entity.Order {
	t.Helper()
	order := &entity.Order{
		ID:     uuid.New().String(),
		Name:   name,
		Status: entity.OrderStatusDraft,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	for _, line := range lines {
		item := &entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("Failed to seed order item: %v", err)
		}
	}
	return order
}

// OrderLine is a (product, quantity) pair for SeedOrder
type OrderLine struct {
	ProductID string
	Quantity  float64
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}
