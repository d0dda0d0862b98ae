package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/migration"
	"github.com/bitfantasy/ips-logistics/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "ips-logistics-test-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens a private in-memory SQLite database and runs the real migrations.
// A single connection keeps every query on the same in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.New().String(), "-", ""))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migration.Run(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter creates a gin router in test mode
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

// GenerateTestToken creates a valid access token for testing
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"roles": roles,
		"iss":   "ips-logistics",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// HeadToken returns a token for a coordinator
func HeadToken() string {
	return GenerateTestToken("test-head-001", "Test Head", []string{entity.RoleHead})
}

// WorkerToken returns a token for a site worker
func WorkerToken() string {
	return GenerateTestToken("test-worker-001", "Test Worker", []string{entity.RoleWorker})
}

// DriverToken returns a token for the given driver id
func DriverToken(driverID string) string {
	return GenerateTestToken(driverID, "Test Driver", []string{entity.RoleDriver})
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

// SeedMaterial creates a material
func SeedMaterial(t *testing.T, db *gorm.DB, id, name string, quantity int) *entity.Material {
	t.Helper()
	m := &entity.Material{ID: id, Name: name, Unit: "pcs", Quantity: quantity}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}

// SeedProject creates a project
func SeedProject(t *testing.T, db *gorm.DB, id, code string) *entity.Project {
	t.Helper()
	p := &entity.Project{ID: id, Code: code, Name: "Project " + code, Address: "Site " + code}
	if err := db.Omit("Materials").Create(p).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return p
}

// SeedAllocation creates a project material allocation
func SeedAllocation(t *testing.T, db *gorm.DB, projectID, materialID string, assigned, used int) *entity.ProjectMaterial {
	t.Helper()
	pm := &entity.ProjectMaterial{
		ID:               uuid.New().String()[:32],
		ProjectID:        projectID,
		MaterialID:       materialID,
		AssignedQuantity: assigned,
		QuantityUsed:     used,
	}
	if err := db.Omit("Material").Create(pm).Error; err != nil {
		t.Fatalf("Failed to seed allocation: %v", err)
	}
	return pm
}

// SeedUser creates a user with the given role; password is "secret"
func SeedUser(t *testing.T, db *gorm.DB, id, name, mail, role string) *entity.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u := &entity.User{ID: id, Name: name, Phone: "000", Password: string(hashed), Role: role}
	if mail != "" {
		u.Mail = &mail
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return u
}
