package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/bitfantasy/ips-logistics/internal/logistics/sse"
	"github.com/bitfantasy/ips-logistics/internal/logistics/testutil"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

func setupHandlerTest(t *testing.T) (*testutil.TestEnv, *sse.Hub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	hub := sse.NewHub(nil)

	tokens := security.NewTokenManager(security.TokenOptions{
		Secret:        testutil.JWTSecret,
		Issuer:        "ips-logistics",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
		ResetExpire:   15 * time.Minute,
	}, security.NewMemoryTokenStore())

	svc := service.NewServices(repository.NewRepositories(db), service.Dependencies{
		Hasher: security.NewBcryptHasher(bcrypt.MinCost),
		Tokens: tokens,
		Mailer: nopMailer{},
		Hub:    hub,
	})
	h := NewHandlers(svc, hub, nil)

	router := testutil.SetupRouter()
	h.RegisterRoutes(router.Group("/api/v1"), testutil.AuthGroup(router, "/api/v1"))
	return &testutil.TestEnv{DB: db, Router: router, T: t}, hub
}

func seedWorkflow(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	testutil.SeedMaterial(t, env.DB, "M-001", "Cement", 500)
	testutil.SeedProject(t, env.DB, "p1", "P-001")
	testutil.SeedAllocation(t, env.DB, "p1", "M-001", 100, 0)
	testutil.SeedUser(t, env.DB, "d1", "Driver One", "d1@example.com", entity.RoleDriver)
}

func dataMap(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object data, got %v", resp["data"])
	}
	return data
}

// TestUsageAssignmentDeliveryFlow 用料上报 -> 分配 -> 司机送达
func TestUsageAssignmentDeliveryFlow(t *testing.T) {
	env, _ := setupHandlerTest(t)
	seedWorkflow(t, env)
	head := testutil.HeadToken()

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/projects/p1/materials/use",
		map[string]interface{}{"material_id": "M-001", "amount": 40}, testutil.WorkerToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	request := dataMap(t, testutil.ParseResponse(w))["request"].(map[string]interface{})
	requestID := request["id"].(string)
	if request["status"] != entity.StatusPending {
		t.Fatalf("expected PENDING, got %v", request["status"])
	}

	assign := map[string]interface{}{
		"request_id":    requestID,
		"driver_id":     "d1",
		"quantity":      40,
		"delivery_date": time.Now().Add(24 * time.Hour).Format("2006-01-02"),
	}

	// 工人无权分配
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/deliveries", assign, testutil.WorkerToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/deliveries", assign, head)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	assignmentID := dataMap(t, testutil.ParseResponse(w))["id"].(string)

	assign["quantity"] = 1
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/deliveries", assign, head)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for over-assignment, got %d: %s", w.Code, w.Body.String())
	}

	// 其他司机不能更新
	w = testutil.DoRequest(env.Router, http.MethodPatch, "/api/v1/deliveries/"+assignmentID+"/status",
		map[string]string{"status": "ASSIGNED"}, testutil.DriverToken("d2"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	driver := testutil.DriverToken("d1")
	for _, status := range []string{"ASSIGNED", "SENT", "SENT"} {
		w = testutil.DoRequest(env.Router, http.MethodPatch, "/api/v1/deliveries/"+assignmentID+"/status",
			map[string]string{"status": status}, driver)
		if w.Code != http.StatusOK {
			t.Fatalf("status %s: expected 200, got %d: %s", status, w.Code, w.Body.String())
		}
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/deliveries/driver/d1/history", nil, head)
	history := testutil.ParseResponse(w)["data"].([]interface{})
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/deliveries/mine", nil, driver)
	mine := testutil.ParseResponse(w)["data"].([]interface{})
	if len(mine) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(mine))
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/deliver", nil, head)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/deliver", nil, head)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second delivery, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/projects/p1/summary", nil, head)
	summary := dataMap(t, testutil.ParseResponse(w))
	if summary["used_total"].(float64) != 80 {
		t.Fatalf("expected used_total 80, got %v", summary["used_total"])
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/activity/material_request/"+requestID, nil, head)
	list := dataMap(t, testutil.ParseResponse(w))
	if list["pagination"].(map[string]interface{})["total"].(float64) != 2 {
		t.Fatalf("expected 2 activity rows, got %v", list["pagination"])
	}
}

func TestNotFoundAndValidationMapping(t *testing.T) {
	env, _ := setupHandlerTest(t)
	seedWorkflow(t, env)
	token := testutil.WorkerToken()

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/requests/missing", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if code := testutil.ParseResponse(w)["code"].(float64); code != 40400 {
		t.Fatalf("expected code 40400, got %v", code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests",
		map[string]interface{}{"project_id": "p1", "material_id": "M-001", "quantity": 0}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/projects/p1/materials/use",
		map[string]interface{}{"material_id": "M-001", "amount": 101}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for usage over allocation, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	env, _ := setupHandlerTest(t)
	testutil.SeedUser(t, env.DB, "h1", "Head", "head@example.com", entity.RoleHead)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"mail": "head@example.com", "password": "wrong"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"mail": "head@example.com", "password": "secret"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := dataMap(t, testutil.ParseResponse(w))
	if data["role"] != entity.RoleHead {
		t.Fatalf("expected role head, got %v", data["role"])
	}
	access := data["access_token"].(string)

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, leaked := dataMap(t, testutil.ParseResponse(w))["password"]; leaked {
		t.Fatal("password hash must not be serialized")
	}

	// 刷新令牌不能当作访问令牌
	refresh := data["refresh_token"].(string)
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/auth/me", nil, refresh)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/auth/forgot-password",
		map[string]string{"mail": "nobody@example.com"}, "")
	if msg := dataMap(t, testutil.ParseResponse(w))["message"]; msg != service.ResetRequestedMessage {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestUserManagementRequiresHead(t *testing.T) {
	env, _ := setupHandlerTest(t)
	body := map[string]string{"name": "New Driver", "mail": "nd@example.com", "password": "pw", "role": "driver"}

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, testutil.WorkerToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/users", body, testutil.HeadToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := dataMap(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/users/drivers", nil, testutil.WorkerToken())
	if drivers := testutil.ParseResponse(w)["data"].([]interface{}); len(drivers) != 1 {
		t.Fatalf("expected 1 driver, got %d", len(drivers))
	}

	dev := testutil.GenerateTestToken("dev-1", "Dev", []string{"dev"})
	w = testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/users/"+id, nil, dev)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodDelete, "/api/v1/users/"+id, nil, dev)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestImportUploadAndExport(t *testing.T) {
	env, _ := setupHandlerTest(t)
	testutil.SeedProject(t, env.DB, "p1", "P-001")

	f := excelize.NewFile()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"序号", "编码", "名称", "单位", "数量"})
	f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, "M-001", "Cement", "bag", 10})
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "materials.xlsx")
	part.Write(xlsx.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/materials", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.HeadToken())
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if created := dataMap(t, testutil.ParseResponse(w))["created"].(float64); created != 1 {
		t.Fatalf("expected 1 created, got %v", created)
	}

	testutil.SeedAllocation(t, env.DB, "p1", "M-001", 10, 4)
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/projects/p1/report.xlsx", nil, testutil.HeadToken())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "P-001_materials.xlsx") {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	report, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer report.Close()
	rows, _ := report.GetRows(report.GetSheetName(0))
	if len(rows) != 2 || rows[1][5] != "6" {
		t.Fatalf("unexpected report rows %v", rows)
	}
}

func TestSSEStreamReceivesRequestEvents(t *testing.T) {
	env, hub := setupHandlerTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?token="+testutil.WorkerToken(), nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.Router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("SSE client did not register")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.PublishRequestUpdate("r1", "p1", entity.StatusPending, "create")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := w.Body.String()
	if !strings.Contains(out, "event: connected") || !strings.Contains(out, "event: material_request") {
		t.Fatalf("unexpected stream output: %s", out)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected client to be unregistered, got %d", hub.ClientCount())
	}
}
