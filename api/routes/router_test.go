package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/internal/notifications"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	pkgauth "github.com/opsdeskhq/opsdesk-backend/pkg/auth"
	"github.com/opsdeskhq/opsdesk-backend/pkg/config"
	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
)

type routerFixture struct {
	handler http.Handler
	db      *gorm.DB
	cfg     *config.Config
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.JobPosting{},
		&models.ApplicationSequence{},
		&models.Application{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "opsdesk-test", ExpirationMinutes: 30}

	bus := events.NewBus()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	recruitmentSvc, err := recruitment.NewService(recruitment.ServiceParams{
		Repo: recruitment.NewRepository(gdb),
		Jobs: recruitment.NewJobRepository(gdb),
		Bus:  bus,
	})
	if err != nil {
		t.Fatalf("recruitment service: %v", err)
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo: inventory.NewRepository(gdb),
		Bus:  bus,
	})
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	notificationsSvc, err := notifications.NewService(notifications.ServiceParams{
		Repo: notifications.NewRepository(gdb),
	})
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	if _, err := notifications.RegisterWriter(notifications.WriterParams{
		Repo:        notifications.NewRepository(gdb),
		Log:         logg,
		Bus:         bus,
		OnSubmitted: true,
		OnLowStock:  true,
	}); err != nil {
		t.Fatalf("register writer: %v", err)
	}

	handler := NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		Recruitment:   recruitmentSvc,
		Inventory:     inventorySvc,
		Notifications: notificationsSvc,
	})
	return &routerFixture{handler: handler, db: gdb, cfg: cfg}
}

func (f *routerFixture) token(t *testing.T, role enums.ActorRole, name string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(f.cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		DisplayName: name,
		Role:        role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func (f *routerFixture) seedJob(t *testing.T) uuid.UUID {
	t.Helper()
	job := &models.JobPosting{ID: uuid.New(), Title: "Stockroom Lead", Department: "Operations", Status: enums.JobStatusOpen}
	if err := f.db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job.ID
}

func TestRouterPublicSubmitAndProtectedReview(t *testing.T) {
	f := newRouterFixture(t)
	jobID := f.seedJob(t)

	submit := f.do(t, http.MethodPost, "/api/v1/applications", "", map[string]string{
		"job_id":    jobID.String(),
		"full_name": "Ada Applicant",
		"email":     "ada@example.com",
	})
	if submit.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", submit.Code, submit.Body.String())
	}

	var submitted struct {
		Data struct {
			AnonymousID string `json:"anonymous_id"`
			FullName    string `json:"full_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(submit.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("unmarshal submit: %v", err)
	}
	if submitted.Data.FullName != "" {
		t.Fatal("public submit response must not echo personal fields")
	}

	// The review queue requires credentials.
	if resp := f.do(t, http.MethodGet, "/api/v1/applications/", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	// Warehouse staff have no access to recruitment.
	warehouse := f.token(t, enums.ActorRoleWarehouse, "Pat Porter")
	if resp := f.do(t, http.MethodGet, "/api/v1/applications/", warehouse, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for warehouse role, got %d", resp.Code)
	}

	hr := f.token(t, enums.ActorRoleHR, "Jane Reviewer")
	list := f.do(t, http.MethodGet, "/api/v1/applications/", hr, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", list.Code, list.Body.String())
	}

	id := submitted.Data.AnonymousID
	// Reveal is refused until the candidate reaches the interviewed stage.
	if resp := f.do(t, http.MethodPost, "/api/v1/applications/"+id+"/reveal", hr, nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 revealing new application, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := f.do(t, http.MethodPatch, "/api/v1/applications/"+id+"/status", hr, map[string]string{"status": "interviewed"}); resp.Code != http.StatusOK {
		t.Fatalf("status update failed: %d: %s", resp.Code, resp.Body.String())
	}

	reveal := f.do(t, http.MethodPost, "/api/v1/applications/"+id+"/reveal", hr, nil)
	if reveal.Code != http.StatusOK {
		t.Fatalf("reveal: expected 200, got %d: %s", reveal.Code, reveal.Body.String())
	}
	var revealed struct {
		Data struct {
			FullName   string  `json:"full_name"`
			RevealedBy *string `json:"revealed_by"`
		} `json:"data"`
	}
	if err := json.Unmarshal(reveal.Body.Bytes(), &revealed); err != nil {
		t.Fatalf("unmarshal reveal: %v", err)
	}
	if revealed.Data.FullName != "Ada Applicant" {
		t.Fatalf("revealed response missing personal fields: %s", reveal.Body.String())
	}
	if revealed.Data.RevealedBy == nil || *revealed.Data.RevealedBy != "Jane Reviewer" {
		t.Fatalf("reviewer identity not recorded: %s", reveal.Body.String())
	}
}

func TestRouterInventoryFlowWithLowStockNotification(t *testing.T) {
	f := newRouterFixture(t)
	warehouse := f.token(t, enums.ActorRoleWarehouse, "Pat Porter")

	upsert := f.do(t, http.MethodPost, "/api/v1/inventory/items", warehouse, map[string]any{
		"sku":          "SKU-001",
		"product_name": "Thermal Label Roll",
		"min_qty":      5,
		"unit_cost":    "3.50",
	})
	if upsert.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d: %s", upsert.Code, upsert.Body.String())
	}

	scan := f.do(t, http.MethodPost, "/api/v1/inventory/scan-in", warehouse, map[string]any{
		"sku": "SKU-001", "quantity": 10,
	})
	if scan.Code != http.StatusCreated {
		t.Fatalf("scan-in: expected 201, got %d: %s", scan.Code, scan.Body.String())
	}

	// Checking out 7 leaves 3 on hand, under the minimum of 5.
	checkout := f.do(t, http.MethodPost, "/api/v1/inventory/check-out", warehouse, map[string]any{
		"sku": "SKU-001", "quantity": 7,
	})
	if checkout.Code != http.StatusCreated {
		t.Fatalf("check-out: expected 201, got %d: %s", checkout.Code, checkout.Body.String())
	}
	var movement struct {
		Data struct {
			LowStock bool `json:"low_stock"`
		} `json:"data"`
	}
	if err := json.Unmarshal(checkout.Body.Bytes(), &movement); err != nil {
		t.Fatalf("unmarshal check-out: %v", err)
	}
	if !movement.Data.LowStock {
		t.Fatal("expected low stock advisory")
	}

	// Overdraft refused with 422.
	overdraft := f.do(t, http.MethodPost, "/api/v1/inventory/check-out", warehouse, map[string]any{
		"sku": "SKU-001", "quantity": 4,
	})
	if overdraft.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraft: expected 422, got %d: %s", overdraft.Code, overdraft.Body.String())
	}

	// The low stock movement produced a feed entry.
	feed := f.do(t, http.MethodGet, "/api/v1/notifications/", warehouse, nil)
	if feed.Code != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d: %s", feed.Code, feed.Body.String())
	}
	var notificationsPayload struct {
		Data struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(feed.Body.Bytes(), &notificationsPayload); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if notificationsPayload.Data.UnreadCount != 1 {
		t.Fatalf("expected one unread notification, got %d", notificationsPayload.Data.UnreadCount)
	}

	// Viewers can read the ledger but not move stock.
	viewer := f.token(t, enums.ActorRoleViewer, "Sam Viewer")
	if resp := f.do(t, http.MethodGet, "/api/v1/inventory/summary", viewer, nil); resp.Code != http.StatusOK {
		t.Fatalf("summary: expected 200 for viewer, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodPost, "/api/v1/inventory/scan-in", viewer, map[string]any{"sku": "SKU-001", "quantity": 1}); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer scan-in, got %d", resp.Code)
	}
}

func TestRouterHealthAndUnknownRoutes(t *testing.T) {
	f := newRouterFixture(t)

	if resp := f.do(t, http.MethodGet, "/health/live", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodGet, "/health/ready", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodGet, "/nope", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
