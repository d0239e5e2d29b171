package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	usersvc "rightsdesk-backend/internal/application/user"
	"rightsdesk-backend/internal/config"
	"rightsdesk-backend/internal/infrastructure/database"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const password = "Passw0rd!"

func newTestApp(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := &usersvc.Service{DB: db, Rdb: rdb}
	ctx := context.Background()
	_, err = users.CreateUser(ctx, usersvc.CreateUserInput{Email: "admin@label.test", Password: password, Fullname: "Ada Admin", Role: constants.Admin})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, usersvc.CreateUserInput{Email: "viewer@label.test", Password: password, Fullname: "Vic Viewer"})
	require.NoError(t, err)

	cfg := &config.Config{SessionSecret: "router-test-secret", LabelName: "Northside Records", SmartLinkBaseURL: "https://links.test"}
	return NewApp(cfg, Deps{DB: db, Rdb: rdb, Targets: VendorTargets(cfg)})
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, app *fiber.App, email string) *http.Cookie {
	t.Helper()
	resp := do(t, app, "POST", "/api/auth/login", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, "GET", "/health/json", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, ServiceName, health["service"])
	assert.Equal(t, "ok", health["status"])
	deps := health["dependencies"].(map[string]interface{})
	assert.Equal(t, "unconfigured", deps["spotify"].(map[string]interface{})["status"])
	assert.Equal(t, "connected", deps["database"].(map[string]interface{})["status"])

	resp = do(t, app, "GET", "/metrics", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, "GET", "/", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoutes_RequireSession(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/songs", "/api/collaborators", "/api/contracts", "/api/smart-links", "/api/users", "/api/emails/broadcasts"} {
		resp := do(t, app, "GET", path, nil, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := do(t, app, "GET", "/l/missing", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRoutes_RolePermissions(t *testing.T) {
	app := newTestApp(t)
	viewer := login(t, app, "viewer@label.test")
	admin := login(t, app, "admin@label.test")

	resp := do(t, app, "GET", "/api/songs", nil, viewer)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = do(t, app, "POST", "/api/songs", map[string]string{"title": "Night Drive"}, viewer)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp = do(t, app, "GET", "/api/users", nil, viewer)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = do(t, app, "POST", "/api/songs", map[string]string{"title": "Night Drive"}, admin)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = do(t, app, "GET", "/api/users", nil, admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, "GET", "/api/auth/me", nil, admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoutes_UnconfiguredVendors(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin@label.test")

	resp := do(t, app, "POST", "/api/emails/broadcast", map[string]string{"subject": "Hi", "body": "Hello"}, admin)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, app, "GET", "/api/catalog/search?q=night", nil, admin)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, app, "POST", "/api/uploads/artwork", map[string]string{"file_name": "cover.png"}, admin)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, app, "POST", "/api/webhooks/esignature", map[string]string{"event": "document.signed", "document_id": "d"}, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewApp_RecoversFromPanics(t *testing.T) {
	app := newTestApp(t)
	app.Get("/panics", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp := do(t, app, "GET", "/panics", nil, nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp = do(t, app, "GET", "/health/json", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
