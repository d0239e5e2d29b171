package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	usersvc "rightsdesk-backend/internal/application/user"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*fiber.App, *usersvc.Service, *domain.User) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	svc := &usersvc.Service{DB: db}
	admin, err := svc.CreateUser(context.Background(), usersvc.CreateUserInput{
		Email: "admin@label.com", Password: "s3cret!pass", Fullname: "Admin", Role: constants.Admin,
	})
	require.NoError(t, err)

	h := &Handlers{Service: svc}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetSessionUser(c, middleware.SessionUser{UserID: admin.UserID.String(), Role: constants.Admin})
		return c.Next()
	})
	app.Post("/users", h.CreateUser)
	app.Get("/users", h.ListUsers)
	app.Patch("/users/:id/role", h.UpdateRole)
	app.Delete("/users/:id", h.RemoveUser)
	return app, svc, admin
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(b, &out)
	return resp.StatusCode, out
}

func TestCreateUser(t *testing.T) {
	app, _, _ := setup(t)

	status, out := do(t, app, "POST", "/users", map[string]string{
		"email": "viewer@label.com", "password": "s3cret!pass", "fullname": "viewer one",
	})
	assert.Equal(t, http.StatusCreated, status)
	u := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "viewer", u["role"])
	assert.Equal(t, "Viewer One", u["fullname"])
	assert.NotContains(t, u, "password_hash")

	status, out = do(t, app, "POST", "/users", map[string]string{
		"email": "viewer@label.com", "password": "s3cret!pass", "fullname": "Again",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", out["error"])
}

func TestCreateUser_Invalid(t *testing.T) {
	app, _, _ := setup(t)

	status, out := do(t, app, "POST", "/users", map[string]string{
		"email": "viewer@label.com", "password": "weak", "fullname": "V",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STRONG_PASSWORD", out["code"])
	details := out["details"].([]interface{})
	assert.Equal(t, "password", details[0].(map[string]interface{})["field"])
}

func TestUpdateRole_Self(t *testing.T) {
	app, _, admin := setup(t)
	status, _ := do(t, app, "PATCH", "/users/"+admin.UserID.String()+"/role", map[string]string{"role": "viewer"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUpdateRole_And_Remove(t *testing.T) {
	app, svc, _ := setup(t)
	v, err := svc.CreateUser(context.Background(), usersvc.CreateUserInput{Email: "v@label.com", Password: "s3cret!pass", Fullname: "V"})
	require.NoError(t, err)

	status, out := do(t, app, "PATCH", "/users/"+v.UserID.String()+"/role", map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", out["data"].(map[string]interface{})["user"].(map[string]interface{})["role"])

	status, _ = do(t, app, "DELETE", "/users/"+v.UserID.String(), nil)
	assert.Equal(t, http.StatusOK, status)

	status, out = do(t, app, "GET", "/users", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["metadata"].(map[string]interface{})["count"])

	status, _ = do(t, app, "DELETE", "/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
