package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

func run(t *testing.T, h fiber.Handler) (int, map[string]interface{}) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return resp.StatusCode, out
}

func TestInvalidRequest_FieldErrors(t *testing.T) {
	status, out := run(t, func(c *fiber.Ctx) error {
		return InvalidRequest(c, validation.Struct(&signup{Email: "nope", Role: "owner"}))
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "INVALID_EMAIL", out["code"])
	assert.Equal(t, "Invalid email format", out["error"])
	assert.Len(t, out["details"], 2)
}

func TestInvalidRequest_ParseError(t *testing.T) {
	status, out := run(t, func(c *fiber.Ctx) error {
		return InvalidRequest(c, errors.New("unexpected EOF"))
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", out["error"])
	assert.Nil(t, out["code"])
}

func TestSuccessShapes(t *testing.T) {
	status, out := run(t, func(c *fiber.Ctx) error {
		return SuccessCreated(c, "made", fiber.Map{"id": 1}, fiber.Map{"count": 1})
	})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "made", out["message"])
	assert.NotNil(t, out["metadata"])

	status, out = run(t, func(c *fiber.Ctx) error { return Forbidden(c, "no") })
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "no", out["error"])
}
