package response

import (
	"strings"

	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	return ErrorWithCode(c, message, statusCode, "", details)
}

// ErrorWithCode is Error with a machine-readable code, e.g. the first failed split rule.
func ErrorWithCode(c *fiber.Ctx, message string, statusCode int, code string, details interface{}) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// Forbidden sends 403 with the same shape as other errors.
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusForbidden, nil)
}

// InvalidRequest sends 400 for a body that failed to parse or failed its validate tags.
// Field errors go in details and the first failing tag becomes the code.
func InvalidRequest(c *fiber.Ctx, err error) error {
	fields := validation.Errors(err)
	if len(fields) == 0 {
		return Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	return ErrorWithCode(c, fields[0].Message, fiber.StatusBadRequest, "INVALID_"+strings.ToUpper(fields[0].Tag), fields)
}
