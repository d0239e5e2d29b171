package user

import (
	"errors"

	policies "rightsdesk-backend/internal/application/policies/user"
	usersvc "rightsdesk-backend/internal/application/user"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers expose admin account management.
type Handlers struct {
	Service *usersvc.Service
}

// CreateUserRequest body.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
	Fullname string `json:"fullname" validate:"required,max=120"`
	Role     string `json:"role" validate:"omitempty,oneof=admin viewer"`
}

// UpdateRoleRequest body.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin viewer"`
}

// CreateUser POST /api/users
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	if err := validation.Struct(req); err != nil {
		return response.InvalidRequest(c, err)
	}
	u, err := h.Service.CreateUser(c.UserContext(), usersvc.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Fullname: req.Fullname,
		Role:     req.Role,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": u}, nil)
}

// ListUsers GET /api/users
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.Service.ListUsers(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Users fetched", fiber.Map{"users": users}, fiber.Map{"count": len(users)})
}

// UpdateRole PATCH /api/users/:id/role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	if err := validation.Struct(req); err != nil {
		return response.InvalidRequest(c, err)
	}
	actor, _ := middleware.CurrentUser(c)
	u, err := h.Service.UpdateUserRole(c.UserContext(), usersvc.UpdateUserRoleInput{
		ActorUserID:  actor.UserID,
		TargetUserID: targetID.String(),
		TargetRole:   req.Role,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User role updated", fiber.Map{"user": u}, nil)
}

// RemoveUser DELETE /api/users/:id
func (h *Handlers) RemoveUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	actor, _ := middleware.CurrentUser(c)
	if err := h.Service.RemoveUser(c.UserContext(), actor.UserID, targetID.String()); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User removed", nil, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usersvc.ErrInvalidEmail), errors.Is(err, usersvc.ErrInvalidPassword),
		errors.Is(err, usersvc.ErrFullnameEmpty), errors.Is(err, policies.ErrInvalidRole):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, usersvc.ErrEmailTaken):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, usersvc.ErrUserNotFound), errors.Is(err, policies.ErrTargetUserNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, policies.ErrUsersCannotModifyOwnRole), errors.Is(err, policies.ErrUsersCannotRemoveSelf),
		errors.Is(err, policies.ErrMustKeepOneAdmin):
		return response.Forbidden(c, err.Error())
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("user handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
}
