package emails

import (
	"errors"

	emailsvc "rightsdesk-backend/internal/application/emails"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *emailsvc.BroadcastService
}

// BroadcastRequest targets every collaborator with an email when collaboratorIds is empty.
type BroadcastRequest struct {
	Subject         string   `json:"subject" validate:"required,max=255"`
	Body            string   `json:"body" validate:"required"`
	CollaboratorIDs []string `json:"collaboratorIds" validate:"omitempty,dive,uuid"`
}

// Broadcast POST /api/emails/broadcast
func (h *Handlers) Broadcast(c *fiber.Ctx) error {
	var req BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	if err := validation.Struct(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	ids := make([]uuid.UUID, 0, len(req.CollaboratorIDs))
	for _, raw := range req.CollaboratorIDs {
		ids = append(ids, uuid.MustParse(raw))
	}

	b, err := h.Service.Send(c.UserContext(), emailsvc.BroadcastInput{
		Subject:         req.Subject,
		Body:            req.Body,
		CollaboratorIDs: ids,
		CreatedBy:       middleware.CurrentUserID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, emailsvc.ErrNoRecipients), errors.Is(err, emailsvc.ErrInvalidTemplate):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, emailsvc.ErrNotConfigured):
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("broadcast failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
	return response.SuccessCreated(c, "Broadcast sent", b, nil)
}

// List GET /api/emails/broadcasts
func (h *Handlers) List(c *fiber.Ctx) error {
	out, err := h.Service.List(c.UserContext())
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("list broadcasts failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
	return response.Success(c, "Broadcasts fetched", out, fiber.Map{"count": len(out)})
}
