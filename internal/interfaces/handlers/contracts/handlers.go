package contracts

import (
	"errors"

	contractsvc "rightsdesk-backend/internal/application/contracts"
	"rightsdesk-backend/internal/application/esign"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service       *contractsvc.Service
	WebhookSecret string
}

type GenerateRequest struct {
	SongID             string `json:"songId" validate:"required,uuid"`
	SongCollaboratorID string `json:"songCollaboratorId" validate:"required,uuid"`
}

// Generate POST /api/contracts
func (h *Handlers) Generate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	if err := validation.Struct(&req); err != nil {
		return response.InvalidRequest(c, err)
	}
	contract, err := h.Service.Generate(c.UserContext(), uuid.MustParse(req.SongID), uuid.MustParse(req.SongCollaboratorID))
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Contract generated", contract, nil)
}

// List GET /api/contracts?songId=
func (h *Handlers) List(c *fiber.Ctx) error {
	var songID *uuid.UUID
	if raw := c.Query("songId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
		}
		songID = &id
	}
	out, err := h.Service.List(c.UserContext(), songID)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Contracts fetched", out, fiber.Map{"count": len(out)})
}

// Get GET /api/contracts/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid contract ID", fiber.StatusBadRequest, nil)
	}
	contract, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Contract fetched", contract, nil)
}

// Send POST /api/contracts/:id/send
func (h *Handlers) Send(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid contract ID", fiber.StatusBadRequest, nil)
	}
	contract, err := h.Service.Send(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Contract sent for signature", contract, nil)
}

// Webhook POST /api/webhooks/esignature. The signature covers the raw body.
func (h *Handlers) Webhook(c *fiber.Ctx) error {
	ev, err := esign.ParseEvent(h.WebhookSecret, c.Body(), c.Get(esign.SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, esign.ErrMissingSecret):
			log.Error().Msg("e-signature webhook received but ESIGN_WEBHOOK_SECRET is not set")
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		case errors.Is(err, esign.ErrInvalidSignature):
			log.Warn().Str("ip", c.IP()).Msg("e-signature webhook signature rejected")
			return response.Unauthorized(c, err.Error())
		default:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		}
	}
	if err := h.Service.HandleSignatureEvent(c.UserContext(), ev); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Event processed", fiber.Map{"received": true}, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, contractsvc.ErrSongNotFound), errors.Is(err, contractsvc.ErrCreditNotFound),
		errors.Is(err, contractsvc.ErrContractNotFound), errors.Is(err, contractsvc.ErrUnknownSignatureDoc):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, contractsvc.ErrMasterNotLocked):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, contractsvc.ErrContractNotDraft):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, contractsvc.ErrMissingSignerEmail):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, contractsvc.ErrESignNotConfigured):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("contracts handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
}
