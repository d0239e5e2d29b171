package splits

import (
	"errors"

	splitpolicy "rightsdesk-backend/internal/application/policies/splits"
	splitsvc "rightsdesk-backend/internal/application/splits"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers expose the split workflow.
type Handlers struct {
	Service *splitsvc.Service
}

type SplitRequest struct {
	SongCollaboratorID string   `json:"songCollaboratorId" validate:"required,uuid"`
	Percentage         *float64 `json:"percentage" validate:"required"`
}

type EntityRequest struct {
	PublishingEntityID string   `json:"publishingEntityId" validate:"required,uuid"`
	Percentage         *float64 `json:"percentage" validate:"required"`
}

type SavePublishingRequest struct {
	SongID             string          `json:"songId" validate:"required,uuid"`
	Splits             []SplitRequest  `json:"splits" validate:"dive"`
	PublishingEntities []EntityRequest `json:"publishingEntities" validate:"dive"`
	Version            *int            `json:"version" validate:"omitempty,min=1"`
}

type SaveMasterRequest struct {
	SongID           string         `json:"songId" validate:"required,uuid"`
	Splits           []SplitRequest `json:"splits" validate:"dive"`
	LabelMasterShare *float64       `json:"labelMasterShare"`
	Version          *int           `json:"version" validate:"omitempty,min=1"`
}

type LockRequest struct {
	SongID  string `json:"songId" validate:"required,uuid"`
	Action  string `json:"action" validate:"required"`
	Version *int   `json:"version" validate:"omitempty,min=1"`
}

func toSplits(in []SplitRequest) []splitsvc.SplitInput {
	out := make([]splitsvc.SplitInput, 0, len(in))
	for _, s := range in {
		out = append(out, splitsvc.SplitInput{
			SongCollaboratorID: uuid.MustParse(s.SongCollaboratorID),
			Percentage:         *s.Percentage,
		})
	}
	return out
}

func toEntities(in []EntityRequest) []splitsvc.EntityInput {
	out := make([]splitsvc.EntityInput, 0, len(in))
	for _, e := range in {
		out = append(out, splitsvc.EntityInput{
			PublishingEntityID: uuid.MustParse(e.PublishingEntityID),
			Percentage:         *e.Percentage,
		})
	}
	return out
}

func parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}
	return validation.Struct(out)
}

// SavePublishing POST /api/splits/publishing
func (h *Handlers) SavePublishing(c *fiber.Ctx) error {
	var req SavePublishingRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	view, err := h.Service.SavePublishingSplits(c.UserContext(), splitsvc.SavePublishingInput{
		SongID:   uuid.MustParse(req.SongID),
		Splits:   toSplits(req.Splits),
		Entities: toEntities(req.PublishingEntities),
		Version:  req.Version,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Publishing splits saved", view, nil)
}

// LockPublishing PATCH /api/splits/publishing
func (h *Handlers) LockPublishing(c *fiber.Ctx) error {
	var req LockRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	view, err := h.Service.SetPublishingLock(c.UserContext(), splitsvc.LockInput{
		SongID:  uuid.MustParse(req.SongID),
		Action:  req.Action,
		Version: req.Version,
	})
	if err != nil {
		return mapError(c, err)
	}
	msg := "Publishing splits locked"
	if req.Action == splitsvc.ActionUnlock {
		msg = "Publishing splits unlocked"
	}
	return response.Success(c, msg, view, nil)
}

// SaveMaster POST /api/splits/master
func (h *Handlers) SaveMaster(c *fiber.Ctx) error {
	var req SaveMasterRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	view, err := h.Service.SaveMasterSplits(c.UserContext(), splitsvc.SaveMasterInput{
		SongID:           uuid.MustParse(req.SongID),
		Splits:           toSplits(req.Splits),
		LabelMasterShare: req.LabelMasterShare,
		Version:          req.Version,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Master splits saved", view, nil)
}

// LockMaster PATCH /api/splits/master
func (h *Handlers) LockMaster(c *fiber.Ctx) error {
	var req LockRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	view, err := h.Service.SetMasterLock(c.UserContext(), splitsvc.LockInput{
		SongID:  uuid.MustParse(req.SongID),
		Action:  req.Action,
		Version: req.Version,
	})
	if err != nil {
		return mapError(c, err)
	}
	msg := "Master splits locked"
	if req.Action == splitsvc.ActionUnlock {
		msg = "Master splits unlocked"
	}
	return response.Success(c, msg, view, nil)
}

// Get GET /api/splits/:songId
func (h *Handlers) Get(c *fiber.Ctx) error {
	songID, err := uuid.Parse(c.Params("songId"))
	if err != nil {
		return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
	}
	view, err := h.Service.GetSplits(c.UserContext(), songID)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Splits fetched", view, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	var verr *splitpolicy.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ErrorWithCode(c, verr.Message, fiber.StatusBadRequest, verr.FirstCode(), verr.Result.Errors)
	case errors.Is(err, splitsvc.ErrInvalidAction),
		errors.Is(err, splitsvc.ErrUnknownSongCollaborator),
		errors.Is(err, splitsvc.ErrUnknownPublishingEntity):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, splitpolicy.ErrPublishingLocked),
		errors.Is(err, splitpolicy.ErrPublishingAlreadyLocked),
		errors.Is(err, splitpolicy.ErrPublishingNotLocked),
		errors.Is(err, splitpolicy.ErrMasterLocked),
		errors.Is(err, splitpolicy.ErrMasterAlreadyLocked):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, splitsvc.ErrSongNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, splitsvc.ErrVersionConflict):
		return response.ErrorWithCode(c, err.Error(), fiber.StatusConflict, "VERSION_CONFLICT", nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("splits handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
}
