package songs

import (
	"errors"
	"time"

	songsvc "rightsdesk-backend/internal/application/songs"
	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers expose the song catalog, collaborators and publishing entities.
type Handlers struct {
	Service *songsvc.Service
}

type CreateSongRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	ISRC        *string `json:"isrc" validate:"omitempty,len=12,alphanum"`
	ReleaseDate *string `json:"releaseDate" validate:"omitempty,datetime=2006-01-02"`
}

type AddCollaboratorRequest struct {
	CollaboratorID string `json:"collaboratorId" validate:"required,uuid"`
	Role           string `json:"role" validate:"required,song_role"`
}

type AttachEntityRequest struct {
	PublishingEntityID string `json:"publishingEntityId" validate:"required,uuid"`
}

type CreateCollaboratorRequest struct {
	FirstName      string   `json:"firstName" validate:"required,max=100"`
	MiddleName     *string  `json:"middleName" validate:"omitempty,max=100"`
	LastName       string   `json:"lastName" validate:"required,max=100"`
	StageName      *string  `json:"stageName" validate:"omitempty,max=120"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	CapableRoles   []string `json:"capableRoles" validate:"required,min=1,dive,song_role"`
	PROAffiliation *string  `json:"proAffiliation"`
	IPINumber      *string  `json:"ipiNumber" validate:"omitempty,numeric,min=9,max=11"`
	PublisherName  *string  `json:"publisherName"`
	Address        *string  `json:"address"`
}

type CreatePublishingEntityRequest struct {
	Name           string  `json:"name" validate:"required,max=191"`
	IsInternal     bool    `json:"isInternal"`
	PROAffiliation *string `json:"proAffiliation"`
	IPINumber      *string `json:"ipiNumber" validate:"omitempty,numeric,min=9,max=11"`
}

func parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}
	return validation.Struct(out)
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// CreateSong POST /api/songs
func (h *Handlers) CreateSong(c *fiber.Ctx) error {
	var req CreateSongRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	in := songsvc.CreateSongInput{Title: req.Title, ISRC: req.ISRC}
	if req.ReleaseDate != nil {
		d, _ := time.Parse("2006-01-02", *req.ReleaseDate)
		in.ReleaseDate = &d
	}
	song, err := h.Service.CreateSong(c.UserContext(), in)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Song created", song, nil)
}

// ListSongs GET /api/songs
func (h *Handlers) ListSongs(c *fiber.Ctx) error {
	songs, err := h.Service.ListSongs(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Songs fetched", songs, fiber.Map{"count": len(songs)})
}

// GetSong GET /api/songs/:id
func (h *Handlers) GetSong(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
	}
	song, err := h.Service.GetSong(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Song fetched", song, nil)
}

// AddCollaborator POST /api/songs/:id/collaborators
func (h *Handlers) AddCollaborator(c *fiber.Ctx) error {
	songID, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
	}
	var req AddCollaboratorRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	credit, err := h.Service.AddCollaborator(c.UserContext(), songID, uuid.MustParse(req.CollaboratorID), constants.SongRole(req.Role))
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Collaborator added to song", credit, nil)
}

// RemoveCollaborator DELETE /api/songs/:id/collaborators/:scId
func (h *Handlers) RemoveCollaborator(c *fiber.Ctx) error {
	songID, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
	}
	scID, ok := paramID(c, "scId")
	if !ok {
		return response.Error(c, "Invalid song collaborator ID", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.RemoveCollaborator(c.UserContext(), songID, scID); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Collaborator removed from song", nil, nil)
}

// AttachPublishingEntity POST /api/songs/:id/publishing-entities
func (h *Handlers) AttachPublishingEntity(c *fiber.Ctx) error {
	songID, ok := paramID(c, "id")
	if !ok {
		return response.Error(c, "Invalid song ID", fiber.StatusBadRequest, nil)
	}
	var req AttachEntityRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	row, err := h.Service.AttachPublishingEntity(c.UserContext(), songID, uuid.MustParse(req.PublishingEntityID))
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Publishing entity attached", row, nil)
}

// CreateCollaborator POST /api/collaborators
func (h *Handlers) CreateCollaborator(c *fiber.Ctx) error {
	var req CreateCollaboratorRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	roles := make([]constants.SongRole, 0, len(req.CapableRoles))
	for _, r := range req.CapableRoles {
		roles = append(roles, constants.SongRole(r))
	}
	collaborator, err := h.Service.CreateCollaborator(c.UserContext(), songsvc.CreateCollaboratorInput{
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		StageName:      req.StageName,
		Email:          req.Email,
		CapableRoles:   roles,
		PROAffiliation: req.PROAffiliation,
		IPINumber:      req.IPINumber,
		PublisherName:  req.PublisherName,
		Address:        req.Address,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Collaborator created", collaborator, nil)
}

// ListCollaborators GET /api/collaborators
func (h *Handlers) ListCollaborators(c *fiber.Ctx) error {
	out, err := h.Service.ListCollaborators(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Collaborators fetched", out, fiber.Map{"count": len(out)})
}

// CreatePublishingEntity POST /api/publishing-entities
func (h *Handlers) CreatePublishingEntity(c *fiber.Ctx) error {
	var req CreatePublishingEntityRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	entity, err := h.Service.CreatePublishingEntity(c.UserContext(), songsvc.CreatePublishingEntityInput{
		Name:           req.Name,
		IsInternal:     req.IsInternal,
		PROAffiliation: req.PROAffiliation,
		IPINumber:      req.IPINumber,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Publishing entity created", entity, nil)
}

// ListPublishingEntities GET /api/publishing-entities
func (h *Handlers) ListPublishingEntities(c *fiber.Ctx) error {
	out, err := h.Service.ListPublishingEntities(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Publishing entities fetched", out, fiber.Map{"count": len(out)})
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, songsvc.ErrInvalidRole), errors.Is(err, songsvc.ErrRoleNotCapable):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, songsvc.ErrSongNotFound), errors.Is(err, songsvc.ErrCollaboratorNotFound),
		errors.Is(err, songsvc.ErrPublishingEntityNotFound), errors.Is(err, songsvc.ErrCreditNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, songsvc.ErrDuplicateCredit), errors.Is(err, songsvc.ErrDuplicateEntity),
		errors.Is(err, songsvc.ErrDuplicateEntityName):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, songsvc.ErrSplitsLocked):
		return response.Forbidden(c, err.Error())
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("songs handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
}
