package smartlinks

import (
	"errors"

	linksvc "rightsdesk-backend/internal/application/smartlinks"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *linksvc.Service
}

type DestinationRequest struct {
	Platform string `json:"platform" validate:"required,max=50"`
	URL      string `json:"url" validate:"required,url"`
}

type CreateRequest struct {
	Slug         string               `json:"slug" validate:"omitempty,max=191,slug"`
	SongID       *string              `json:"songId" validate:"omitempty,uuid"`
	Title        string               `json:"title" validate:"required,max=255"`
	ArtistName   string               `json:"artistName" validate:"required,max=255"`
	ArtworkURL   *string              `json:"artworkUrl" validate:"omitempty,url"`
	Destinations []DestinationRequest `json:"destinations" validate:"required,min=1,dive"`
	Published    bool                 `json:"published"`
}

type UpdateRequest struct {
	Slug         *string              `json:"slug" validate:"omitempty,max=191,slug"`
	SongID       *string              `json:"songId" validate:"omitempty,uuid"`
	Title        *string              `json:"title" validate:"omitempty,max=255"`
	ArtistName   *string              `json:"artistName" validate:"omitempty,max=255"`
	ArtworkURL   *string              `json:"artworkUrl" validate:"omitempty,url"`
	Destinations []DestinationRequest `json:"destinations" validate:"omitempty,dive"`
	Published    *bool                `json:"published"`
}

func destinations(in []DestinationRequest) []domain.SmartLinkDestination {
	if in == nil {
		return nil
	}
	out := make([]domain.SmartLinkDestination, 0, len(in))
	for _, d := range in {
		out = append(out, domain.SmartLinkDestination{Platform: d.Platform, URL: d.URL})
	}
	return out
}

func optionalID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id := uuid.MustParse(*raw)
	return &id
}

func parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}
	return validation.Struct(out)
}

// Create POST /api/smart-links
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	link, err := h.Service.Create(c.UserContext(), linksvc.Input{
		Slug:         req.Slug,
		SongID:       optionalID(req.SongID),
		Title:        req.Title,
		ArtistName:   req.ArtistName,
		ArtworkURL:   req.ArtworkURL,
		Destinations: destinations(req.Destinations),
		Published:    req.Published,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Smart link created", link, fiber.Map{"url": h.Service.PublicURL(link.Slug)})
}

// Update PUT /api/smart-links/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid smart link ID", fiber.StatusBadRequest, nil)
	}
	var req UpdateRequest
	if err := parse(c, &req); err != nil {
		return response.InvalidRequest(c, err)
	}
	link, err := h.Service.Update(c.UserContext(), id, linksvc.UpdateInput{
		Slug:         req.Slug,
		SongID:       optionalID(req.SongID),
		Title:        req.Title,
		ArtistName:   req.ArtistName,
		ArtworkURL:   req.ArtworkURL,
		Destinations: destinations(req.Destinations),
		Published:    req.Published,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Smart link updated", link, fiber.Map{"url": h.Service.PublicURL(link.Slug)})
}

// List GET /api/smart-links
func (h *Handlers) List(c *fiber.Ctx) error {
	links, err := h.Service.List(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Smart links fetched", links, fiber.Map{"count": len(links)})
}

// Delete DELETE /api/smart-links/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid smart link ID", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Smart link deleted", nil, nil)
}

// Stats GET /api/smart-links/:id/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid smart link ID", fiber.StatusBadRequest, nil)
	}
	stats, err := h.Service.Stats(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Smart link stats fetched", stats, nil)
}

// Public GET /l/:slug, no session required.
func (h *Handlers) Public(c *fiber.Ctx) error {
	page, err := h.Service.Visit(c.UserContext(), c.Params("slug"))
	if err != nil {
		return mapError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return response.Success(c, "Smart link fetched", page, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, linksvc.ErrSmartLinkNotFound), errors.Is(err, linksvc.ErrSongNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, linksvc.ErrInvalidSlug), errors.Is(err, linksvc.ErrNoDestinations):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, linksvc.ErrSlugTaken):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("smart links handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, err.Error())
	}
}
