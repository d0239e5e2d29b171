package catalog

import (
	"errors"

	catalogsvc "rightsdesk-backend/internal/application/catalog"
	"rightsdesk-backend/internal/middleware"
	"rightsdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *catalogsvc.Service
}

// Search GET /api/catalog/search?q=&limit=
func (h *Handlers) Search(c *fiber.Ctx) error {
	tracks, err := h.Service.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 10))
	if err != nil {
		switch {
		case errors.Is(err, catalogsvc.ErrEmptyQuery):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, catalogsvc.ErrNotConfigured):
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("catalog search failed")
		return response.Error(c, "Catalog search failed", fiber.StatusBadGateway, nil)
	}
	return response.Success(c, "Tracks fetched", tracks, fiber.Map{"count": len(tracks)})
}
