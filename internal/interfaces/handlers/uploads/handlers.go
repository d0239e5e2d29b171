package uploads

import (
	"errors"

	uploadsvc "rightsdesk-backend/internal/application/uploads"
	"rightsdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.ArtworkService
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// UploadArtwork POST /api/uploads/artwork
func (h *Handlers) UploadArtwork(c *fiber.Ctx) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.SignArtworkUpload(c.UserContext(), req.FileName)
	if err != nil {
		switch {
		case errors.Is(err, uploadsvc.ErrInvalidFileName):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, uploadsvc.ErrStorageNotConfigured):
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		}
		log.Error().Err(err).Str("bucket", h.Service.Bucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
