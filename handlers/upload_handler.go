package handlers

import (
	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/anjiri1684/mentora/storage"
	"github.com/gofiber/fiber/v2"
)

var uploadFolders = map[string]string{
	"avatar":    storage.FolderAvatars,
	"thumbnail": storage.FolderThumbnails,
	"material":  storage.FolderMaterials,
}

// GenerateUploadSignature creates a secure signature for a frontend upload.
// Course assets may only be uploaded by mentors.
func (h *Handler) GenerateUploadSignature(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if h.Uploads == nil {
		return apperrors.New(fiber.StatusServiceUnavailable, "Uploads are not configured")
	}

	kind := c.Query("kind", "avatar")
	folder, ok := uploadFolders[kind]
	if !ok {
		return apperrors.BadRequest("kind must be one of avatar, thumbnail, material")
	}
	if kind != "avatar" && actor.Role != models.RoleMentor {
		return apperrors.Forbidden("Only mentors can upload course assets")
	}

	signed, err := h.Uploads.SignUpload(folder)
	if err != nil {
		return err
	}
	return c.JSON(signed)
}
