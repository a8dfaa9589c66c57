package handlers

import (
	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AvatarHandler struct {
	avatarService *service.AvatarService
}

func NewAvatarHandler(avatarService *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

// UploadMyAvatar takes a multipart "avatar" file.
func (h *AvatarHandler) UploadMyAvatar(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return httpx.FromError(c, apperr.InvalidArg("avatar file is required"))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.FromError(c, apperr.InvalidArg("Invalid avatar upload"))
	}
	defer f.Close()

	user, err := h.avatarService.Upload(c.UserContext(), userID, f)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, user.ToResponse())
}

func (h *AvatarHandler) DeleteMyAvatar(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	user, err := h.avatarService.Delete(c.UserContext(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, user.ToResponse())
}
