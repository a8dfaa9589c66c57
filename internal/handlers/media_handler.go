package handlers

import (
	"strings"
	"time"

	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/Anchal0410/peer-connect/internal/storage"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MediaHandler struct {
	avatarService *service.AvatarService
	log           *zap.Logger
}

func NewMediaHandler(avatarService *service.AvatarService, log *zap.Logger) *MediaHandler {
	return &MediaHandler{avatarService: avatarService, log: log.Named("media")}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, "\"")
}

// GetAvatar streams avatars/<rest>. Matching If-None-Match gets a 304.
func (h *MediaHandler) GetAvatar(c *fiber.Ctx) error {
	key := storage.AvatarPrefix + "/" + strings.TrimSpace(c.Params("*"))

	obj, st, err := h.avatarService.Open(c.UserContext(), key)
	if err != nil {
		return httpx.FromError(c, err)
	}

	if st.ETag != "" {
		c.Set(fiber.HeaderETag, "\""+normalizeETag(st.ETag)+"\"")
		if inm := normalizeETag(c.Get(fiber.HeaderIfNoneMatch)); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set(fiber.HeaderLastModified, st.LastModified.UTC().Format(time.RFC1123))
	}

	// Keys are content-unique, so the bytes behind a URL never change.
	c.Set(fiber.HeaderCacheControl, "private, max-age=31536000, immutable")
	contentType := st.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)

	size := -1
	if st.Size > 0 {
		size = int(st.Size)
	}
	h.log.Debug("avatar served", zap.String("key", key), zap.Int("bytes", size))
	// fasthttp closes obj once the body has been written.
	c.Context().SetBodyStream(obj, size)
	return nil
}
