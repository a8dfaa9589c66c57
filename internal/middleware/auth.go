package middleware

import (
	"context"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LocalUserID is the c.Locals key holding the authenticated user id.
const LocalUserID = "userID"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// PresenceMarker marks a user online when their socket connects.
type PresenceMarker interface {
	MarkOnline(ctx context.Context, userID string) error
}

var errNotAuthorized = apperr.Unauthorized("Not authorized to access this route")

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthRequired gates HTTP routes on a valid bearer token.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return httpx.FromError(c, errNotAuthorized)
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return httpx.FromError(c, err)
		}

		c.Locals(LocalUserID, user.ID)
		return c.Next()
	}
}

// WebSocketAuth gates the socket handshake. The token comes from the "token"
// query parameter (browsers cannot set headers on upgrades) or the bearer
// header. A successful handshake marks the user online before upgrading.
func WebSocketAuth(auth Authenticator, presence PresenceMarker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			var ok bool
			if token, ok = bearerToken(c.Get(fiber.HeaderAuthorization)); !ok {
				return httpx.FromError(c, errNotAuthorized)
			}
		}

		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return httpx.FromError(c, err)
		}
		if err := presence.MarkOnline(c.UserContext(), user.ID); err != nil {
			return httpx.FromError(c, err)
		}

		c.Locals(LocalUserID, user.ID)
		return c.Next()
	}
}
