package handlers

import (
	"strings"
	"time"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/middleware"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = apperr.InvalidArg("Invalid request body")

func currentUser(c *fiber.Ctx) (string, error) {
	return httpx.LocalString(c, middleware.LocalUserID)
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return nil
}

// queryTime parses an optional RFC 3339 query value.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, apperr.InvalidArg("Invalid " + key + " timestamp")
	}
	t = t.UTC()
	return &t, nil
}

func userResponses(users []models.User) []models.UserResponse {
	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out
}

func list(c *fiber.Ctx, data interface{}, count int) error {
	return httpx.Success(c, fiber.StatusOK, data, fiber.Map{"count": count})
}

func message(c *fiber.Ctx, msg string, data interface{}) error {
	return httpx.Success(c, fiber.StatusOK, data, fiber.Map{"message": msg})
}
