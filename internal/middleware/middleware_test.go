package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth map[string]string

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if id, ok := s[token]; ok {
		return &models.User{ID: id}, nil
	}
	return nil, apperr.Unauthorized("Not authorized to access this route")
}

type stubPresence struct{ online []string }

func (s *stubPresence) MarkOnline(_ context.Context, userID string) error {
	s.online = append(s.online, userID)
	return nil
}

func whoAmI(c *fiber.Ctx) error {
	id, err := httpx.LocalString(c, LocalUserID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.SendString(id)
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Get("/me", AuthRequired(stubAuth{"good": "u1"}), whoAmI)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", fiber.StatusOK},
		{"lowercase scheme", "bearer good", fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"unknown token", "Bearer bad", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusUnauthorized {
				var body httpx.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "Not authorized to access this route", body.Error)
				assert.Equal(t, "unauthenticated", body.Code)
			}
		})
	}
}

func upgradeRequest(target string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func TestWebSocketAuth(t *testing.T) {
	presence := &stubPresence{}
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Get("/ws", WebSocketAuth(stubAuth{"good": "u1"}, presence), whoAmI)

	t.Run("plain request is refused", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/ws?token=good", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("bad token", func(t *testing.T) {
		resp, err := app.Test(upgradeRequest("/ws?token=bad"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, presence.online)
	})

	t.Run("query token marks online", func(t *testing.T) {
		resp, err := app.Test(upgradeRequest("/ws?token=good"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"u1"}, presence.online)
	})

	t.Run("header token", func(t *testing.T) {
		req := upgradeRequest("/ws")
		req.Header.Set("Authorization", "Bearer good")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestOriginAllowed(t *testing.T) {
	app := fiber.New()
	app.Use(OriginAllowed("https://campus.example.edu/, http://localhost:3000"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	tests := []struct {
		origin string
		status int
	}{
		{"", fiber.StatusNoContent},
		{"https://campus.example.edu", fiber.StatusNoContent},
		{"http://localhost:3000", fiber.StatusNoContent},
		{"https://evil.example.com", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.origin)
	}
}
