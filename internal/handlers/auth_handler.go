package handlers

import (
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	result, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	result, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, result)
}

func (h *AuthHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	user, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, user.ToResponse())
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.authService.Logout(c.UserContext(), userID); err != nil {
		return httpx.FromError(c, err)
	}
	return message(c, "Logged out successfully", nil)
}
