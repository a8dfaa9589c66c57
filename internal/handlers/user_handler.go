package handlers

import (
	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/Anchal0410/peer-connect/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfile updates user profile information
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	var input service.UpdateProfileInput
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, user.ToResponse())
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.userService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, user.ToResponse())
}

func (h *UserHandler) GetOnlineUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	users, err := h.userService.ListOnline(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, userResponses(users), len(users))
}

// SearchUsers matches name or email against query, with optional college and
// comma separated interests filters.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	users, err := h.userService.Search(c.UserContext(), userID, service.SearchInput{
		Query:     c.Query("query"),
		College:   c.Query("college"),
		Interests: validation.SplitCSV(c.Query("interests")),
		Limit:     c.QueryInt("limit", 0),
	})
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, userResponses(users), len(users))
}

func (h *UserHandler) GetSuggestions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	users, err := h.userService.Suggestions(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, userResponses(users), len(users))
}

type statusRequest struct {
	UserIDs []string `json:"user_ids"`
}

// GetUsersStatus returns {id: {is_online, last_active}} for the requested ids.
func (h *UserHandler) GetUsersStatus(c *fiber.Ctx) error {
	var input statusRequest
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	statuses, err := h.userService.Status(c.UserContext(), input.UserIDs)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, statuses)
}
