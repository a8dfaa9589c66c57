package handlers

import (
	"strings"

	"github.com/Anchal0410/peer-connect/internal/httpx"
	"github.com/Anchal0410/peer-connect/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// GetActivities lists active activities, newest first.
func (h *ActivityHandler) GetActivities(c *fiber.Ctx) error {
	page, err := h.activityService.List(c.UserContext(), c.Query("category"), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Success(c, fiber.StatusOK, page.Activities, fiber.Map{
		"count": len(page.Activities),
		"total": page.Total,
		"page":  page.Page,
		"pages": page.Pages,
	})
}

// GetUserActivities lists what user_id (default: the caller) has joined.
func (h *ActivityHandler) GetUserActivities(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if other := strings.TrimSpace(c.Query("user_id")); other != "" {
		userID = other
	}

	activities, err := h.activityService.ForUser(c.UserContext(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, activities, len(activities))
}

func (h *ActivityHandler) CreateActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	var input service.CreateActivityInput
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	activity, err := h.activityService.Create(c.UserContext(), userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, activity)
}

func (h *ActivityHandler) GetActivity(c *fiber.Ctx) error {
	activity, err := h.activityService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, activity)
}

func (h *ActivityHandler) UpdateActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	var input service.UpdateActivityInput
	if err := parseBody(c, &input); err != nil {
		return httpx.FromError(c, err)
	}

	activity, err := h.activityService.Update(c.UserContext(), userID, c.Params("id"), input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, activity)
}

func (h *ActivityHandler) DeleteActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.activityService.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return httpx.FromError(c, err)
	}
	return message(c, "Activity removed", nil)
}

func (h *ActivityHandler) JoinActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	activity, err := h.activityService.Join(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return message(c, "Successfully joined activity", activity)
}

func (h *ActivityHandler) LeaveActivity(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	activity, err := h.activityService.Leave(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return message(c, "Successfully left activity", activity)
}

// GetOnlineParticipants lists the participants currently online.
func (h *ActivityHandler) GetOnlineParticipants(c *fiber.Ctx) error {
	users, err := h.activityService.OnlineParticipants(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return list(c, userResponses(users), len(users))
}
