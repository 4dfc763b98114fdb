package notifications

import (
	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Emitter *Emitter
}

// GET /api/v1/notifications/get-my-notifications
func (h *Handlers) GetMyNotifications(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, svcErr := h.Emitter.ListForRecipient(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Notifications fetched", list, nil)
}

// POST /api/v1/notifications/mark-read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	var body struct {
		NotificationID string `json:"notification_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	notificationID, err := uuid.Parse(body.NotificationID)
	if err != nil {
		return response.Error(c, "Invalid notification_id", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if svcErr := h.Emitter.MarkRead(c.Context(), notificationID, actorID); svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Notification marked as read", nil, nil)
}
