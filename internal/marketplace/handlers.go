package marketplace

import (
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// GET /api/v1/marketplace/browse
func (h *Handlers) Browse(c *fiber.Ctx) error {
	items, err := h.Service.Browse(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Marketplace fetched", items, nil)
}
