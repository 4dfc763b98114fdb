package portfolio

import (
	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// GET /api/v1/portfolio/get-portfolio
func (h *Handlers) GetPortfolio(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	portfolio, svcErr := h.Service.GetForInvestor(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Portfolio fetched", portfolio, nil)
}

// GET /api/v1/portfolio/get-investment/:investment_id
func (h *Handlers) GetInvestment(c *fiber.Ctx) error {
	investmentID, err := uuid.Parse(c.Params("investment_id"))
	if err != nil {
		return response.Error(c, "Invalid investment_id", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	investment, svcErr := h.Service.GetInvestment(c.Context(), investmentID, actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Investment fetched", investment, nil)
}
