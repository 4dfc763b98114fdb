package properties

import (
	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/properties/create-property
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	var body struct {
		Title       string  `json:"title"`
		Address     string  `json:"address"`
		City        string  `json:"city"`
		Country     string  `json:"country"`
		Description *string `json:"description"`
		ImageURL    *string `json:"image_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	property, svcErr := h.Service.Create(c.Context(), CreateInput{
		LandlordID:  actorID,
		Title:       body.Title,
		Address:     body.Address,
		City:        body.City,
		Country:     body.Country,
		Description: body.Description,
		ImageURL:    body.ImageURL,
	})
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Property created successfully", property, nil)
}

// GET /api/v1/properties/get-property/:property_id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("property_id"))
	if err != nil {
		return response.Error(c, "Invalid property_id", 400, nil)
	}
	property, svcErr := h.Service.GetByID(c.Context(), propertyID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Property fetched", property, nil)
}

// GET /api/v1/properties/get-my-properties
func (h *Handlers) GetMyProperties(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, svcErr := h.Service.ListForLandlord(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Properties fetched", list, nil)
}
