package offerings

import (
	"time"

	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

type createOfferingBody struct {
	PropertyID        string   `json:"property_id"`
	TokenName         string   `json:"token_name"`
	TokenSymbol       string   `json:"token_symbol"`
	TotalTokens       int      `json:"total_tokens"`
	TokenPrice        float64  `json:"token_price"`
	Currency          string   `json:"currency"`
	MinPurchase       int      `json:"min_purchase"`
	MaxPurchase       *int     `json:"max_purchase"`
	PropertyValue     float64  `json:"property_value"`
	ExpectedReturn    *float64 `json:"expected_return"`
	DividendFrequency string   `json:"dividend_frequency"`
	RiskLevel         string   `json:"risk_level"`
	OfferingEndDate   *string  `json:"offering_end_date"`
}

// POST /api/v1/offerings/create-offering
func (h *Handlers) CreateOffering(c *fiber.Ctx) error {
	var body createOfferingBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	propertyID, err := uuid.Parse(body.PropertyID)
	if err != nil {
		return response.Error(c, "Invalid property_id", 400, nil)
	}
	var endDate *time.Time
	if body.OfferingEndDate != nil && *body.OfferingEndDate != "" {
		t, err := time.Parse(time.RFC3339, *body.OfferingEndDate)
		if err != nil {
			return response.Error(c, "Invalid offering_end_date", 400, nil)
		}
		endDate = &t
	}
	currency := body.Currency
	if currency == "" {
		currency = "EUR"
	}

	offering, err := h.Service.Create(c.Context(), CreateOfferingInput{
		LandlordID:        actorID,
		PropertyID:        propertyID,
		TokenName:         body.TokenName,
		TokenSymbol:       body.TokenSymbol,
		TotalTokens:       body.TotalTokens,
		TokenPrice:        body.TokenPrice,
		Currency:          currency,
		MinPurchase:       body.MinPurchase,
		MaxPurchase:       body.MaxPurchase,
		PropertyValue:     body.PropertyValue,
		ExpectedReturn:    body.ExpectedReturn,
		DividendFrequency: body.DividendFrequency,
		RiskLevel:         body.RiskLevel,
		OfferingEndDate:   endDate,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Offering created successfully", offering, nil)
}

// POST /api/v1/offerings/activate-offering
func (h *Handlers) ActivateOffering(c *fiber.Ctx) error {
	var body struct {
		OfferingID string `json:"offering_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.OfferingID == "" {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}
	offeringID, err := uuid.Parse(body.OfferingID)
	if err != nil {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	offering, svcErr := h.Service.Activate(c.Context(), offeringID, actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Offering activated successfully", offering, nil)
}

// POST /api/v1/offerings/close-offering
func (h *Handlers) CloseOffering(c *fiber.Ctx) error {
	var body struct {
		OfferingID string `json:"offering_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.OfferingID == "" {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}
	offeringID, err := uuid.Parse(body.OfferingID)
	if err != nil {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	offering, svcErr := h.Service.Close(c.Context(), offeringID, actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Offering closed successfully", offering, nil)
}

// GET /api/v1/offerings/get-offering/:offering_id
func (h *Handlers) GetOffering(c *fiber.Ctx) error {
	offeringID, err := uuid.Parse(c.Params("offering_id"))
	if err != nil {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}
	offering, svcErr := h.Service.GetByID(c.Context(), offeringID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Offering fetched successfully", offering, nil)
}

// GET /api/v1/offerings/get-active-offerings
func (h *Handlers) GetActiveOfferings(c *fiber.Ctx) error {
	offerings, err := h.Service.ListActive(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Active offerings fetched", offerings, nil)
}

// GET /api/v1/offerings/get-my-offerings
func (h *Handlers) GetMyOfferings(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	offerings, svcErr := h.Service.ListForLandlord(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Offerings fetched successfully", offerings, nil)
}
