package market

import (
	"time"

	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service       *Service
	SweepAdminKey string
}

type createListingBody struct {
	InvestmentID  string   `json:"investment_id"`
	TokensForSale int      `json:"tokens_for_sale"`
	PricePerToken float64  `json:"price_per_token"`
	Description   *string  `json:"description"`
	Tags          []string `json:"tags"`
	ExpiresAt     *string  `json:"expires_at"`
}

// POST /api/v1/market/create-listing
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	var body createListingBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	investmentID, err := uuid.Parse(body.InvestmentID)
	if err != nil {
		return response.Error(c, "Invalid investment_id", 400, nil)
	}
	var expiresAt *time.Time
	if body.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *body.ExpiresAt)
		if err != nil {
			return response.Error(c, "expires_at must be RFC3339", 400, nil)
		}
		expiresAt = &t
	}

	listing, svcErr := h.Service.CreateListing(c.Context(), CreateListingInput{
		SellerID:      actorID,
		InvestmentID:  investmentID,
		TokensForSale: body.TokensForSale,
		PricePerToken: body.PricePerToken,
		Description:   body.Description,
		Tags:          body.Tags,
		ExpiresAt:     expiresAt,
	})
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// POST /api/v1/market/update-listing
func (h *Handlers) UpdateListing(c *fiber.Ctx) error {
	var body struct {
		ListingID     string   `json:"listing_id"`
		PricePerToken *float64 `json:"price_per_token"`
		Description   *string  `json:"description"`
	}
	listingID, actorID, ok := parseListingAction(c, &body, &body.ListingID)
	if !ok {
		return nil
	}
	listing, err := h.Service.UpdateListing(c.Context(), UpdateListingInput{
		ListingID:     listingID,
		SellerID:      actorID,
		PricePerToken: body.PricePerToken,
		Description:   body.Description,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing updated", listing, nil)
}

// POST /api/v1/market/cancel-listing
func (h *Handlers) CancelListing(c *fiber.Ctx) error {
	var body struct {
		ListingID string `json:"listing_id"`
	}
	listingID, actorID, ok := parseListingAction(c, &body, &body.ListingID)
	if !ok {
		return nil
	}
	listing, err := h.Service.CancelListing(c.Context(), listingID, actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listing cancelled", listing, nil)
}

// POST /api/v1/market/purchase-listing
func (h *Handlers) PurchaseListing(c *fiber.Ctx) error {
	var body struct {
		ListingID string `json:"listing_id"`
		Tokens    *int   `json:"tokens"`
	}
	listingID, actorID, ok := parseListingAction(c, &body, &body.ListingID)
	if !ok {
		return nil
	}
	listing, investment, err := h.Service.Purchase(c.Context(), listingID, actorID, body.Tokens)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Purchase settled successfully", fiber.Map{
		"listing":    listing,
		"investment": investment,
	}, nil)
}

// POST /api/v1/market/expire-listings — cron entrypoint, guarded by the
// sweep admin key instead of a session.
func (h *Handlers) ExpireListings(c *fiber.Ctx) error {
	if h.SweepAdminKey == "" || c.Get("X-Admin-Key") != h.SweepAdminKey {
		return response.Unauthorized(c, "Unauthorized")
	}
	expired, err := h.Service.ExpireDue(c.Context(), time.Now())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Expiry sweep completed", fiber.Map{"expired": expired}, nil)
}

// GET /api/v1/market/get-listing/:listing_id
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing_id", 400, nil)
	}
	listing, svcErr := h.Service.GetByID(c.Context(), listingID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Listing fetched", listing, nil)
}

// GET /api/v1/market/get-active-listings
func (h *Handlers) GetActiveListings(c *fiber.Ctx) error {
	list, err := h.Service.ListActive(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Listings fetched", list, nil)
}

// GET /api/v1/market/get-my-listings
func (h *Handlers) GetMyListings(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, svcErr := h.Service.ListForSeller(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Listings fetched", list, nil)
}

func parseListingAction(c *fiber.Ctx, body interface{}, listingID *string) (uuid.UUID, uuid.UUID, bool) {
	if err := c.BodyParser(body); err != nil || *listingID == "" {
		_ = response.Error(c, "Invalid listing_id", 400, nil)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(*listingID)
	if err != nil {
		_ = response.Error(c, "Invalid listing_id", 400, nil)
		return uuid.Nil, uuid.Nil, false
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		_ = response.Unauthorized(c, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return id, actorID, true
}
