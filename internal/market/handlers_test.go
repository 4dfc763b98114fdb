package market

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"bricknest-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketApp(f *marketFixture, actorID uuid.UUID, sweepKey string) *fiber.App {
	h := &Handlers{Service: f.svc, SweepAdminKey: sweepKey}
	app := fiber.New()
	app.Post("/api/v1/market/expire-listings", h.ExpireListings)
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id": actorID.String(),
			"role":    domain.RoleBuyer,
		})
		return c.Next()
	})
	app.Post("/api/v1/market/create-listing", h.CreateListing)
	app.Post("/api/v1/market/purchase-listing", h.PurchaseListing)
	app.Get("/api/v1/market/get-active-listings", h.GetActiveListings)
	return app
}

func marketPost(t *testing.T, app *fiber.App, path string, payload interface{}, headers map[string]string) int {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestCreateListing_Handler(t *testing.T) {
	f := setupMarketFixture(t)
	app := newMarketApp(f, f.seller.UserID, "")

	status := marketPost(t, app, "/api/v1/market/create-listing", map[string]interface{}{
		"investment_id":   f.investment.InvestmentID.String(),
		"tokens_for_sale": 50,
		"price_per_token": 60,
	}, nil)
	assert.Equal(t, fiber.StatusCreated, status)

	// over-listing the same holding is a 422
	status = marketPost(t, app, "/api/v1/market/create-listing", map[string]interface{}{
		"investment_id":   f.investment.InvestmentID.String(),
		"tokens_for_sale": 60,
		"price_per_token": 60,
	}, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestCreateListing_BadExpiry(t *testing.T) {
	f := setupMarketFixture(t)
	app := newMarketApp(f, f.seller.UserID, "")

	status := marketPost(t, app, "/api/v1/market/create-listing", map[string]interface{}{
		"investment_id":   f.investment.InvestmentID.String(),
		"tokens_for_sale": 10,
		"price_per_token": 60,
		"expires_at":      "tomorrow",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPurchaseListing_OwnListingGets400(t *testing.T) {
	f := setupMarketFixture(t)
	listing := f.list(t, 50, 60)
	app := newMarketApp(f, f.seller.UserID, "")

	status := marketPost(t, app, "/api/v1/market/purchase-listing", map[string]interface{}{
		"listing_id": listing.ListingID.String(),
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestExpireListings_RequiresAdminKey(t *testing.T) {
	f := setupMarketFixture(t)
	soon := time.Now().Add(time.Millisecond)
	_, err := f.svc.CreateListing(context.Background(), CreateListingInput{
		SellerID:      f.seller.UserID,
		InvestmentID:  f.investment.InvestmentID,
		TokensForSale: 10,
		PricePerToken: 60,
		ExpiresAt:     &soon,
	})
	require.NoError(t, err)

	app := newMarketApp(f, f.buyer.UserID, "sweep-secret")

	status := marketPost(t, app, "/api/v1/market/expire-listings", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status = marketPost(t, app, "/api/v1/market/expire-listings", nil, map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	time.Sleep(5 * time.Millisecond)
	status = marketPost(t, app, "/api/v1/market/expire-listings", nil, map[string]string{"X-Admin-Key": "sweep-secret"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestExpireListings_KeyUnsetAlwaysUnauthorized(t *testing.T) {
	f := setupMarketFixture(t)
	app := newMarketApp(f, f.buyer.UserID, "")

	status := marketPost(t, app, "/api/v1/market/expire-listings", nil, map[string]string{"X-Admin-Key": ""})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
