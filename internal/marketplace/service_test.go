package marketplace

import (
	"context"
	"testing"
	"time"

	"bricknest-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBrowseDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.TokenOffering{}, &domain.TokenListing{}))
	return db
}

func seedOffering(t *testing.T, db *gorm.DB, status string, total, sold int) *domain.TokenOffering {
	o := &domain.TokenOffering{
		PropertyID:    uuid.New(),
		LandlordID:    uuid.New(),
		TokenName:     "Canal House",
		TokenSymbol:   "CNLH",
		TotalTokens:   total,
		TokensSold:    sold,
		TokenPrice:    40,
		Currency:      "EUR",
		MinPurchase:   1,
		PropertyValue: 400000,
		RiskLevel:     domain.RiskLow,
		Status:        status,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func seedListing(t *testing.T, db *gorm.DB, status string, expiresAt *time.Time) *domain.TokenListing {
	l := &domain.TokenListing{
		InvestmentID:  uuid.New(),
		OfferingID:    uuid.New(),
		PropertyID:    uuid.New(),
		SellerID:      uuid.New(),
		Seller:        domain.ContactSnapshot{Name: "Sam Seller", Email: "sam@example.com"},
		TokensForSale: 25,
		PricePerToken: 45,
		TotalPrice:    1125,
		Currency:      "EUR",
		Status:        status,
		ListedAt:      time.Now(),
		ExpiresAt:     expiresAt,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

func TestBrowse_MergesOfficialAndP2P(t *testing.T) {
	db := setupBrowseDB(t)
	s := &Service{DB: db}

	seedOffering(t, db, domain.OfferingActive, 1000, 100)
	seedListing(t, db, domain.ListingActive, nil)

	items, err := s.Browse(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	types := map[string]int{}
	for _, item := range items {
		types[item.Type]++
	}
	assert.Equal(t, 1, types[ItemOfficial])
	assert.Equal(t, 1, types[ItemP2P])
}

func TestBrowse_FiltersClosedSoldOutAndExpired(t *testing.T) {
	db := setupBrowseDB(t)
	s := &Service{DB: db}

	seedOffering(t, db, domain.OfferingClosed, 1000, 100)
	seedOffering(t, db, domain.OfferingActive, 100, 100) // edge: sold out but not yet flipped
	past := time.Now().Add(-time.Hour)
	seedListing(t, db, domain.ListingActive, &past) // expired but unswept
	seedListing(t, db, domain.ListingSold, nil)

	items, err := s.Browse(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 0)
}

func TestBrowse_OfficialItemCarriesAvailability(t *testing.T) {
	db := setupBrowseDB(t)
	s := &Service{DB: db}
	seedOffering(t, db, domain.OfferingActive, 1000, 250)

	items, err := s.Browse(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ItemOfficial, items[0].Type)
	assert.Equal(t, 750, items[0].TokensForSale)
	assert.Equal(t, 40.0, items[0].PricePerToken)
	require.NotNil(t, items[0].Offering)
	assert.Nil(t, items[0].Listing)
}
