package offerings

import (
	"context"
	"errors"
	"testing"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/notifications"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOfferingFixture(t *testing.T) (*Service, *gorm.DB, *domain.User, *domain.Property) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Property{}, &domain.TokenOffering{}, &domain.Notification{},
	))

	landlord := &domain.User{Fullname: "Lena Landlord", Email: "lena@example.com", PasswordHash: "x", Role: domain.RoleLandlord}
	require.NoError(t, db.Create(landlord).Error)

	property := &domain.Property{
		LandlordID: landlord.UserID,
		Title:      "Old Town Flats",
		Address:    "Kerkstraat 1",
		City:       "Amsterdam",
		Country:    "NL",
	}
	require.NoError(t, db.Create(property).Error)

	svc := &Service{DB: db, Notifier: &notifications.Emitter{DB: db}}
	return svc, db, landlord, property
}

func validInput(landlordID, propertyID uuid.UUID) CreateOfferingInput {
	return CreateOfferingInput{
		LandlordID:    landlordID,
		PropertyID:    propertyID,
		TokenName:     "Old Town Flats",
		TokenSymbol:   "otfl",
		TotalTokens:   1000,
		TokenPrice:    50,
		Currency:      "eur",
		PropertyValue: 750000,
	}
}

func TestCreateOffering_DraftWithDefaults(t *testing.T) {
	svc, _, landlord, property := setupOfferingFixture(t)

	offering, err := svc.Create(context.Background(), validInput(landlord.UserID, property.PropertyID))
	require.NoError(t, err)
	assert.Equal(t, domain.OfferingDraft, offering.Status)
	assert.Equal(t, "OTFL", offering.TokenSymbol)
	assert.Equal(t, "EUR", offering.Currency)
	assert.Equal(t, 1, offering.MinPurchase)
	assert.Equal(t, domain.RiskMedium, offering.RiskLevel)
	assert.Equal(t, 1000, offering.TokensAvailable)
}

func TestCreateOffering_Validation(t *testing.T) {
	svc, _, landlord, property := setupOfferingFixture(t)
	ctx := context.Background()

	cases := []func(*CreateOfferingInput){
		func(in *CreateOfferingInput) { in.TokenName = "" },
		func(in *CreateOfferingInput) { in.TokenSymbol = "x" },
		func(in *CreateOfferingInput) { in.TotalTokens = 0 },
		func(in *CreateOfferingInput) { in.TokenPrice = -1 },
		func(in *CreateOfferingInput) { in.Currency = "USD" },
		func(in *CreateOfferingInput) { in.MinPurchase = 2000 },
		func(in *CreateOfferingInput) { in.RiskLevel = "extreme" },
		func(in *CreateOfferingInput) { in.DividendFrequency = "weekly" },
	}
	for _, mutate := range cases {
		in := validInput(landlord.UserID, property.PropertyID)
		mutate(&in)
		_, err := svc.Create(ctx, in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	}
}

func TestCreateOffering_RequiresPropertyOwnership(t *testing.T) {
	svc, _, landlord, property := setupOfferingFixture(t)
	ctx := context.Background()

	in := validInput(uuid.New(), property.PropertyID)
	_, err := svc.Create(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	in = validInput(landlord.UserID, uuid.New())
	_, err = svc.Create(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestActivate_DraftOnly(t *testing.T) {
	svc, _, landlord, property := setupOfferingFixture(t)
	ctx := context.Background()

	offering, err := svc.Create(ctx, validInput(landlord.UserID, property.PropertyID))
	require.NoError(t, err)

	got, err := svc.Activate(ctx, offering.OfferingID, landlord.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferingActive, got.Status)
	require.NotNil(t, got.OfferingStartDate)

	_, err = svc.Activate(ctx, offering.OfferingID, landlord.UserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	_, err = svc.Activate(ctx, offering.OfferingID, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestClose_FromActiveOrFunded(t *testing.T) {
	svc, db, landlord, property := setupOfferingFixture(t)
	ctx := context.Background()

	offering, err := svc.Create(ctx, validInput(landlord.UserID, property.PropertyID))
	require.NoError(t, err)

	// draft cannot be closed
	_, err = svc.Close(ctx, offering.OfferingID, landlord.UserID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	_, err = svc.Activate(ctx, offering.OfferingID, landlord.UserID)
	require.NoError(t, err)
	got, err := svc.Close(ctx, offering.OfferingID, landlord.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferingClosed, got.Status)

	// funded also closes
	require.NoError(t, db.Model(&domain.TokenOffering{}).
		Where("offering_id = ?", offering.OfferingID).
		Update("status", domain.OfferingFunded).Error)
	got, err = svc.Close(ctx, offering.OfferingID, landlord.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferingClosed, got.Status)
}

func TestListViews(t *testing.T) {
	svc, _, landlord, property := setupOfferingFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput(landlord.UserID, property.PropertyID))
	require.NoError(t, err)
	in := validInput(landlord.UserID, property.PropertyID)
	in.TokenSymbol = "OTF2"
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, first.OfferingID, landlord.UserID)
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	mine, err := svc.ListForLandlord(ctx, landlord.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
