package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"bricknest-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPortfolioDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.TokenInvestment{}))
	return db
}

func seedInvestment(t *testing.T, db *gorm.DB, investorID uuid.UUID, tokens, listed int, total float64, status string) *domain.TokenInvestment {
	inv := &domain.TokenInvestment{
		InvestorID:          investorID,
		PropertyID:          uuid.New(),
		OfferingID:          uuid.New(),
		TokensOwned:         tokens,
		TokensListed:        listed,
		PurchasePrice:       50,
		TotalInvestment:     total,
		OwnershipPercentage: 0.01,
		Currency:            "EUR",
		TransactionID:       "TXN-" + uuid.New().String(),
		PaymentStatus:       "confirmed",
		Status:              status,
		PurchaseDate:        time.Now(),
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func TestGetForInvestor_SummsActiveHoldingsOnly(t *testing.T) {
	db := setupPortfolioDB(t)
	s := &Service{DB: db}
	investor := uuid.New()

	seedInvestment(t, db, investor, 100, 30, 5000, domain.InvestmentActive)
	seedInvestment(t, db, investor, 40, 0, 2000, domain.InvestmentActive)
	seedInvestment(t, db, investor, 0, 0, 1000, domain.InvestmentSold)
	seedInvestment(t, db, uuid.New(), 10, 0, 500, domain.InvestmentActive)

	p, err := s.GetForInvestor(context.Background(), investor)
	require.NoError(t, err)
	assert.Len(t, p.Investments, 3)
	assert.Equal(t, float64(7000), p.Summary.TotalInvested)
	assert.Equal(t, 140, p.Summary.TotalTokens)
	assert.Equal(t, 30, p.Summary.TokensListed)
	assert.Equal(t, 2, p.Summary.ActiveHoldings)
}

func TestGetInvestment_OwnerOnly(t *testing.T) {
	db := setupPortfolioDB(t)
	s := &Service{DB: db}
	investor := uuid.New()
	inv := seedInvestment(t, db, investor, 100, 0, 5000, domain.InvestmentActive)

	got, err := s.GetInvestment(context.Background(), inv.InvestmentID, investor)
	require.NoError(t, err)
	assert.Equal(t, 100, got.TokensOwned)

	_, err = s.GetInvestment(context.Background(), inv.InvestmentID, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = s.GetInvestment(context.Background(), uuid.New(), investor)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
