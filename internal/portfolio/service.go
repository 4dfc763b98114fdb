package portfolio

import (
	"context"
	"fmt"

	"bricknest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Summary aggregates an investor's holdings across all offerings.
type Summary struct {
	TotalInvested  float64 `json:"total_invested"`
	TotalTokens    int     `json:"total_tokens"`
	TokensListed   int     `json:"tokens_listed"`
	ActiveHoldings int     `json:"active_holdings"`
}

// Portfolio is the investor-facing view: the holding rows plus the rollup.
type Portfolio struct {
	Investments []domain.TokenInvestment `json:"investments"`
	Summary     Summary                  `json:"summary"`
}

func (s *Service) GetForInvestor(ctx context.Context, investorID uuid.UUID) (*Portfolio, error) {
	var investments []domain.TokenInvestment
	err := s.DB.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("purchase_date DESC").
		Find(&investments).Error
	if err != nil {
		return nil, err
	}

	p := &Portfolio{Investments: investments}
	for _, inv := range investments {
		if inv.Status != domain.InvestmentActive {
			continue
		}
		p.Summary.TotalInvested += inv.TotalInvestment
		p.Summary.TotalTokens += inv.TokensOwned
		p.Summary.TokensListed += inv.TokensListed
		p.Summary.ActiveHoldings++
	}
	return p, nil
}

func (s *Service) GetInvestment(ctx context.Context, investmentID, investorID uuid.UUID) (*domain.TokenInvestment, error) {
	var investment domain.TokenInvestment
	err := s.DB.WithContext(ctx).Where("investment_id = ?", investmentID).First(&investment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: investment %s", domain.ErrNotFound, investmentID)
		}
		return nil, err
	}
	if investment.InvestorID != investorID {
		return nil, fmt.Errorf("%w: investment is not owned by caller", domain.ErrForbidden)
	}
	return &investment, nil
}
