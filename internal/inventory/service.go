package inventory

import (
	"context"
	"fmt"
	"time"

	"bricknest-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the sole arbiter of offering token counts and investment rows.
// The request state machine and the P2P market route every balance change
// through here so the accounting cannot diverge.
type Service struct {
	DB *gorm.DB
}

// WithTx returns a copy of the service bound to a transaction handle, so
// callers can compose Settle + CreateInvestment with their own writes.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{DB: tx}
}

// Reserve checks that count tokens are available on the offering. It is a pure
// read: tokens are not locked pending approval (approval is a business
// decision, not a race on inventory) and availability is re-checked by Settle.
func (s *Service) Reserve(ctx context.Context, offeringID uuid.UUID, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: token count must be positive", domain.ErrValidation)
	}
	var offering domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("offering_id = ?", offeringID).First(&offering).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: offering %s", domain.ErrNotFound, offeringID)
		}
		return err
	}
	if count > offering.TotalTokens-offering.TokensSold {
		return fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientInventory, count, offering.TotalTokens-offering.TokensSold)
	}
	return nil
}

// Settle commits count tokens as sold. The increment is a single guarded
// UPDATE (tokens_sold + count <= total_tokens) so two settlements racing on
// the same offering can never oversell; zero rows matched means the guard
// failed. Flips the offering to funded when it sells out.
func (s *Service) Settle(ctx context.Context, offeringID uuid.UUID, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: token count must be positive", domain.ErrValidation)
	}
	res := s.DB.WithContext(ctx).Model(&domain.TokenOffering{}).
		Where("offering_id = ? AND status = ? AND tokens_sold + ? <= total_tokens", offeringID, domain.OfferingActive, count).
		UpdateColumn("tokens_sold", gorm.Expr("tokens_sold + ?", count))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cannot settle %d tokens on offering %s", domain.ErrInsufficientInventory, count, offeringID)
	}

	if err := s.DB.WithContext(ctx).Model(&domain.TokenOffering{}).
		Where("offering_id = ? AND status = ? AND tokens_sold >= total_tokens", offeringID, domain.OfferingActive).
		UpdateColumn("status", domain.OfferingFunded).Error; err != nil {
		return err
	}
	return nil
}

// CreateInvestmentInput describes one settled purchase to record.
type CreateInvestmentInput struct {
	InvestorID    uuid.UUID
	Offering      *domain.TokenOffering
	Tokens        int
	PricePerToken float64
	Currency      string
	PaymentMethod *string
}

// CreateInvestment inserts the durable ownership row. It never touches the
// offering counters; callers sequence Settle first (primary issuance) or skip
// it entirely (P2P resale).
func (s *Service) CreateInvestment(ctx context.Context, in CreateInvestmentInput) (*domain.TokenInvestment, error) {
	if in.Tokens <= 0 {
		return nil, fmt.Errorf("%w: token count must be positive", domain.ErrValidation)
	}
	if in.Offering == nil || in.Offering.TotalTokens <= 0 {
		return nil, fmt.Errorf("%w: offering reference required", domain.ErrValidation)
	}

	investment := &domain.TokenInvestment{
		InvestorID:          in.InvestorID,
		PropertyID:          in.Offering.PropertyID,
		OfferingID:          in.Offering.OfferingID,
		TokensOwned:         in.Tokens,
		PurchasePrice:       in.PricePerToken,
		TotalInvestment:     float64(in.Tokens) * in.PricePerToken,
		OwnershipPercentage: float64(in.Tokens) / float64(in.Offering.TotalTokens),
		Currency:            in.Currency,
		TransactionID:       fmt.Sprintf("TXN-%d", time.Now().UnixNano()),
		PaymentMethod:       in.PaymentMethod,
		PaymentStatus:       "confirmed",
		Status:              domain.InvestmentActive,
		PurchaseDate:        time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(investment).Error; err != nil {
		return nil, err
	}
	return investment, nil
}
