package offerings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/notifications"
	"bricknest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages the offering lifecycle: created in draft by the owning
// landlord, moved to active explicitly, flipped to funded automatically by
// settlement, closed by owner action. Offerings are never deleted.
type Service struct {
	DB       *gorm.DB
	Notifier *notifications.Emitter
}

type CreateOfferingInput struct {
	LandlordID        uuid.UUID
	PropertyID        uuid.UUID
	TokenName         string
	TokenSymbol       string
	TotalTokens       int
	TokenPrice        float64
	Currency          string
	MinPurchase       int
	MaxPurchase       *int
	PropertyValue     float64
	ExpectedReturn    *float64
	DividendFrequency string
	RiskLevel         string
	OfferingEndDate   *time.Time
}

// Create inserts a draft offering for a property the caller owns.
func (s *Service) Create(ctx context.Context, in CreateOfferingInput) (*domain.TokenOffering, error) {
	if in.TokenName == "" {
		return nil, fmt.Errorf("%w: token_name is required", domain.ErrValidation)
	}
	if !validation.IsValidTokenSymbol(strings.ToUpper(in.TokenSymbol)) {
		return nil, fmt.Errorf("%w: token_symbol must be 2-12 upper-case letters/digits", domain.ErrValidation)
	}
	if in.TotalTokens <= 0 {
		return nil, fmt.Errorf("%w: total_tokens must be positive", domain.ErrValidation)
	}
	if in.TokenPrice <= 0 {
		return nil, fmt.Errorf("%w: token_price must be positive", domain.ErrValidation)
	}
	if in.PropertyValue <= 0 {
		return nil, fmt.Errorf("%w: property_value must be positive", domain.ErrValidation)
	}
	if !validation.IsValidCurrency(in.Currency) {
		return nil, fmt.Errorf("%w: currency must be EUR or THB", domain.ErrValidation)
	}
	minPurchase := in.MinPurchase
	if minPurchase <= 0 {
		minPurchase = 1
	}
	if minPurchase > in.TotalTokens {
		return nil, fmt.Errorf("%w: min_purchase exceeds total_tokens", domain.ErrValidation)
	}
	if in.MaxPurchase != nil && *in.MaxPurchase < minPurchase {
		return nil, fmt.Errorf("%w: max_purchase below min_purchase", domain.ErrValidation)
	}
	riskLevel := in.RiskLevel
	switch riskLevel {
	case "":
		riskLevel = domain.RiskMedium
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
	default:
		return nil, fmt.Errorf("%w: risk_level must be low, medium or high", domain.ErrValidation)
	}
	switch in.DividendFrequency {
	case "", domain.DividendMonthly, domain.DividendQuarterly, domain.DividendAnnual:
	default:
		return nil, fmt.Errorf("%w: invalid dividend_frequency", domain.ErrValidation)
	}

	var property domain.Property
	if err := s.DB.WithContext(ctx).Where("property_id = ?", in.PropertyID).First(&property).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, in.PropertyID)
		}
		return nil, err
	}
	if property.LandlordID != in.LandlordID {
		return nil, fmt.Errorf("%w: property is not owned by caller", domain.ErrForbidden)
	}

	offering := &domain.TokenOffering{
		PropertyID:        property.PropertyID,
		LandlordID:        in.LandlordID,
		TokenName:         in.TokenName,
		TokenSymbol:       strings.ToUpper(in.TokenSymbol),
		TotalTokens:       in.TotalTokens,
		TokenPrice:        in.TokenPrice,
		Currency:          strings.ToUpper(in.Currency),
		MinPurchase:       minPurchase,
		MaxPurchase:       in.MaxPurchase,
		PropertyValue:     in.PropertyValue,
		ExpectedReturn:    in.ExpectedReturn,
		DividendFrequency: in.DividendFrequency,
		RiskLevel:         riskLevel,
		Status:            domain.OfferingDraft,
		OfferingEndDate:   in.OfferingEndDate,
	}
	if err := s.DB.WithContext(ctx).Create(offering).Error; err != nil {
		return nil, err
	}
	offering.TokensAvailable = offering.TotalTokens
	return offering, nil
}

// Activate moves draft -> active (owner only) and stamps the start date.
func (s *Service) Activate(ctx context.Context, offeringID, actorID uuid.UUID) (*domain.TokenOffering, error) {
	offering, err := s.loadOwned(ctx, offeringID, actorID)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&domain.TokenOffering{}).
		Where("offering_id = ? AND status = ?", offeringID, domain.OfferingDraft).
		Updates(map[string]interface{}{
			"status":              domain.OfferingActive,
			"offering_start_date": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: offering is %s, not draft", domain.ErrInvalidTransition, offering.Status)
	}
	return s.reload(ctx, offeringID)
}

// Close terminates an active or funded offering (owner only).
func (s *Service) Close(ctx context.Context, offeringID, actorID uuid.UUID) (*domain.TokenOffering, error) {
	if _, err := s.loadOwned(ctx, offeringID, actorID); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&domain.TokenOffering{}).
		Where("offering_id = ? AND status IN ?", offeringID, []string{domain.OfferingActive, domain.OfferingFunded}).
		Update("status", domain.OfferingClosed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: offering cannot be closed", domain.ErrInvalidTransition)
	}
	return s.reload(ctx, offeringID)
}

func (s *Service) GetByID(ctx context.Context, offeringID uuid.UUID) (*domain.TokenOffering, error) {
	return s.reload(ctx, offeringID)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.TokenOffering, error) {
	var out []domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("status = ?", domain.OfferingActive).
		Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]domain.TokenOffering, error) {
	var out []domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("landlord_id = ?", landlordID).
		Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) loadOwned(ctx context.Context, offeringID, actorID uuid.UUID) (*domain.TokenOffering, error) {
	var offering domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("offering_id = ?", offeringID).First(&offering).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: offering %s", domain.ErrNotFound, offeringID)
		}
		return nil, err
	}
	if offering.LandlordID != actorID {
		return nil, fmt.Errorf("%w: offering is not owned by caller", domain.ErrForbidden)
	}
	return &offering, nil
}

func (s *Service) reload(ctx context.Context, offeringID uuid.UUID) (*domain.TokenOffering, error) {
	var offering domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("offering_id = ?", offeringID).First(&offering).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: offering %s", domain.ErrNotFound, offeringID)
		}
		return nil, err
	}
	return &offering, nil
}
