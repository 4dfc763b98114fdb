package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/inventory"
	"bricknest-backend/internal/notifications"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the secondary market: holders resell tokens from their own
// investments with a direct-purchase model (no approval or payment-proof
// negotiation; settlement trust was already established on-platform).
// While a listing is active its tokens are locked on the source investment
// via tokens_listed, so the same tokens cannot be listed twice. Resales go
// through inventory.CreateInvestment but never touch offering counters.
type Service struct {
	DB        *gorm.DB
	Inventory *inventory.Service
	Notifier  *notifications.Emitter
}

type CreateListingInput struct {
	SellerID      uuid.UUID
	InvestmentID  uuid.UUID
	TokensForSale int
	PricePerToken float64
	Description   *string
	Tags          []string
	ExpiresAt     *time.Time
}

// CreateListing locks part of the seller's holding into an active listing.
func (s *Service) CreateListing(ctx context.Context, in CreateListingInput) (*domain.TokenListing, error) {
	if in.TokensForSale <= 0 {
		return nil, fmt.Errorf("%w: tokens_for_sale must be positive", domain.ErrValidation)
	}
	if in.PricePerToken <= 0 {
		return nil, fmt.Errorf("%w: price_per_token must be positive", domain.ErrValidation)
	}
	if in.ExpiresAt != nil && in.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: expires_at is in the past", domain.ErrValidation)
	}

	var investment domain.TokenInvestment
	if err := s.DB.WithContext(ctx).Where("investment_id = ?", in.InvestmentID).First(&investment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: investment %s", domain.ErrNotFound, in.InvestmentID)
		}
		return nil, err
	}
	if investment.InvestorID != in.SellerID {
		return nil, fmt.Errorf("%w: investment is not owned by caller", domain.ErrForbidden)
	}
	if investment.Status != domain.InvestmentActive {
		return nil, fmt.Errorf("%w: investment is %s", domain.ErrInvalidTransition, investment.Status)
	}
	if in.TokensForSale > investment.TokensUnlisted() {
		return nil, fmt.Errorf("%w: %d tokens unlisted, %d requested", domain.ErrInsufficientHolding, investment.TokensUnlisted(), in.TokensForSale)
	}

	var seller domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", in.SellerID).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: seller %s", domain.ErrNotFound, in.SellerID)
		}
		return nil, err
	}

	var tags datatypes.JSON
	if in.Tags != nil {
		b, _ := json.Marshal(in.Tags)
		tags = datatypes.JSON(b)
	}

	listing := &domain.TokenListing{
		InvestmentID:  investment.InvestmentID,
		OfferingID:    investment.OfferingID,
		PropertyID:    investment.PropertyID,
		SellerID:      seller.UserID,
		Seller:        seller.Snapshot(),
		TokensForSale: in.TokensForSale,
		PricePerToken: in.PricePerToken,
		TotalPrice:    float64(in.TokensForSale) * in.PricePerToken,
		Currency:      investment.Currency,
		Status:        domain.ListingActive,
		Description:   in.Description,
		Tags:          tags,
		ListedAt:      time.Now(),
		ExpiresAt:     in.ExpiresAt,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded lock: the same tokens can never back two active listings.
		res := tx.Model(&domain.TokenInvestment{}).
			Where("investment_id = ? AND tokens_listed + ? <= tokens_owned", investment.InvestmentID, in.TokensForSale).
			UpdateColumn("tokens_listed", gorm.Expr("tokens_listed + ?", in.TokensForSale))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: holding changed, %d tokens no longer unlisted", domain.ErrInsufficientHolding, in.TokensForSale)
		}
		return tx.Create(listing).Error
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

type UpdateListingInput struct {
	ListingID     uuid.UUID
	SellerID      uuid.UUID
	PricePerToken *float64
	Description   *string
}

// UpdateListing edits price/description while the listing is active.
func (s *Service) UpdateListing(ctx context.Context, in UpdateListingInput) (*domain.TokenListing, error) {
	if _, err := s.loadOwned(ctx, in.ListingID, in.SellerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.PricePerToken != nil {
		if *in.PricePerToken <= 0 {
			return nil, fmt.Errorf("%w: price_per_token must be positive", domain.ErrValidation)
		}
		updates["price_per_token"] = *in.PricePerToken
		// Reprice off the row's own tokens_for_sale; a racing partial fill
		// may have shrunk it since loadOwned.
		updates["total_price"] = gorm.Expr("tokens_for_sale * ?", *in.PricePerToken)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no changes provided", domain.ErrValidation)
	}

	res := s.DB.WithContext(ctx).Model(&domain.TokenListing{}).
		Where("listing_id = ? AND status = ?", in.ListingID, domain.ListingActive).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: listing is not editable", domain.ErrInvalidTransition)
	}
	return s.reload(ctx, in.ListingID)
}

// CancelListing flips active -> cancelled (owner only) and releases the lock
// on the source investment.
func (s *Service) CancelListing(ctx context.Context, listingID, sellerID uuid.UUID) (*domain.TokenListing, error) {
	if _, err := s.loadOwned(ctx, listingID, sellerID); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.TokenListing{}).
			Where("listing_id = ? AND status = ?", listingID, domain.ListingActive).
			Updates(map[string]interface{}{
				"status":       domain.ListingCancelled,
				"cancelled_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: listing is not active", domain.ErrInvalidTransition)
		}
		// Release the listing's current remainder, not the pre-transaction
		// snapshot: a partial fill may have shrunk tokens_for_sale (and the
		// lock with it) since loadOwned.
		var current domain.TokenListing
		if err := tx.Where("listing_id = ?", listingID).First(&current).Error; err != nil {
			return err
		}
		return releaseHoldingLock(tx, current.InvestmentID, current.TokensForSale)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, listingID)
}

// Purchase buys tokensToPurchase from an active listing (nil means the full
// amount; partial fills leave the listing active with the remainder). The fill
// is one guarded decrement, the seller's holding shrinks in the same
// transaction, and the buyer's investment is created through the same
// primitive as primary settlement — without touching offering counters, since
// a resale is not new issuance.
func (s *Service) Purchase(ctx context.Context, listingID, buyerID uuid.UUID, tokensToPurchase *int) (*domain.TokenListing, *domain.TokenInvestment, error) {
	var listing domain.TokenListing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
		}
		return nil, nil, err
	}
	if listing.Status != domain.ListingActive {
		return nil, nil, fmt.Errorf("%w: listing is not available", domain.ErrInvalidTransition)
	}
	if listing.SellerID == buyerID {
		return nil, nil, fmt.Errorf("%w: cannot purchase own listing", domain.ErrValidation)
	}
	if listing.ExpiresAt != nil && listing.ExpiresAt.Before(time.Now()) {
		return nil, nil, fmt.Errorf("%w: listing has expired", domain.ErrInvalidTransition)
	}

	count := listing.TokensForSale
	if tokensToPurchase != nil {
		count = *tokensToPurchase
	}
	if count <= 0 {
		return nil, nil, fmt.Errorf("%w: tokens_to_purchase must be positive", domain.ErrValidation)
	}
	if count > listing.TokensForSale {
		return nil, nil, fmt.Errorf("%w: %d tokens for sale, %d requested", domain.ErrInsufficientHolding, listing.TokensForSale, count)
	}

	var buyer domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", buyerID).First(&buyer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: buyer %s", domain.ErrNotFound, buyerID)
		}
		return nil, nil, err
	}

	var investment *domain.TokenInvestment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded fill: exactly one of two racing purchases for the last
		// tokens wins; the loser matches no row.
		res := tx.Model(&domain.TokenListing{}).
			Where("listing_id = ? AND status = ? AND tokens_for_sale >= ?", listingID, domain.ListingActive, count).
			UpdateColumns(map[string]interface{}{
				"tokens_for_sale": gorm.Expr("tokens_for_sale - ?", count),
				"total_price":     gorm.Expr("(tokens_for_sale - ?) * price_per_token", count),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: listing is not available", domain.ErrInvalidTransition)
		}

		buyerSnap := buyer.Snapshot()
		if err := tx.Model(&domain.TokenListing{}).
			Where("listing_id = ? AND status = ? AND tokens_for_sale = 0", listingID, domain.ListingActive).
			Updates(map[string]interface{}{
				"status":        domain.ListingSold,
				"sold_at":       time.Now(),
				"buyer_id":      buyerID,
				"buyer_name":    buyerSnap.Name,
				"buyer_email":   buyerSnap.Email,
				"buyer_phone":   buyerSnap.Phone,
				"buyer_address": buyerSnap.Address,
			}).Error; err != nil {
			return err
		}

		// Seller's holding shrinks by the purchased amount; the lock shrinks
		// with it.
		res = tx.Model(&domain.TokenInvestment{}).
			Where("investment_id = ? AND tokens_owned >= ? AND tokens_listed >= ?", listing.InvestmentID, count, count).
			UpdateColumns(map[string]interface{}{
				"tokens_owned":  gorm.Expr("tokens_owned - ?", count),
				"tokens_listed": gorm.Expr("tokens_listed - ?", count),
			})
		if res.Error != nil {
			return fmt.Errorf("%w: holder decrement after fill: %v", domain.ErrSettlementInconsistency, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: holder decrement after fill matched no row", domain.ErrSettlementInconsistency)
		}
		if err := tx.Model(&domain.TokenInvestment{}).
			Where("investment_id = ? AND tokens_owned = 0 AND status = ?", listing.InvestmentID, domain.InvestmentActive).
			UpdateColumn("status", domain.InvestmentSold).Error; err != nil {
			return err
		}

		var offering domain.TokenOffering
		if err := tx.Where("offering_id = ?", listing.OfferingID).First(&offering).Error; err != nil {
			return fmt.Errorf("%w: offering lookup during resale: %v", domain.ErrSettlementInconsistency, err)
		}
		var err error
		investment, err = s.Inventory.WithTx(tx).CreateInvestment(ctx, inventory.CreateInvestmentInput{
			InvestorID:    buyerID,
			Offering:      &offering,
			Tokens:        count,
			PricePerToken: listing.PricePerToken,
			Currency:      listing.Currency,
		})
		if err != nil {
			return fmt.Errorf("%w: investment creation during resale: %v", domain.ErrSettlementInconsistency, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.Notifier.Emit(ctx, notifications.Event{
		RecipientID: listing.SellerID,
		Type:        "listing_purchased",
		Title:       "Listing purchased",
		Message:     fmt.Sprintf("%s bought %d tokens from your listing", buyer.Fullname, count),
		RelatedID:   &listing.ListingID,
		Priority:    domain.PriorityHigh,
	})

	updated, err := s.reload(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	return updated, investment, nil
}

// ExpireDue flips all active listings whose expires_at has passed to expired
// and releases their holding locks. Driven by an external periodic sweep, not
// by the request-handling core.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	var due []domain.TokenListing
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", domain.ListingActive, now).
		Find(&due).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, listing := range due {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.TokenListing{}).
				Where("listing_id = ? AND status = ?", listing.ListingID, domain.ListingActive).
				Update("status", domain.ListingExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // already moved by a racing purchase or cancel
			}
			var current domain.TokenListing
			if err := tx.Where("listing_id = ?", listing.ListingID).First(&current).Error; err != nil {
				return err
			}
			if err := releaseHoldingLock(tx, current.InvestmentID, current.TokensForSale); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

func (s *Service) GetByID(ctx context.Context, listingID uuid.UUID) (*domain.TokenListing, error) {
	return s.reload(ctx, listingID)
}

func (s *Service) ListActive(ctx context.Context) ([]domain.TokenListing, error) {
	var out []domain.TokenListing
	if err := s.DB.WithContext(ctx).Where("status = ?", domain.ListingActive).
		Order("listed_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]domain.TokenListing, error) {
	var out []domain.TokenListing
	if err := s.DB.WithContext(ctx).Where("seller_id = ?", sellerID).
		Order("listed_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// releaseHoldingLock gives tokens back to the seller's unlisted balance when
// a listing leaves the market. A release that matches no row means the lock
// accounting is off; the transaction must roll back rather than strand the
// tokens in tokens_listed.
func releaseHoldingLock(tx *gorm.DB, investmentID uuid.UUID, tokens int) error {
	res := tx.Model(&domain.TokenInvestment{}).
		Where("investment_id = ? AND tokens_listed >= ?", investmentID, tokens).
		UpdateColumn("tokens_listed", gorm.Expr("tokens_listed - ?", tokens))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: holding lock release matched no row", domain.ErrSettlementInconsistency)
	}
	return nil
}

func (s *Service) loadOwned(ctx context.Context, listingID, sellerID uuid.UUID) (*domain.TokenListing, error) {
	var listing domain.TokenListing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
		}
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, fmt.Errorf("%w: listing is not owned by caller", domain.ErrForbidden)
	}
	return &listing, nil
}

func (s *Service) reload(ctx context.Context, listingID uuid.UUID) (*domain.TokenListing, error) {
	var listing domain.TokenListing
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
		}
		return nil, err
	}
	return &listing, nil
}
