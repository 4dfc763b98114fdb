package marketplace

import (
	"context"
	"sort"
	"time"

	"bricknest-backend/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Item kinds in the combined feed.
const (
	ItemOfficial = "official"
	ItemP2P      = "p2p"
)

// Item is one purchasable position, either a primary offering sold by the
// platform or a resale listing from another investor.
type Item struct {
	Type          string                `json:"type"`
	PropertyID    string                `json:"property_id"`
	TokensForSale int                   `json:"tokens_for_sale"`
	PricePerToken float64               `json:"price_per_token"`
	Currency      string                `json:"currency"`
	ListedAt      time.Time             `json:"listed_at"`
	Offering      *domain.TokenOffering `json:"offering,omitempty"`
	Listing       *domain.TokenListing  `json:"listing,omitempty"`
}

// Browse merges active offerings and active listings into one feed, newest
// first. Expired-but-unswept listings are filtered out here so the feed never
// shows a listing the purchase path would refuse.
func (s *Service) Browse(ctx context.Context) ([]Item, error) {
	var offerings []domain.TokenOffering
	err := s.DB.WithContext(ctx).
		Where("status = ?", domain.OfferingActive).
		Find(&offerings).Error
	if err != nil {
		return nil, err
	}

	var listings []domain.TokenListing
	err = s.DB.WithContext(ctx).
		Where("status = ?", domain.ListingActive).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]Item, 0, len(offerings)+len(listings))
	for i := range offerings {
		o := &offerings[i]
		if o.TokensAvailable <= 0 {
			continue
		}
		listedAt := o.CreatedAt
		if o.OfferingStartDate != nil {
			listedAt = *o.OfferingStartDate
		}
		items = append(items, Item{
			Type:          ItemOfficial,
			PropertyID:    o.PropertyID.String(),
			TokensForSale: o.TokensAvailable,
			PricePerToken: o.TokenPrice,
			Currency:      o.Currency,
			ListedAt:      listedAt,
			Offering:      o,
		})
	}
	for i := range listings {
		l := &listings[i]
		if l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
			continue
		}
		items = append(items, Item{
			Type:          ItemP2P,
			PropertyID:    l.PropertyID.String(),
			TokensForSale: l.TokensForSale,
			PricePerToken: l.PricePerToken,
			Currency:      l.Currency,
			ListedAt:      l.ListedAt,
			Listing:       l,
		})
	}

	sort.Slice(items, func(a, b int) bool {
		return items[a].ListedAt.After(items[b].ListedAt)
	})
	return items, nil
}
