package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing statuses.
const (
	ListingActive    = "active"
	ListingSold      = "sold"
	ListingCancelled = "cancelled"
	ListingExpired   = "expired"
)

// TokenListing is a secondary-market resale offer over part of one investment.
// While a listing is active its tokens count as listed on the source
// investment, so a holder cannot list the same tokens twice. Edits and
// purchases are only legal while status is active.
type TokenListing struct {
	ListingID    uuid.UUID       `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	InvestmentID uuid.UUID       `gorm:"column:investment_id;type:uuid;not null;index" json:"investment_id"`
	OfferingID   uuid.UUID       `gorm:"column:offering_id;type:uuid;not null;index" json:"offering_id"`
	PropertyID   uuid.UUID       `gorm:"column:property_id;type:uuid;not null" json:"property_id"`
	SellerID     uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Seller       ContactSnapshot `gorm:"embedded;embeddedPrefix:seller_" json:"seller"`

	TokensForSale int     `gorm:"column:tokens_for_sale;not null" json:"tokens_for_sale"`
	PricePerToken float64 `gorm:"column:price_per_token;type:decimal(18,2);not null" json:"price_per_token"`
	TotalPrice    float64 `gorm:"column:total_price;type:decimal(18,2);not null" json:"total_price"`
	Currency      string  `gorm:"column:currency;type:char(3);not null" json:"currency"`

	Status      string         `gorm:"column:status;type:varchar(20);not null;default:active" json:"status"`
	Description *string        `gorm:"column:description" json:"description"`
	Tags        datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`

	ListedAt    time.Time  `gorm:"column:listed_at;not null" json:"listed_at"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at"`
	SoldAt      *time.Time `gorm:"column:sold_at" json:"sold_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`

	BuyerID *uuid.UUID       `gorm:"column:buyer_id;type:uuid" json:"buyer_id"`
	Buyer   *ContactSnapshot `gorm:"embedded;embeddedPrefix:buyer_" json:"buyer,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TokenListing) TableName() string {
	return "TokenListings"
}

func (l *TokenListing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}
