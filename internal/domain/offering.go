package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offering statuses.
const (
	OfferingDraft     = "draft"
	OfferingActive    = "active"
	OfferingFunded    = "funded"
	OfferingClosed    = "closed"
	OfferingCancelled = "cancelled"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Dividend frequencies.
const (
	DividendMonthly   = "monthly"
	DividendQuarterly = "quarterly"
	DividendAnnual    = "annual"
)

// TokenOffering is a primary issuance of fractional shares in one property.
// tokens_sold only increases, and only through inventory.Settle; the offering
// flips to funded automatically when it sells out. Offerings are never
// deleted, only status-terminated.
type TokenOffering struct {
	OfferingID        uuid.UUID  `gorm:"column:offering_id;type:uuid;primaryKey" json:"offering_id"`
	PropertyID        uuid.UUID  `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	LandlordID        uuid.UUID  `gorm:"column:landlord_id;type:uuid;not null;index" json:"landlord_id"`
	TokenName         string     `gorm:"column:token_name;not null" json:"token_name"`
	TokenSymbol       string     `gorm:"column:token_symbol;type:varchar(12);not null" json:"token_symbol"`
	TotalTokens       int        `gorm:"column:total_tokens;not null" json:"total_tokens"`
	TokensSold        int        `gorm:"column:tokens_sold;not null;default:0" json:"tokens_sold"`
	TokensAvailable   int        `gorm:"-" json:"tokens_available"`
	TokenPrice        float64    `gorm:"column:token_price;type:decimal(18,2);not null" json:"token_price"`
	Currency          string     `gorm:"column:currency;type:char(3);not null;default:EUR" json:"currency"`
	MinPurchase       int        `gorm:"column:min_purchase;not null;default:1" json:"min_purchase"`
	MaxPurchase       *int       `gorm:"column:max_purchase" json:"max_purchase"`
	PropertyValue     float64    `gorm:"column:property_value;type:decimal(18,2);not null" json:"property_value"`
	ExpectedReturn    *float64   `gorm:"column:expected_return;type:decimal(8,2)" json:"expected_return"`
	DividendFrequency string     `gorm:"column:dividend_frequency;type:varchar(20)" json:"dividend_frequency"`
	RiskLevel         string     `gorm:"column:risk_level;type:varchar(10);not null;default:medium" json:"risk_level"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;default:draft" json:"status"`
	OfferingStartDate *time.Time `gorm:"column:offering_start_date" json:"offering_start_date"`
	OfferingEndDate   *time.Time `gorm:"column:offering_end_date" json:"offering_end_date"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (TokenOffering) TableName() string {
	return "TokenOfferings"
}

func (o *TokenOffering) BeforeCreate(tx *gorm.DB) error {
	if o.OfferingID == uuid.Nil {
		o.OfferingID = uuid.New()
	}
	return nil
}

// AfterFind derives tokens_available so responses never expose a stale count.
func (o *TokenOffering) AfterFind(tx *gorm.DB) error {
	o.TokensAvailable = o.TotalTokens - o.TokensSold
	return nil
}
