package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investment statuses.
const (
	InvestmentActive      = "active"
	InvestmentSold        = "sold"
	InvestmentTransferred = "transferred"
)

// TokenInvestment is the durable ownership record created at settlement. One
// investor may hold several rows against the same offering (one per settled
// request or listing purchase). ownership_percentage is computed against the
// offering's fixed total_tokens, never a running total.
type TokenInvestment struct {
	InvestmentID         uuid.UUID `gorm:"column:investment_id;type:uuid;primaryKey" json:"investment_id"`
	InvestorID           uuid.UUID `gorm:"column:investor_id;type:uuid;not null;index" json:"investor_id"`
	PropertyID           uuid.UUID `gorm:"column:property_id;type:uuid;not null" json:"property_id"`
	OfferingID           uuid.UUID `gorm:"column:offering_id;type:uuid;not null;index" json:"offering_id"`
	TokensOwned          int       `gorm:"column:tokens_owned;not null" json:"tokens_owned"`
	TokensListed         int       `gorm:"column:tokens_listed;not null;default:0" json:"tokens_listed"`
	PurchasePrice        float64   `gorm:"column:purchase_price;type:decimal(18,2);not null" json:"purchase_price"`
	TotalInvestment      float64   `gorm:"column:total_investment;type:decimal(18,2);not null" json:"total_investment"`
	OwnershipPercentage  float64   `gorm:"column:ownership_percentage;type:decimal(9,6);not null" json:"ownership_percentage"`
	Currency             string    `gorm:"column:currency;type:char(3);not null" json:"currency"`
	TransactionID        string    `gorm:"column:transaction_id;not null;uniqueIndex" json:"transaction_id"`
	PaymentMethod        *string   `gorm:"column:payment_method" json:"payment_method"`
	PaymentStatus        string    `gorm:"column:payment_status;type:varchar(20);not null;default:confirmed" json:"payment_status"`
	TotalDividendsEarned float64   `gorm:"column:total_dividends_earned;type:decimal(18,2);not null;default:0" json:"total_dividends_earned"`
	Status               string    `gorm:"column:status;type:varchar(20);not null;default:active" json:"status"`
	PurchaseDate         time.Time `gorm:"column:purchase_date;not null" json:"purchase_date"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (TokenInvestment) TableName() string {
	return "TokenInvestments"
}

func (i *TokenInvestment) BeforeCreate(tx *gorm.DB) error {
	if i.InvestmentID == uuid.Nil {
		i.InvestmentID = uuid.New()
	}
	return nil
}

// TokensUnlisted is the part of the holding not already locked into an active
// resale listing.
func (i *TokenInvestment) TokensUnlisted() int {
	return i.TokensOwned - i.TokensListed
}
