package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase request statuses. Transitions are one-directional; cancelled,
// rejected and completed are terminal, retained states.
const (
	RequestPending          = "pending"
	RequestApproved         = "approved"
	RequestPaymentPending   = "payment_pending"
	RequestPaymentConfirmed = "payment_confirmed"
	RequestTokensAssigned   = "tokens_assigned"
	RequestCompleted        = "completed"
	RequestRejected         = "rejected"
	RequestCancelled        = "cancelled"
)

// Supported settlement currencies.
const (
	CurrencyEUR = "EUR"
	CurrencyTHB = "THB"
)

// PurchaseRequest is one negotiation + settlement instance between a buyer and
// the offering's seller. Contact details and the token price are frozen at
// submission; tokens_requested never changes after creation.
type PurchaseRequest struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequestNumber string    `gorm:"column:request_number;not null;uniqueIndex" json:"request_number"`
	OfferingID    uuid.UUID `gorm:"column:offering_id;type:uuid;not null;index" json:"offering_id"`
	PropertyID    uuid.UUID `gorm:"column:property_id;type:uuid;not null" json:"property_id"`

	BuyerID  uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index" json:"buyer_id"`
	Buyer    ContactSnapshot `gorm:"embedded;embeddedPrefix:buyer_" json:"buyer"`
	SellerID uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Seller   ContactSnapshot `gorm:"embedded;embeddedPrefix:seller_" json:"seller"`

	TokensRequested int     `gorm:"column:tokens_requested;not null" json:"tokens_requested"`
	PricePerToken   float64 `gorm:"column:price_per_token;type:decimal(18,2);not null" json:"price_per_token"`
	TotalAmount     float64 `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`
	Currency        string  `gorm:"column:currency;type:char(3);not null" json:"currency"`

	Message               *string `gorm:"column:message" json:"message"`
	ProposedPaymentMethod *string `gorm:"column:proposed_payment_method" json:"proposed_payment_method"`
	InvestmentPurpose     *string `gorm:"column:investment_purpose" json:"investment_purpose"`

	Status string `gorm:"column:status;type:varchar(20);not null;default:pending" json:"status"`

	ApprovedAt                *time.Time `gorm:"column:approved_at" json:"approved_at"`
	ApprovedBy                *uuid.UUID `gorm:"column:approved_by;type:uuid" json:"approved_by"`
	SellerPaymentInstructions *string    `gorm:"column:seller_payment_instructions" json:"seller_payment_instructions"`
	RejectedAt                *time.Time `gorm:"column:rejected_at" json:"rejected_at"`
	RejectedBy                *uuid.UUID `gorm:"column:rejected_by;type:uuid" json:"rejected_by"`
	RejectionReason           *string    `gorm:"column:rejection_reason" json:"rejection_reason"`
	PaymentProofURL           *string    `gorm:"column:payment_proof_url" json:"payment_proof_url"`
	PaymentSubmittedAt        *time.Time `gorm:"column:payment_submitted_at" json:"payment_submitted_at"`
	PaymentConfirmedAt        *time.Time `gorm:"column:payment_confirmed_at" json:"payment_confirmed_at"`
	PaymentConfirmedBy        *uuid.UUID `gorm:"column:payment_confirmed_by;type:uuid" json:"payment_confirmed_by"`
	TokensAssigned            *int       `gorm:"column:tokens_assigned" json:"tokens_assigned"`
	TokensAssignedAt          *time.Time `gorm:"column:tokens_assigned_at" json:"tokens_assigned_at"`
	CompletedAt               *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CancelledAt               *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	CancelledBy               *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by"`

	AgreementSignedByBuyer  bool       `gorm:"column:agreement_signed_by_buyer;not null;default:false" json:"agreement_signed_by_buyer"`
	AgreementSignedBySeller bool       `gorm:"column:agreement_signed_by_seller;not null;default:false" json:"agreement_signed_by_seller"`
	AgreementDocumentURL    *string    `gorm:"column:agreement_document_url" json:"agreement_document_url"`
	AgreementSignedAt       *time.Time `gorm:"column:agreement_signed_at" json:"agreement_signed_at"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PurchaseRequest) TableName() string {
	return "TokenPurchaseRequests"
}

func (r *PurchaseRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
