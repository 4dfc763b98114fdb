package requests

import (
	"context"
	"fmt"
	"time"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/inventory"
	"bricknest-backend/internal/notifications"
	"bricknest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service drives a purchase request through its lifecycle:
//
//	pending -> approved -> payment_pending -> payment_confirmed -> tokens_assigned -> completed
//
// with rejected (seller, from pending) and cancelled (buyer, up to
// payment_pending) branches. Every transition is a single conditional UPDATE
// keyed on the expected current status; when the write matches no row the
// caller lost a race or the precondition no longer holds, and the request is
// left untouched.
type Service struct {
	DB        *gorm.DB
	Inventory *inventory.Service
	Notifier  *notifications.Emitter
}

type SubmitInput struct {
	BuyerID               uuid.UUID
	OfferingID            uuid.UUID
	TokensRequested       int
	Message               *string
	ProposedPaymentMethod *string
	InvestmentPurpose     *string
}

// Submit creates a pending request against an active offering, freezing the
// buyer/seller contact snapshots and the current token price. Inventory is
// validated but not locked; it is committed only at AssignTokens.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.PurchaseRequest, error) {
	if in.TokensRequested <= 0 {
		return nil, fmt.Errorf("%w: tokens_requested must be positive", domain.ErrValidation)
	}

	var offering domain.TokenOffering
	if err := s.DB.WithContext(ctx).Where("offering_id = ?", in.OfferingID).First(&offering).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: offering %s", domain.ErrNotFound, in.OfferingID)
		}
		return nil, err
	}
	if offering.Status != domain.OfferingActive {
		return nil, fmt.Errorf("%w: offering is %s, not active", domain.ErrInvalidTransition, offering.Status)
	}
	if in.TokensRequested < offering.MinPurchase {
		return nil, fmt.Errorf("%w: minimum purchase is %d tokens", domain.ErrValidation, offering.MinPurchase)
	}
	if offering.MaxPurchase != nil && in.TokensRequested > *offering.MaxPurchase {
		return nil, fmt.Errorf("%w: maximum purchase is %d tokens", domain.ErrValidation, *offering.MaxPurchase)
	}
	if err := s.Inventory.Reserve(ctx, offering.OfferingID, in.TokensRequested); err != nil {
		return nil, err
	}

	var buyer, seller domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", in.BuyerID).First(&buyer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: buyer %s", domain.ErrNotFound, in.BuyerID)
		}
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", offering.LandlordID).First(&seller).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: seller %s", domain.ErrNotFound, offering.LandlordID)
		}
		return nil, err
	}

	request := &domain.PurchaseRequest{
		RequestNumber:         fmt.Sprintf("TPR-%d", time.Now().UnixNano()),
		OfferingID:            offering.OfferingID,
		PropertyID:            offering.PropertyID,
		BuyerID:               buyer.UserID,
		Buyer:                 buyer.Snapshot(),
		SellerID:              seller.UserID,
		Seller:                seller.Snapshot(),
		TokensRequested:       in.TokensRequested,
		PricePerToken:         offering.TokenPrice,
		TotalAmount:           float64(in.TokensRequested) * offering.TokenPrice,
		Currency:              offering.Currency,
		Message:               in.Message,
		ProposedPaymentMethod: in.ProposedPaymentMethod,
		InvestmentPurpose:     in.InvestmentPurpose,
		Status:                domain.RequestPending,
	}
	if err := s.DB.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}

	s.Notifier.Emit(ctx, notifications.Event{
		RecipientID: request.SellerID,
		Type:        "purchase_request_submitted",
		Title:       "New token purchase request",
		Message:     fmt.Sprintf("%s requested %d %s tokens", buyer.Fullname, in.TokensRequested, offering.TokenSymbol),
		RelatedID:   &request.ID,
		Priority:    domain.PriorityNormal,
	})
	return request, nil
}

// Approve moves pending -> approved. Seller only.
func (s *Service) Approve(ctx context.Context, requestID, actorID uuid.UUID, paymentInstructions *string) (*domain.PurchaseRequest, error) {
	request, err := s.loadForActor(ctx, requestID, actorID, actorSeller)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      domain.RequestApproved,
		"approved_at": now,
		"approved_by": actorID,
	}
	if paymentInstructions != nil && *paymentInstructions != "" {
		updates["seller_payment_instructions"] = *paymentInstructions
	}
	if err := s.transition(ctx, s.DB, requestID, domain.RequestPending, updates); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.BuyerID, request.ID, "purchase_request_approved",
		"Purchase request approved", "Your purchase request was approved; payment instructions are available", domain.PriorityHigh)
	return s.reload(ctx, requestID)
}

// Reject moves pending -> rejected. Seller only; a non-empty reason is required.
func (s *Service) Reject(ctx context.Context, requestID, actorID uuid.UUID, reason string) (*domain.PurchaseRequest, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}
	request, err := s.loadForActor(ctx, requestID, actorID, actorSeller)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, s.DB, requestID, domain.RequestPending, map[string]interface{}{
		"status":           domain.RequestRejected,
		"rejected_at":      time.Now(),
		"rejected_by":      actorID,
		"rejection_reason": reason,
	}); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.BuyerID, request.ID, "purchase_request_rejected",
		"Purchase request rejected", reason, domain.PriorityNormal)
	return s.reload(ctx, requestID)
}

// UploadPaymentProof moves approved -> payment_pending. Buyer only.
func (s *Service) UploadPaymentProof(ctx context.Context, requestID, actorID uuid.UUID, proofURL string) (*domain.PurchaseRequest, error) {
	if !validation.IsValidURL(proofURL) {
		return nil, fmt.Errorf("%w: payment proof URL is required", domain.ErrValidation)
	}
	request, err := s.loadForActor(ctx, requestID, actorID, actorBuyer)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, s.DB, requestID, domain.RequestApproved, map[string]interface{}{
		"status":               domain.RequestPaymentPending,
		"payment_proof_url":    proofURL,
		"payment_submitted_at": time.Now(),
	}); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.SellerID, request.ID, "payment_proof_uploaded",
		"Payment proof uploaded", "The buyer uploaded proof of payment for review", domain.PriorityHigh)
	return s.reload(ctx, requestID)
}

// ConfirmPayment moves payment_pending -> payment_confirmed. Seller only.
// This is a manual attestation, not a payment integration.
func (s *Service) ConfirmPayment(ctx context.Context, requestID, actorID uuid.UUID) (*domain.PurchaseRequest, error) {
	request, err := s.loadForActor(ctx, requestID, actorID, actorSeller)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, s.DB, requestID, domain.RequestPaymentPending, map[string]interface{}{
		"status":               domain.RequestPaymentConfirmed,
		"payment_confirmed_at": time.Now(),
		"payment_confirmed_by": actorID,
	}); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.BuyerID, request.ID, "payment_confirmed",
		"Payment confirmed", "The seller confirmed receipt of your payment", domain.PriorityNormal)
	return s.reload(ctx, requestID)
}

// AssignTokens moves payment_confirmed -> tokens_assigned and settles the
// trade: tokens_sold is incremented (guarded against overselling) and the
// investment row is created, all inside one transaction with the status
// transition itself. Two racing calls produce exactly one settlement; the
// loser's conditional write matches nothing.
func (s *Service) AssignTokens(ctx context.Context, requestID, actorID uuid.UUID) (*domain.PurchaseRequest, error) {
	request, err := s.loadForActor(ctx, requestID, actorID, actorSeller)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transition(ctx, tx, requestID, domain.RequestPaymentConfirmed, map[string]interface{}{
			"status":             domain.RequestTokensAssigned,
			"tokens_assigned":    request.TokensRequested,
			"tokens_assigned_at": time.Now(),
		}); err != nil {
			return err
		}

		inv := s.Inventory.WithTx(tx)
		if err := inv.Settle(ctx, request.OfferingID, request.TokensRequested); err != nil {
			return err
		}

		var offering domain.TokenOffering
		if err := tx.Where("offering_id = ?", request.OfferingID).First(&offering).Error; err != nil {
			return fmt.Errorf("%w: offering lookup after settle: %v", domain.ErrSettlementInconsistency, err)
		}
		if _, err := inv.CreateInvestment(ctx, inventory.CreateInvestmentInput{
			InvestorID:    request.BuyerID,
			Offering:      &offering,
			Tokens:        request.TokensRequested,
			PricePerToken: request.PricePerToken,
			Currency:      request.Currency,
			PaymentMethod: request.ProposedPaymentMethod,
		}); err != nil {
			// Settle already succeeded inside this transaction; surface the
			// distinct signal so the rollback is reviewable, not silent.
			return fmt.Errorf("%w: investment creation after settle: %v", domain.ErrSettlementInconsistency, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.BuyerID, request.ID, "tokens_assigned",
		"Tokens assigned", fmt.Sprintf("%d tokens were assigned to your portfolio", request.TokensRequested), domain.PriorityHigh)
	return s.reload(ctx, requestID)
}

// Complete moves tokens_assigned -> completed. Seller only; terminal
// bookkeeping with no further financial effect.
func (s *Service) Complete(ctx context.Context, requestID, actorID uuid.UUID) (*domain.PurchaseRequest, error) {
	request, err := s.loadForActor(ctx, requestID, actorID, actorSeller)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, s.DB, requestID, domain.RequestTokensAssigned, map[string]interface{}{
		"status":       domain.RequestCompleted,
		"completed_at": time.Now(),
	}); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, request.BuyerID, request.ID, "purchase_request_completed",
		"Purchase completed", "Your token purchase is complete", domain.PriorityNormal)
	return s.reload(ctx, requestID)
}

// Cancel is buyer-initiated and allowed from pending, approved and
// payment_pending only. No inventory effect: nothing was ever committed.
func (s *Service) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*domain.PurchaseRequest, error) {
	request, err := s.loadForActor(ctx, requestID, actorID, actorBuyer)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&domain.PurchaseRequest{}).
		Where("id = ? AND status IN ?", requestID,
			[]string{domain.RequestPending, domain.RequestApproved, domain.RequestPaymentPending}).
		Updates(map[string]interface{}{
			"status":       domain.RequestCancelled,
			"cancelled_at": time.Now(),
			"cancelled_by": actorID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: request can no longer be cancelled", domain.ErrInvalidTransition)
	}

	s.notifyStatus(ctx, request.SellerID, request.ID, "purchase_request_cancelled",
		"Purchase request cancelled", "The buyer cancelled the purchase request", domain.PriorityNormal)
	return s.reload(ctx, requestID)
}

// SignAgreement records a party's agreement signature while the request is
// pre-settlement. The document URL is stored on first signature; when both
// parties have signed, agreement_signed_at is stamped.
func (s *Service) SignAgreement(ctx context.Context, requestID, actorID uuid.UUID, documentURL *string) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
		}
		return nil, err
	}

	switch request.Status {
	case domain.RequestPending, domain.RequestApproved, domain.RequestPaymentPending, domain.RequestPaymentConfirmed:
	default:
		return nil, fmt.Errorf("%w: agreement can no longer be signed", domain.ErrInvalidTransition)
	}

	updates := map[string]interface{}{}
	switch actorID {
	case request.BuyerID:
		updates["agreement_signed_by_buyer"] = true
	case request.SellerID:
		updates["agreement_signed_by_seller"] = true
	default:
		return nil, fmt.Errorf("%w: only the buyer or seller may sign", domain.ErrForbidden)
	}
	if documentURL != nil {
		if !validation.IsValidURL(*documentURL) {
			return nil, fmt.Errorf("%w: invalid agreement document URL", domain.ErrValidation)
		}
		updates["agreement_document_url"] = *documentURL
	}

	otherSigned := (actorID == request.BuyerID && request.AgreementSignedBySeller) ||
		(actorID == request.SellerID && request.AgreementSignedByBuyer)
	if otherSigned {
		updates["agreement_signed_at"] = time.Now()
	}

	if err := s.DB.WithContext(ctx).Model(&domain.PurchaseRequest{}).
		Where("id = ? AND status = ?", requestID, request.Status).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.reload(ctx, requestID)
}

// GetByID returns the request to its buyer or seller only.
func (s *Service) GetByID(ctx context.Context, requestID, actorID uuid.UUID) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
		}
		return nil, err
	}
	if request.BuyerID != actorID && request.SellerID != actorID {
		return nil, fmt.Errorf("%w: not a participant in this request", domain.ErrForbidden)
	}
	return &request, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.PurchaseRequest, error) {
	var out []domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]domain.PurchaseRequest, error) {
	var out []domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --- internal ---

type actorSide int

const (
	actorBuyer actorSide = iota
	actorSeller
)

// loadForActor fetches the request and enforces which party may act.
func (s *Service) loadForActor(ctx context.Context, requestID, actorID uuid.UUID, side actorSide) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
		}
		return nil, err
	}
	switch side {
	case actorBuyer:
		if request.BuyerID != actorID {
			return nil, fmt.Errorf("%w: only the buyer may perform this action", domain.ErrForbidden)
		}
	case actorSeller:
		if request.SellerID != actorID {
			return nil, fmt.Errorf("%w: only the seller may perform this action", domain.ErrForbidden)
		}
	}
	return &request, nil
}

// transition performs the atomic conditional status write. Zero matched rows
// means someone else already moved the request.
func (s *Service) transition(ctx context.Context, db *gorm.DB, requestID uuid.UUID, expected string, updates map[string]interface{}) error {
	res := db.WithContext(ctx).Model(&domain.PurchaseRequest{}).
		Where("id = ? AND status = ?", requestID, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: request is not %s", domain.ErrInvalidTransition, expected)
	}
	return nil
}

func (s *Service) reload(ctx context.Context, requestID uuid.UUID) (*domain.PurchaseRequest, error) {
	var request domain.PurchaseRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Service) notifyStatus(ctx context.Context, recipient, related uuid.UUID, typ, title, message, priority string) {
	s.Notifier.Emit(ctx, notifications.Event{
		RecipientID: recipient,
		Type:        typ,
		Title:       title,
		Message:     message,
		RelatedID:   &related,
		Priority:    priority,
	})
}
