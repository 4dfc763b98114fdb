package requests

import (
	"context"
	"errors"
	"testing"

	"bricknest-backend/internal/domain"
	"bricknest-backend/internal/inventory"
	"bricknest-backend/internal/notifications"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type requestFixture struct {
	svc      *Service
	db       *gorm.DB
	buyer    *domain.User
	seller   *domain.User
	offering *domain.TokenOffering
}

func setupRequestFixture(t *testing.T) *requestFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Property{}, &domain.TokenOffering{},
		&domain.PurchaseRequest{}, &domain.TokenInvestment{}, &domain.Notification{},
	))

	buyer := &domain.User{Fullname: "Ben Buyer", Email: "ben@example.com", PasswordHash: "x", Role: domain.RoleBuyer}
	seller := &domain.User{Fullname: "Lena Landlord", Email: "lena@example.com", PasswordHash: "x", Role: domain.RoleLandlord}
	require.NoError(t, db.Create(buyer).Error)
	require.NoError(t, db.Create(seller).Error)

	maxPurchase := 500
	offering := &domain.TokenOffering{
		PropertyID:    uuid.New(),
		LandlordID:    seller.UserID,
		TokenName:     "Harbor View",
		TokenSymbol:   "HRBV",
		TotalTokens:   1000,
		TokenPrice:    50,
		Currency:      domain.CurrencyEUR,
		MinPurchase:   5,
		MaxPurchase:   &maxPurchase,
		PropertyValue: 500000,
		RiskLevel:     domain.RiskLow,
		Status:        domain.OfferingActive,
	}
	require.NoError(t, db.Create(offering).Error)

	svc := &Service{
		DB:        db,
		Inventory: &inventory.Service{DB: db},
		Notifier:  &notifications.Emitter{DB: db},
	}
	return &requestFixture{svc: svc, db: db, buyer: buyer, seller: seller, offering: offering}
}

func (f *requestFixture) submit(t *testing.T, tokens int) *domain.PurchaseRequest {
	request, err := f.svc.Submit(context.Background(), SubmitInput{
		BuyerID:         f.buyer.UserID,
		OfferingID:      f.offering.OfferingID,
		TokensRequested: tokens,
	})
	require.NoError(t, err)
	return request
}

func TestSubmit_FreezesPriceAndSnapshots(t *testing.T) {
	f := setupRequestFixture(t)
	request := f.submit(t, 20)

	assert.Equal(t, domain.RequestPending, request.Status)
	assert.Equal(t, 20, request.TokensRequested)
	assert.Equal(t, float64(1000), request.TotalAmount)
	assert.Equal(t, "Ben Buyer", request.Buyer.Name)
	assert.Equal(t, "Lena Landlord", request.Seller.Name)
	assert.NotEmpty(t, request.RequestNumber)

	// Seller got notified.
	var count int64
	require.NoError(t, f.db.Model(&domain.Notification{}).
		Where("recipient_id = ?", f.seller.UserID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_EnforcesOfferingState(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{BuyerID: f.buyer.UserID, OfferingID: f.offering.OfferingID, TokensRequested: 3})
	assert.True(t, errors.Is(err, domain.ErrValidation), "below min purchase")

	_, err = f.svc.Submit(ctx, SubmitInput{BuyerID: f.buyer.UserID, OfferingID: f.offering.OfferingID, TokensRequested: 501})
	assert.True(t, errors.Is(err, domain.ErrValidation), "above max purchase")

	_, err = f.svc.Submit(ctx, SubmitInput{BuyerID: f.buyer.UserID, OfferingID: uuid.New(), TokensRequested: 10})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, f.db.Model(&domain.TokenOffering{}).
		Where("offering_id = ?", f.offering.OfferingID).
		Update("status", domain.OfferingDraft).Error)
	_, err = f.svc.Submit(ctx, SubmitInput{BuyerID: f.buyer.UserID, OfferingID: f.offering.OfferingID, TokensRequested: 10})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestLifecycle_HappyPathToCompleted(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 40)

	request, err := f.svc.Approve(ctx, request.ID, f.seller.UserID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, request.Status)
	require.NotNil(t, request.ApprovedAt)

	request, err = f.svc.UploadPaymentProof(ctx, request.ID, f.buyer.UserID, "https://files.example.com/proof.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPaymentPending, request.Status)

	request, err = f.svc.ConfirmPayment(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPaymentConfirmed, request.Status)

	request, err = f.svc.AssignTokens(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestTokensAssigned, request.Status)
	require.NotNil(t, request.TokensAssigned)
	assert.Equal(t, 40, *request.TokensAssigned)

	// Settlement effects: inventory committed, investment created.
	var offering domain.TokenOffering
	require.NoError(t, f.db.Where("offering_id = ?", f.offering.OfferingID).First(&offering).Error)
	assert.Equal(t, 40, offering.TokensSold)

	var investment domain.TokenInvestment
	require.NoError(t, f.db.Where("investor_id = ?", f.buyer.UserID).First(&investment).Error)
	assert.Equal(t, 40, investment.TokensOwned)
	assert.InDelta(t, 0.04, investment.OwnershipPercentage, 1e-9)
	assert.Equal(t, float64(2000), investment.TotalInvestment)

	request, err = f.svc.Complete(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCompleted, request.Status)
	require.NotNil(t, request.CompletedAt)
}

func TestTransitions_RejectOutOfOrderCalls(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 10)

	// payment proof before approval
	_, err := f.svc.UploadPaymentProof(ctx, request.ID, f.buyer.UserID, "https://files.example.com/proof.pdf")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	// confirm before proof
	_, err = f.svc.ConfirmPayment(ctx, request.ID, f.seller.UserID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	// assign straight from pending
	_, err = f.svc.AssignTokens(ctx, request.ID, f.seller.UserID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	// double approve
	_, err = f.svc.Approve(ctx, request.ID, f.seller.UserID, nil)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, request.ID, f.seller.UserID, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestReject_RequiresReason(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 10)

	_, err := f.svc.Reject(ctx, request.ID, f.seller.UserID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	got, err := f.svc.GetByID(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, got.Status)

	got, err = f.svc.Reject(ctx, request.ID, f.seller.UserID, "incomplete KYC")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "incomplete KYC", *got.RejectionReason)
}

func TestCancel_AllowedOnlyBeforePaymentConfirmed(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()

	request := f.submit(t, 10)
	got, err := f.svc.Cancel(ctx, request.ID, f.buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, got.Status)

	request = f.submit(t, 10)
	_, err = f.svc.Approve(ctx, request.ID, f.seller.UserID, nil)
	require.NoError(t, err)
	_, err = f.svc.UploadPaymentProof(ctx, request.ID, f.buyer.UserID, "https://files.example.com/proof.pdf")
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, request.ID, f.buyer.UserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestAssignTokens_SecondCallLosesCleanly(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 10)

	_, err := f.svc.Approve(ctx, request.ID, f.seller.UserID, nil)
	require.NoError(t, err)
	_, err = f.svc.UploadPaymentProof(ctx, request.ID, f.buyer.UserID, "https://files.example.com/proof.pdf")
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)

	_, err = f.svc.AssignTokens(ctx, request.ID, f.seller.UserID)
	require.NoError(t, err)
	_, err = f.svc.AssignTokens(ctx, request.ID, f.seller.UserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	// tokens_sold moved exactly once.
	var offering domain.TokenOffering
	require.NoError(t, f.db.Where("offering_id = ?", f.offering.OfferingID).First(&offering).Error)
	assert.Equal(t, 10, offering.TokensSold)

	var count int64
	require.NoError(t, f.db.Model(&domain.TokenInvestment{}).
		Where("investor_id = ?", f.buyer.UserID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestActorChecks_WrongPartyForbidden(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 10)

	// buyer cannot approve
	_, err := f.svc.Approve(ctx, request.ID, f.buyer.UserID, nil)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// seller cannot cancel
	_, err = f.svc.Cancel(ctx, request.ID, f.seller.UserID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// strangers see nothing
	_, err = f.svc.GetByID(ctx, request.ID, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestSignAgreement_BothPartiesStampTimestamp(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	request := f.submit(t, 10)
	docURL := "https://files.example.com/agreement.pdf"

	got, err := f.svc.SignAgreement(ctx, request.ID, f.buyer.UserID, &docURL)
	require.NoError(t, err)
	assert.True(t, got.AgreementSignedByBuyer)
	assert.False(t, got.AgreementSignedBySeller)
	assert.Nil(t, got.AgreementSignedAt)

	got, err = f.svc.SignAgreement(ctx, request.ID, f.seller.UserID, nil)
	require.NoError(t, err)
	assert.True(t, got.AgreementSignedBySeller)
	require.NotNil(t, got.AgreementSignedAt)
	require.NotNil(t, got.AgreementDocumentURL)
	assert.Equal(t, docURL, *got.AgreementDocumentURL)

	// outsiders cannot sign
	_, err = f.svc.SignAgreement(ctx, request.ID, uuid.New(), nil)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestListViews_SplitByParty(t *testing.T) {
	f := setupRequestFixture(t)
	ctx := context.Background()
	f.submit(t, 10)
	f.submit(t, 20)

	mine, err := f.svc.ListForBuyer(ctx, f.buyer.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	incoming, err := f.svc.ListForSeller(ctx, f.seller.UserID)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	none, err := f.svc.ListForBuyer(ctx, f.seller.UserID)
	require.NoError(t, err)
	assert.Len(t, none, 0)
}
