package requests

import (
	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

type submitRequestBody struct {
	OfferingID            string  `json:"offering_id"`
	TokensRequested       int     `json:"tokens_requested"`
	Message               *string `json:"message"`
	ProposedPaymentMethod *string `json:"proposed_payment_method"`
	InvestmentPurpose     *string `json:"investment_purpose"`
}

// POST /api/v1/requests/submit-request
func (h *Handlers) SubmitRequest(c *fiber.Ctx) error {
	var body submitRequestBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	offeringID, err := uuid.Parse(body.OfferingID)
	if err != nil {
		return response.Error(c, "Invalid offering_id", 400, nil)
	}

	request, svcErr := h.Service.Submit(c.Context(), SubmitInput{
		BuyerID:               actorID,
		OfferingID:            offeringID,
		TokensRequested:       body.TokensRequested,
		Message:               body.Message,
		ProposedPaymentMethod: body.ProposedPaymentMethod,
		InvestmentPurpose:     body.InvestmentPurpose,
	})
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.SuccessCreated(c, "Purchase request submitted successfully", request, nil)
}

// POST /api/v1/requests/approve-request
func (h *Handlers) ApproveRequest(c *fiber.Ctx) error {
	var body struct {
		RequestID           string  `json:"request_id"`
		PaymentInstructions *string `json:"payment_instructions"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.Approve(c.Context(), requestID, actorID, body.PaymentInstructions)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Purchase request approved", request, nil)
}

// POST /api/v1/requests/reject-request
func (h *Handlers) RejectRequest(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
		Reason    string `json:"reason"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.Reject(c.Context(), requestID, actorID, body.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Purchase request rejected", request, nil)
}

// POST /api/v1/requests/upload-payment-proof
func (h *Handlers) UploadPaymentProof(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
		ProofURL  string `json:"proof_url"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.UploadPaymentProof(c.Context(), requestID, actorID, body.ProofURL)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment proof uploaded", request, nil)
}

// POST /api/v1/requests/confirm-payment
func (h *Handlers) ConfirmPayment(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.ConfirmPayment(c.Context(), requestID, actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment confirmed", request, nil)
}

// POST /api/v1/requests/assign-tokens
func (h *Handlers) AssignTokens(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.AssignTokens(c.Context(), requestID, actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tokens assigned successfully", request, nil)
}

// POST /api/v1/requests/complete-request
func (h *Handlers) CompleteRequest(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.Complete(c.Context(), requestID, actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Purchase request completed", request, nil)
}

// POST /api/v1/requests/cancel-request
func (h *Handlers) CancelRequest(c *fiber.Ctx) error {
	var body struct {
		RequestID string `json:"request_id"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.Cancel(c.Context(), requestID, actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Purchase request cancelled", request, nil)
}

// POST /api/v1/requests/sign-agreement
func (h *Handlers) SignAgreement(c *fiber.Ctx) error {
	var body struct {
		RequestID   string  `json:"request_id"`
		DocumentURL *string `json:"document_url"`
	}
	requestID, actorID, ok := parseRequestAction(c, &body, &body.RequestID)
	if !ok {
		return nil
	}
	request, err := h.Service.SignAgreement(c.Context(), requestID, actorID, body.DocumentURL)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Agreement signature recorded", request, nil)
}

// GET /api/v1/requests/get-request/:request_id
func (h *Handlers) GetRequest(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Params("request_id"))
	if err != nil {
		return response.Error(c, "Invalid request_id", 400, nil)
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	request, svcErr := h.Service.GetByID(c.Context(), requestID, actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Purchase request fetched", request, nil)
}

// GET /api/v1/requests/get-my-requests — requests the caller submitted.
func (h *Handlers) GetMyRequests(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, svcErr := h.Service.ListForBuyer(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Purchase requests fetched", list, nil)
}

// GET /api/v1/requests/get-incoming-requests — requests against the caller's offerings.
func (h *Handlers) GetIncomingRequests(c *fiber.Ctx) error {
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, svcErr := h.Service.ListForSeller(c.Context(), actorID)
	if svcErr != nil {
		return response.FromError(c, svcErr)
	}
	return response.Success(c, "Purchase requests fetched", list, nil)
}

// parseRequestAction parses the body, the request id and the actor, writing
// the error response itself. ok is false when a response was already sent.
func parseRequestAction(c *fiber.Ctx, body interface{}, requestID *string) (uuid.UUID, uuid.UUID, bool) {
	if err := c.BodyParser(body); err != nil || *requestID == "" {
		_ = response.Error(c, "Invalid request_id", 400, nil)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(*requestID)
	if err != nil {
		_ = response.Error(c, "Invalid request_id", 400, nil)
		return uuid.Nil, uuid.Nil, false
	}
	actorID, _, err := middleware.Actor(c)
	if err != nil {
		_ = response.Unauthorized(c, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return id, actorID, true
}
