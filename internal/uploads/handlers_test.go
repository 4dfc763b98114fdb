package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	lastBucket string
	lastPath   string
	err        error
}

func (f *fakeClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	f.lastBucket = bucket
	f.lastPath = path
	if f.err != nil {
		return "", f.err
	}
	return "https://example.com/upload", nil
}

func setupUploadTest(t *testing.T) (*Handlers, *fakeClient) {
	client := &fakeClient{}
	svc := &Service{
		Client:  client,
		BaseURL: "https://blob.example.com",
	}
	h := &Handlers{Service: svc}
	return h, client
}

func TestUploadPaymentProof_MissingFileName(t *testing.T) {
	h, _ := setupUploadTest(t)
	app := fiber.New()
	app.Post("/api/v1/uploads/payment-proof", h.UploadPaymentProof)

	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest("POST", "/api/v1/uploads/payment-proof", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadPaymentProof_Success(t *testing.T) {
	h, client := setupUploadTest(t)
	app := fiber.New()
	app.Post("/api/v1/uploads/payment-proof", h.UploadPaymentProof)

	body, _ := json.Marshal(map[string]string{"file_name": "proof.pdf"})
	req := httptest.NewRequest("POST", "/api/v1/uploads/payment-proof", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment-proofs", client.lastBucket)
	assert.True(t, strings.HasSuffix(client.lastPath, "-proof.pdf"))
}

func TestUploadAgreementDoc_Success(t *testing.T) {
	h, client := setupUploadTest(t)
	app := fiber.New()
	app.Post("/api/v1/uploads/agreement-doc", h.UploadAgreementDoc)

	body, _ := json.Marshal(map[string]string{"file_name": "agreement.pdf"})
	req := httptest.NewRequest("POST", "/api/v1/uploads/agreement-doc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "agreement-docs", client.lastBucket)
}

func TestUploads_ClientFailureGets500(t *testing.T) {
	h, client := setupUploadTest(t)
	client.err = errors.New("boom")
	app := fiber.New()
	app.Post("/api/v1/uploads/property-image", h.UploadPropertyImage)

	body, _ := json.Marshal(map[string]string{"file_name": "front.jpg"})
	req := httptest.NewRequest("POST", "/api/v1/uploads/property-image", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestGetSignedUploadURL_PublicURLShape(t *testing.T) {
	client := &fakeClient{}
	svc := &Service{Client: client, BaseURL: "https://blob.example.com/"}

	res, err := svc.GetSignedUploadURL(context.Background(), "payment-proofs", "proof.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/upload", res.UploadURL)
	assert.True(t, strings.HasPrefix(res.PublicURL, "https://blob.example.com/storage/v1/object/public/payment-proofs/"))
	assert.Equal(t, client.lastPath, res.Path)
}
