package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
)

func newTestPayoutAPI(t *testing.T, handler http.HandlerFunc) PayoutAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config.PAYOUT_API_URL = srv.URL
	config.PAYOUT_API_TOKEN = "test-token"
	return NewPayoutAPI(zap.NewNop())
}

func TestCreatePayout(t *testing.T) {
	var got *PayoutRequest
	api := newTestPayoutAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payouts", r.URL.Path)
		assert.Equal(t, "qt_1", r.Header.Get("X-Idempotency-Key"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("authorization"))

		got = new(PayoutRequest)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		json.NewEncoder(w).Encode(&PayoutReceipt{PayoutRequestID: "po_1", Status: "submitted"})
	})

	receipt, err := api.CreatePayout(context.Background(), &PayoutRequest{
		IdempotencyKey: "qt_1",
		RecipientName:  "Jane Doe",
		IBAN:           "DE89370400440532013000",
		BIC:            "DEUTDEFF",
		Amount:         89,
		Currency:       "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "po_1", receipt.PayoutRequestID)
	require.NotNil(t, got)
	assert.EqualValues(t, 89, got.Amount)
}

func TestCreatePayoutDefinitiveRejection(t *testing.T) {
	api := newTestPayoutAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid creditor account", http.StatusUnprocessableEntity)
	})

	_, err := api.CreatePayout(context.Background(), &PayoutRequest{IdempotencyKey: "qt_1"})
	require.Error(t, err)

	payoutErr, ok := err.(*PayoutError)
	require.True(t, ok, "4xx must surface as a definitive PayoutError")
	assert.Equal(t, http.StatusUnprocessableEntity, payoutErr.StatusCode)
}

func TestCreatePayoutServerErrorIsTransient(t *testing.T) {
	api := newTestPayoutAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusBadGateway)
	})

	_, err := api.CreatePayout(context.Background(), &PayoutRequest{IdempotencyKey: "qt_1"})
	require.Error(t, err)
	_, definitive := err.(*PayoutError)
	assert.False(t, definitive, "5xx must stay retryable")
}

func TestGetPayoutStatusUnknownKey(t *testing.T) {
	api := newTestPayoutAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := api.GetPayoutStatus(context.Background(), "qt_unknown")
	assert.ErrorIs(t, err, ErrPayoutUnknown)
}

func TestGetPayoutStatus(t *testing.T) {
	api := newTestPayoutAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payouts/qt_1", r.URL.Path)
		json.NewEncoder(w).Encode(&PayoutReceipt{PayoutRequestID: "po_1", Status: "confirmed"})
	})

	receipt, err := api.GetPayoutStatus(context.Background(), "qt_1")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", receipt.Status)
}
