package gateway_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contentpay_backend/internal/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *gateway.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewHTTPClient(gateway.Config{BaseURL: srv.URL, SecretKey: "sk_test", Timeout: time.Second})
}

func TestRequestApproval_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/confirm", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test", user)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ORDER-20250101-120000-ABC123", body["merchantUid"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"merchantUid": "ORDER-20250101-120000-ABC123",
			"transactionId": "pg-tx-1",
			"status": "PAID",
			"method": "CARD",
			"totalAmount": "29900",
			"approvedAt": "2025-01-01T12:01:00Z",
			"buyer": {"name": "Kim", "phone": "010-0000-0000"},
			"card": {"company": "VISA", "number": "4111-****", "installment": 0}
		}`)
	})

	result, err := client.RequestApproval(t.Context(), gateway.AuthResult{
		PaymentKey:  "pk",
		MerchantUid: "ORDER-20250101-120000-ABC123",
		Amount:      decimal.NewFromInt(29900),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "pg-tx-1", result.PgTransactionID)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(29900)))
	assert.Equal(t, "Kim", result.Buyer.Name)
	assert.Equal(t, "VISA", result.Card.Company)
	assert.NotEmpty(t, result.Raw)
}

func TestRequestApproval_DeclineIsAValue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"REJECT_CARD","message":"card rejected"}`)
	})

	result, err := client.RequestApproval(t.Context(), gateway.AuthResult{MerchantUid: "ORDER-20250101-120000-ABC123"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "REJECT_CARD", result.ErrorCode)
	assert.Equal(t, "card rejected", result.ErrorMessage)
}

func TestRequestRefund_ServerErrorIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/ORDER-20250101-120000-ABC123/cancel", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.RequestRefund(t.Context(), gateway.CancelInfo{MerchantUid: "ORDER-20250101-120000-ABC123"})
	require.ErrorIs(t, err, gateway.ErrUnexpectedStatus)
}

func TestRequestRefund_Declined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"code":"E01","message":"already settled"}`)
	})

	result, err := client.RequestRefund(t.Context(), gateway.CancelInfo{MerchantUid: "ORDER-20250101-120000-ABC123"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "E01", result.ErrorCode)
}

func TestRequestApproval_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalAmount": [`)
	})

	_, err := client.RequestApproval(t.Context(), gateway.AuthResult{})
	require.ErrorIs(t, err, gateway.ErrMalformedResponse)
}

func TestRequestApproval_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	client := gateway.NewHTTPClient(gateway.Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})

	_, err := client.RequestApproval(t.Context(), gateway.AuthResult{})
	require.Error(t, err)
}

func TestFindPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/payments/orders/ORDER-20250101-120000-ABC123":
			_, _ = io.WriteString(w, `{"transactionId":"pg-1","status":"PAID","totalAmount":29900}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"NOT_FOUND_PAYMENT","message":"no payment"}`)
		}
	})

	paid, err := client.FindPayment(t.Context(), "ORDER-20250101-120000-ABC123")
	require.NoError(t, err)
	assert.True(t, paid.Success)
	assert.Equal(t, gateway.PaymentStatusPaid, paid.Status)

	missing, err := client.FindPayment(t.Context(), "ORDER-20250101-120000-ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, missing.Success)
	assert.Equal(t, gateway.PaymentStatusNotFound, missing.Status)
}

func TestRequestPayout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payouts", r.URL.Path)
		_, _ = io.WriteString(w, `{"payoutId":"po-1"}`)
	})

	result, err := client.RequestPayout(t.Context(), gateway.PayoutRequest{SettlementID: "s-1", Amount: decimal.NewFromInt(290400)})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "po-1", result.PayoutTransactionID)
}

func TestSigner(t *testing.T) {
	signer := gateway.NewSigner("whsec")
	body := []byte(`{"merchantUid":"ORDER-20250101-120000-ABC123"}`)

	sig := signer.Sign(body)
	assert.True(t, signer.Verify(body, sig))
	assert.False(t, signer.Verify(body, "deadbeef"))
	assert.False(t, signer.Verify([]byte(`{}`), sig))
	assert.False(t, gateway.NewSigner("").Verify(body, sig))
}
