package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/infrastructure/config"
)

func newTestAdapter(serverURL string) *MercadoPagoAdapter {
	return NewMercadoPagoAdapter(config.GatewayConfig{
		BaseURL:     serverURL,
		AccessToken: "test-token",
		SiteID:      "MLB",
		Timeout:     5 * time.Second,
	})
}

func TestMercadoPagoAdapter_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates card payment with auth and idempotency headers", func(t *testing.T) {
		var gotAuth, gotIdemKey string
		var gotBody mpCreatePaymentRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, paymentsPath, r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			gotIdemKey = r.Header.Get("X-Idempotency-Key")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":12345,"status":"approved","status_detail":"accredited","transaction_amount":9.9,"date_created":"2026-08-29T10:00:00Z"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		p, err := adapter.CreatePayment(ctx, &payment.CreatePaymentRequest{
			Amount:          decimal.NewFromFloat(9.90),
			Description:     "Hotspot access",
			PaymentMethodID: "visa",
			CardToken:       "tok_abc",
			Installments:    1,
			Payer:           payment.Payer{Email: "payer@example.com", TaxID: "12345678900"},
			IdempotencyKey:  "key-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "Bearer test-token", gotAuth)
		assert.Equal(t, "key-1", gotIdemKey)
		assert.Equal(t, "visa", gotBody.PaymentMethodID)
		assert.Equal(t, "tok_abc", gotBody.Token)
		assert.Equal(t, "CPF", gotBody.Payer.Identification.Type)
		assert.Equal(t, "12345678900", gotBody.Payer.Identification.Number)

		assert.Equal(t, "12345", p.ID)
		assert.Equal(t, payment.StatusApproved, p.Status)
		assert.Equal(t, "accredited", p.StatusDetail)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("extracts pix qr code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":67890,"status":"pending","transaction_amount":5,"point_of_interaction":{"transaction_data":{"qr_code":"00020126...","qr_code_base64":"aW1hZ2U="}}}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		p, err := adapter.CreatePayment(ctx, &payment.CreatePaymentRequest{
			Amount:          decimal.NewFromInt(5),
			PaymentMethodID: "pix",
			Payer:           payment.Payer{Email: "payer@example.com", TaxID: "12345678900"},
			IdempotencyKey:  "key-2",
		})
		require.NoError(t, err)

		assert.Equal(t, "67890", p.ID)
		assert.Equal(t, payment.StatusPending, p.Status)
		assert.Equal(t, "00020126...", p.PixQRCode)
		assert.Equal(t, "aW1hZ2U=", p.PixQRCodeBase64)
	})

	t.Run("rejects missing idempotency key", func(t *testing.T) {
		adapter := newTestAdapter("http://localhost")
		_, err := adapter.CreatePayment(ctx, &payment.CreatePaymentRequest{
			Amount:          decimal.NewFromInt(5),
			PaymentMethodID: "pix",
		})
		assert.Error(t, err)
	})

	t.Run("preserves provider error status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"invalid card token"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		_, err := adapter.CreatePayment(ctx, &payment.CreatePaymentRequest{
			Amount:          decimal.NewFromInt(5),
			PaymentMethodID: "visa",
			IdempotencyKey:  "key-3",
		})

		var gatewayErr *payment.GatewayHTTPError
		require.True(t, errors.As(err, &gatewayErr))
		assert.Equal(t, http.StatusBadRequest, gatewayErr.StatusCode)
		assert.JSONEq(t, `{"message":"invalid card token"}`, string(gatewayErr.Body))
	})
}

func TestMercadoPagoAdapter_GetPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches payment by id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, paymentsPath+"/12345", r.URL.Path)
			require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":12345,"status":"approved","transaction_amount":9.9}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		p, err := adapter.GetPayment(ctx, "12345")
		require.NoError(t, err)

		assert.Equal(t, "12345", p.ID)
		assert.Equal(t, payment.StatusApproved, p.Status)
	})

	t.Run("rejects empty payment id", func(t *testing.T) {
		adapter := newTestAdapter("http://localhost")
		_, err := adapter.GetPayment(ctx, " ")
		assert.ErrorIs(t, err, payment.ErrInvalidPaymentID)
	})

	t.Run("surfaces gateway 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Payment not found"}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		_, err := adapter.GetPayment(ctx, "99999")

		var gatewayErr *payment.GatewayHTTPError
		require.True(t, errors.As(err, &gatewayErr))
		assert.Equal(t, http.StatusNotFound, gatewayErr.StatusCode)
	})

	t.Run("rejects malformed response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		_, err := adapter.GetPayment(ctx, "12345")
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidResponse)
	})

	t.Run("maps unreachable gateway", func(t *testing.T) {
		adapter := newTestAdapter("http://127.0.0.1:1")
		_, err := adapter.GetPayment(ctx, "12345")
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})
}

func TestMercadoPagoAdapter_SearchPaymentMethods(t *testing.T) {
	ctx := context.Background()

	t.Run("sends bin and site id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, paymentMethodSearchPath, r.URL.Path)
			require.Equal(t, "411111", r.URL.Query().Get("bin"))
			require.Equal(t, "MLB", r.URL.Query().Get("site_id"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"results":[{"id":"visa","payment_type_id":"credit_card","status":"active"},{"id":"pix","payment_type_id":"bank_transfer","status":"active"}]}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(server.URL)
		methods, err := adapter.SearchPaymentMethods(ctx, "411111")
		require.NoError(t, err)

		require.Len(t, methods, 2)
		assert.Equal(t, "visa", methods[0].ID)
		assert.True(t, methods[0].IsActiveCard())
		assert.False(t, methods[1].IsActiveCard())
	})

	t.Run("rejects empty bin", func(t *testing.T) {
		adapter := newTestAdapter("http://localhost")
		_, err := adapter.SearchPaymentMethods(ctx, "")
		assert.ErrorIs(t, err, payment.ErrInvalidBIN)
	})
}
