package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/infrastructure/config"
)

const (
	paymentsPath            = "/v1/payments"
	paymentMethodSearchPath = "/v1/payment_methods/search"
	identificationTypeCPF   = "CPF"
)

// MercadoPagoAdapter implements the payment.Gateway port against the
// Mercado Pago REST API
type MercadoPagoAdapter struct {
	baseURL     string
	accessToken string
	siteID      string
	httpClient  *http.Client
}

// NewMercadoPagoAdapter creates a new Mercado Pago adapter
func NewMercadoPagoAdapter(cfg config.GatewayConfig) *MercadoPagoAdapter {
	return &MercadoPagoAdapter{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		siteID:      cfg.SiteID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CreatePayment creates a payment order. The provider deduplicates retried
// deliveries of the same creation request via the X-Idempotency-Key header.
func (a *MercadoPagoAdapter) CreatePayment(ctx context.Context, req *payment.CreatePaymentRequest) (*payment.Payment, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("mercadopago: idempotency key is required")
	}

	body := mpCreatePaymentRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   req.PaymentMethodID,
		Token:             req.CardToken,
		Installments:      req.Installments,
		Payer: mpPayer{
			Email: req.Payer.Email,
			Identification: mpIdentification{
				Type:   identificationTypeCPF,
				Number: req.Payer.TaxID,
			},
		},
	}
	if body.Installments == 0 {
		body.Installments = 1
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+paymentsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.accessToken)
	httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)

	respBody, err := a.do(httpReq)
	if err != nil {
		return nil, err
	}

	return parsePayment(respBody)
}

// GetPayment fetches the authoritative state of a payment by reference
func (a *MercadoPagoAdapter) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, payment.ErrInvalidPaymentID
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+paymentsPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.accessToken)

	respBody, err := a.do(httpReq)
	if err != nil {
		return nil, err
	}

	return parsePayment(respBody)
}

// SearchPaymentMethods lists provider payment methods matching a card BIN
func (a *MercadoPagoAdapter) SearchPaymentMethods(ctx context.Context, bin string) ([]payment.PaymentMethod, error) {
	if strings.TrimSpace(bin) == "" {
		return nil, payment.ErrInvalidBIN
	}

	q := url.Values{}
	q.Set("bin", bin)
	q.Set("site_id", a.siteID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+paymentMethodSearchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.accessToken)

	respBody, err := a.do(httpReq)
	if err != nil {
		return nil, err
	}

	var search mpPaymentMethodSearchResponse
	if err := json.Unmarshal(respBody, &search); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}

	methods := make([]payment.PaymentMethod, 0, len(search.Results))
	for _, m := range search.Results {
		methods = append(methods, payment.PaymentMethod{
			ID:     m.ID,
			Type:   m.PaymentTypeID,
			Status: m.Status,
		})
	}
	return methods, nil
}

// do executes the request. Non-2xx responses are preserved verbatim in a
// GatewayHTTPError so callers can pass the provider's status and body through.
func (a *MercadoPagoAdapter) do(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &payment.GatewayHTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return respBody, nil
}

// parsePayment maps a provider payment body onto the domain Payment
func parsePayment(respBody []byte) (*payment.Payment, error) {
	var mp mpPaymentResponse
	if err := json.Unmarshal(respBody, &mp); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	if mp.ID == 0 {
		return nil, fmt.Errorf("%w: missing payment id", payment.ErrGatewayInvalidResponse)
	}

	p := &payment.Payment{
		ID:           fmt.Sprintf("%d", mp.ID),
		Status:       payment.Status(mp.Status),
		StatusDetail: mp.StatusDetail,
		Amount:       mp.TransactionAmount,
		RawResponse:  respBody,
	}

	if mp.DateCreated != "" {
		if t, err := time.Parse(time.RFC3339, mp.DateCreated); err == nil {
			p.CreatedAt = t
		}
	}

	if mp.PointOfInteraction != nil {
		p.PixQRCode = mp.PointOfInteraction.TransactionData.QRCode
		p.PixQRCodeBase64 = mp.PointOfInteraction.TransactionData.QRCodeBase64
	}

	return p, nil
}

// Ensure MercadoPagoAdapter implements the Gateway port
var _ payment.Gateway = (*MercadoPagoAdapter)(nil)
