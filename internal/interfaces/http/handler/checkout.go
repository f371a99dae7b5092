package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apppayment "github.com/netpass/backend/internal/application/payment"
	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/interfaces/http/dto"
)

// CheckoutHandler serves the captive portal's checkout endpoints
type CheckoutHandler struct {
	BaseHandler
	checkout *apppayment.CheckoutService
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout *apppayment.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// CardPaymentRequest is the card checkout request body
type CardPaymentRequest struct {
	Token            string          `json:"token" binding:"required"`
	PaymentMethodID  string          `json:"payment_method_id" binding:"required"`
	Email            string          `json:"email" binding:"required,email"`
	TaxID            string          `json:"cpf" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	ClientIdentifier string          `json:"mac" binding:"required,clientid"`
	GrantSeconds     int64           `json:"duration"`
}

// PixPaymentRequest is the Pix checkout request body
type PixPaymentRequest struct {
	Email            string          `json:"email" binding:"required,email"`
	TaxID            string          `json:"cpf" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	ClientIdentifier string          `json:"mac" binding:"required,clientid"`
	GrantSeconds     int64           `json:"duration"`
}

// PaymentMethodSearchRequest is the BIN search request body
type PaymentMethodSearchRequest struct {
	BIN string `json:"bin" binding:"required,min=6"`
}

// CardPaymentResponse carries the provider's view of a created card payment
type CardPaymentResponse struct {
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail,omitempty"`
}

// PixPaymentResponse carries the Pix code for the portal to display
type PixPaymentResponse struct {
	PaymentID       string `json:"payment_id"`
	Status          string `json:"status"`
	PixQRCode       string `json:"pix_qr_code"`
	PixQRCodeBase64 string `json:"pix_qr_code_base64,omitempty"`
}

// PaymentMethodResponse identifies the card brand for a BIN
type PaymentMethodResponse struct {
	PaymentMethodID string `json:"payment_method_id"`
}

// ProcessCardPayment handles POST /api/v1/checkout/payments
func (h *CheckoutHandler) ProcessCardPayment(c *gin.Context) {
	var req CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.checkout.ProcessCardPayment(c.Request.Context(), apppayment.CardPaymentInput{
		CardToken:        req.Token,
		PaymentMethodID:  req.PaymentMethodID,
		Email:            req.Email,
		TaxID:            req.TaxID,
		Amount:           req.Amount,
		ClientIdentifier: req.ClientIdentifier,
		GrantSeconds:     req.GrantSeconds,
	})
	if err != nil {
		h.handleCheckoutError(c, err)
		return
	}

	h.Success(c, CardPaymentResponse{
		PaymentID:    result.PaymentID,
		Status:       string(result.Status),
		StatusDetail: result.StatusDetail,
	})
}

// GeneratePix handles POST /api/v1/checkout/pix
func (h *CheckoutHandler) GeneratePix(c *gin.Context) {
	var req PixPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.checkout.GeneratePix(c.Request.Context(), apppayment.PixPaymentInput{
		Email:            req.Email,
		TaxID:            req.TaxID,
		Amount:           req.Amount,
		ClientIdentifier: req.ClientIdentifier,
		GrantSeconds:     req.GrantSeconds,
	})
	if err != nil {
		h.handleCheckoutError(c, err)
		return
	}

	h.Success(c, PixPaymentResponse{
		PaymentID:       result.PaymentID,
		Status:          string(result.Status),
		PixQRCode:       result.PixQRCode,
		PixQRCodeBase64: result.PixQRCodeBase64,
	})
}

// SearchPaymentMethods handles POST /api/v1/checkout/payment-methods/search
func (h *CheckoutHandler) SearchPaymentMethods(c *gin.Context) {
	var req PaymentMethodSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "Invalid request body: "+err.Error())
		return
	}

	method, err := h.checkout.SearchPaymentMethod(c.Request.Context(), req.BIN)
	if err != nil {
		if errors.Is(err, payment.ErrNoPaymentMethod) {
			h.ErrorWithCode(c, dto.ErrCodeNoPaymentMethod, "No active card brand found for BIN")
			return
		}
		h.handleCheckoutError(c, err)
		return
	}

	h.Success(c, PaymentMethodResponse{PaymentMethodID: method.ID})
}

// handleCheckoutError maps checkout failures onto transport responses.
// Provider errors keep their original status code and body so the portal sees
// exactly what the provider said.
func (h *CheckoutHandler) handleCheckoutError(c *gin.Context, err error) {
	var gatewayErr *payment.GatewayHTTPError
	if errors.As(err, &gatewayErr) {
		h.logger.Warn("Gateway refused checkout request",
			zap.Int("status", gatewayErr.StatusCode))
		c.Data(gatewayErr.StatusCode, "application/json", gatewayErr.Body)
		return
	}

	if errors.Is(err, apppayment.ErrCheckoutInvalidRequest) {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Checkout request is incomplete")
		return
	}
	if errors.Is(err, payment.ErrGatewayUnavailable) {
		h.ErrorWithCode(c, dto.ErrCodeGatewayUnavailable, "Payment provider is unreachable")
		return
	}

	h.logger.Error("Checkout failed", zap.Error(err))
	h.InternalError(c, "Failed to process checkout")
}
