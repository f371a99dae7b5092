package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/domain/payment"
)

var (
	// ErrCheckoutInvalidRequest is returned when a checkout request is incomplete
	ErrCheckoutInvalidRequest = errors.New("checkout: invalid request")
)

// CheckoutService creates payment orders in the gateway and records the
// pending transaction in the ledger, so the later webhook can be joined back
// to the client identifier. A fresh provider idempotency key is generated per
// creation call.
type CheckoutService struct {
	gateway              payment.Gateway
	ledger               access.TransactionLedger
	defaultGrantDuration time.Duration
	logger               *zap.Logger
}

// CheckoutServiceConfig holds configuration for the checkout service
type CheckoutServiceConfig struct {
	Gateway              payment.Gateway
	Ledger               access.TransactionLedger
	DefaultGrantDuration time.Duration
	Logger               *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(cfg CheckoutServiceConfig) *CheckoutService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	grant := cfg.DefaultGrantDuration
	if grant <= 0 {
		grant = time.Hour
	}
	return &CheckoutService{
		gateway:              cfg.Gateway,
		ledger:               cfg.Ledger,
		defaultGrantDuration: grant,
		logger:               logger,
	}
}

// ProcessCardPayment creates a tokenized card payment and records the
// pending transaction
func (s *CheckoutService) ProcessCardPayment(ctx context.Context, input CardPaymentInput) (*CheckoutResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	grantSeconds := input.GrantSeconds
	if grantSeconds <= 0 {
		grantSeconds = int64(s.defaultGrantDuration / time.Second)
	}

	created, err := s.gateway.CreatePayment(ctx, &payment.CreatePaymentRequest{
		Amount:          input.Amount,
		Description:     "Hotspot access",
		PaymentMethodID: input.PaymentMethodID,
		CardToken:       input.CardToken,
		Installments:    1,
		Payer: payment.Payer{
			Email: input.Email,
			TaxID: input.TaxID,
		},
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		s.logger.Error("Card payment creation failed",
			zap.String("payment_method_id", input.PaymentMethodID),
			zap.Error(err))
		return nil, err
	}

	s.recordTransaction(ctx, created, input.TaxID, input.Email, input.Amount, input.ClientIdentifier, grantSeconds)

	return &CheckoutResult{
		PaymentID:    created.ID,
		Status:       created.Status,
		StatusDetail: created.StatusDetail,
		RawResponse:  created.RawResponse,
	}, nil
}

// GeneratePix creates a Pix payment and records the pending transaction.
// The result carries the copy-and-paste code and QR image for the captive
// portal to display.
func (s *CheckoutService) GeneratePix(ctx context.Context, input PixPaymentInput) (*CheckoutResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	grantSeconds := input.GrantSeconds
	if grantSeconds <= 0 {
		grantSeconds = int64(s.defaultGrantDuration / time.Second)
	}

	created, err := s.gateway.CreatePayment(ctx, &payment.CreatePaymentRequest{
		Amount:          input.Amount,
		Description:     "Hotspot access via Pix",
		PaymentMethodID: "pix",
		Installments:    1,
		Payer: payment.Payer{
			Email: input.Email,
			TaxID: input.TaxID,
		},
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		s.logger.Error("Pix payment creation failed", zap.Error(err))
		return nil, err
	}

	if created.PixQRCode == "" {
		s.logger.Error("Pix payment response carried no QR code",
			zap.String("payment_id", created.ID))
		return nil, fmt.Errorf("%w: missing pix qr code", payment.ErrGatewayInvalidResponse)
	}

	s.recordTransaction(ctx, created, input.TaxID, input.Email, input.Amount, input.ClientIdentifier, grantSeconds)

	return &CheckoutResult{
		PaymentID:       created.ID,
		Status:          created.Status,
		StatusDetail:    created.StatusDetail,
		PixQRCode:       created.PixQRCode,
		PixQRCodeBase64: created.PixQRCodeBase64,
		RawResponse:     created.RawResponse,
	}, nil
}

// SearchPaymentMethod returns the first active card method matching a BIN
func (s *CheckoutService) SearchPaymentMethod(ctx context.Context, bin string) (*payment.PaymentMethod, error) {
	methods, err := s.gateway.SearchPaymentMethods(ctx, bin)
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].IsActiveCard() {
			return &methods[i], nil
		}
	}
	return nil, payment.ErrNoPaymentMethod
}

// recordTransaction writes the pending transaction. A ledger failure here is
// logged but does not fail the checkout: the payment already exists in the
// provider and the payer must receive its result.
func (s *CheckoutService) recordTransaction(ctx context.Context, created *payment.Payment, taxID, email string, amount decimal.Decimal, clientIdentifier string, grantSeconds int64) {
	_, err := s.ledger.RecordTransaction(ctx, access.RecordTransactionInput{
		TaxID:            taxID,
		Email:            email,
		Amount:           amount,
		ClientIdentifier: clientIdentifier,
		PaymentReference: created.ID,
		GrantSeconds:     grantSeconds,
	})
	if err != nil {
		s.logger.Error("Failed to record transaction for payment",
			zap.String("payment_id", created.ID),
			zap.String("client_identifier", clientIdentifier),
			zap.Error(err))
		return
	}
	s.logger.Info("Transaction recorded",
		zap.String("payment_id", created.ID),
		zap.String("client_identifier", clientIdentifier),
		zap.Int64("grant_seconds", grantSeconds))
}
