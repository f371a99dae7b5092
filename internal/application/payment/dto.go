package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/netpass/backend/internal/domain/payment"
)

// CardPaymentInput is a tokenized card checkout request
type CardPaymentInput struct {
	CardToken        string
	PaymentMethodID  string
	Email            string
	TaxID            string
	Amount           decimal.Decimal
	ClientIdentifier string
	GrantSeconds     int64
}

func (i CardPaymentInput) validate() error {
	if strings.TrimSpace(i.CardToken) == "" ||
		strings.TrimSpace(i.PaymentMethodID) == "" {
		return ErrCheckoutInvalidRequest
	}
	return validateCommonFields(i.Email, i.TaxID, i.Amount, i.ClientIdentifier)
}

// PixPaymentInput is a Pix checkout request
type PixPaymentInput struct {
	Email            string
	TaxID            string
	Amount           decimal.Decimal
	ClientIdentifier string
	GrantSeconds     int64
}

func (i PixPaymentInput) validate() error {
	return validateCommonFields(i.Email, i.TaxID, i.Amount, i.ClientIdentifier)
}

func validateCommonFields(email, taxID string, amount decimal.Decimal, clientIdentifier string) error {
	if strings.TrimSpace(email) == "" ||
		strings.TrimSpace(taxID) == "" ||
		strings.TrimSpace(clientIdentifier) == "" ||
		amount.LessThanOrEqual(decimal.Zero) {
		return ErrCheckoutInvalidRequest
	}
	return nil
}

// CheckoutResult is the outcome of a checkout operation
type CheckoutResult struct {
	PaymentID       string
	Status          payment.Status
	StatusDetail    string
	PixQRCode       string
	PixQRCodeBase64 string
	RawResponse     []byte
}
