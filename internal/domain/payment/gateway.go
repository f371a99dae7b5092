package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/netpass/backend/internal/domain/access"
)

var (
	// ErrInvalidPaymentID is returned when a payment lookup is attempted without a reference
	ErrInvalidPaymentID = errors.New("payment: payment id is required")
	// ErrInvalidBIN is returned when a payment-method search is attempted without a card BIN
	ErrInvalidBIN = errors.New("payment: card BIN is required")
	// ErrGatewayUnavailable is returned when the gateway cannot be reached
	ErrGatewayUnavailable = errors.New("payment: gateway temporarily unavailable")
	// ErrGatewayInvalidResponse is returned when the gateway response cannot be parsed
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	// ErrNoPaymentMethod is returned when no active card method matches a BIN
	ErrNoPaymentMethod = errors.New("payment: no active payment method for BIN")
)

// GatewayHTTPError preserves a non-2xx gateway response so checkout flows can
// surface the provider's status code and error body verbatim to the caller.
type GatewayHTTPError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface
func (e *GatewayHTTPError) Error() string {
	return fmt.Sprintf("payment: gateway returned HTTP %d", e.StatusCode)
}

// Status is the provider's raw payment status string
type Status string

const (
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusPending    Status = "pending"
	StatusInProcess  Status = "in_process"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusChargeback Status = "charged_back"
)

// ToLedgerStatus maps a provider status onto the ledger lifecycle. Statuses
// without dedicated handling collapse into "other": the ledger records them
// and nothing else happens.
func (s Status) ToLedgerStatus() access.TransactionStatus {
	switch s {
	case StatusApproved:
		return access.TransactionStatusApproved
	case StatusRejected:
		return access.TransactionStatusRejected
	case StatusPending, StatusInProcess:
		return access.TransactionStatusPending
	default:
		return access.TransactionStatusOther
	}
}

// Payer identifies who is paying
type Payer struct {
	Email string
	TaxID string
}

// CreatePaymentRequest is a request to create a payment order in the gateway
type CreatePaymentRequest struct {
	// Amount is the transaction amount
	Amount decimal.Decimal
	// Description is shown on the payer's statement
	Description string
	// PaymentMethodID selects the provider payment method (card brand or "pix")
	PaymentMethodID string
	// CardToken is the tokenized card, empty for Pix
	CardToken string
	// Installments is the number of installments, 1 for Pix
	Installments int
	// Payer identifies the paying person
	Payer Payer
	// IdempotencyKey deduplicates retried creation attempts on the provider side.
	// A fresh key must be generated per creation call.
	IdempotencyKey string
}

// Payment is the gateway's view of one payment attempt
type Payment struct {
	// ID is the provider-assigned payment reference
	ID string
	// Status is the provider's raw status
	Status Status
	// StatusDetail carries the provider's fine-grained status reason
	StatusDetail string
	// Amount is the transaction amount
	Amount decimal.Decimal
	// PixQRCode is the copy-and-paste Pix code, set for Pix payments only
	PixQRCode string
	// PixQRCodeBase64 is the QR image, set for Pix payments only
	PixQRCodeBase64 string
	// CreatedAt is the provider-side creation time
	CreatedAt time.Time
	// RawResponse is the original gateway response body
	RawResponse []byte
}

// PaymentMethod is one provider payment method returned by a BIN search
type PaymentMethod struct {
	ID     string
	Type   string
	Status string
}

// IsActiveCard reports whether the method is an active credit or debit card
func (m PaymentMethod) IsActiveCard() bool {
	return m.Status == "active" && (m.Type == "credit_card" || m.Type == "debit_card")
}

// Gateway is the port to the external payment provider. Concrete adapters
// live in the infrastructure layer.
type Gateway interface {
	// CreatePayment creates a payment order and returns the provider's view of it
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)

	// GetPayment fetches the authoritative state of a payment by reference
	GetPayment(ctx context.Context, id string) (*Payment, error)

	// SearchPaymentMethods lists provider payment methods matching a card BIN
	SearchPaymentMethods(ctx context.Context, bin string) ([]PaymentMethod, error)
}
