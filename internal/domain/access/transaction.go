package access

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/netpass/backend/internal/domain/shared"
)

var (
	// ErrInvalidAmount is returned when the transaction amount is not positive
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	// ErrInvalidClientIdentifier is returned when the network identifier is missing
	ErrInvalidClientIdentifier = shared.NewDomainError("INVALID_CLIENT_IDENTIFIER", "Client network identifier is required")
	// ErrInvalidPaymentReference is returned when the payment reference is missing
	ErrInvalidPaymentReference = shared.NewDomainError("INVALID_PAYMENT_REFERENCE", "Payment reference is required")
	// ErrInvalidGrantDuration is returned when the requested grant duration is not positive
	ErrInvalidGrantDuration = shared.NewDomainError("INVALID_GRANT_DURATION", "Grant duration must be positive")
	// ErrStatusRegression is returned on an attempt to move a transaction back to initiated
	ErrStatusRegression = shared.NewDomainError("STATUS_REGRESSION", "Transaction status cannot return to initiated")
)

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	// TransactionStatusInitiated is the state at creation, before any notification resolved it
	TransactionStatusInitiated TransactionStatus = "initiated"
	// TransactionStatusApproved indicates the provider approved the payment
	TransactionStatusApproved TransactionStatus = "approved"
	// TransactionStatusRejected indicates the provider rejected the payment
	TransactionStatusRejected TransactionStatus = "rejected"
	// TransactionStatusPending indicates the provider has not resolved the payment yet
	TransactionStatusPending TransactionStatus = "pending"
	// TransactionStatusOther covers provider states with no dedicated handling
	TransactionStatusOther TransactionStatus = "other"
)

// IsValid returns true if the status is one of the known lifecycle states
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusInitiated, TransactionStatusApproved, TransactionStatusRejected,
		TransactionStatusPending, TransactionStatusOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// Transaction records one payment attempt and the network identifier to be
// admitted when the payment is approved. The payment reference is the sole
// join key for reconciliation and is immutable once set.
type Transaction struct {
	ID               uuid.UUID
	IdentityID       uuid.UUID
	Amount           decimal.Decimal
	ClientIdentifier string
	PaymentReference string
	Status           TransactionStatus
	GrantSeconds     int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction creates a transaction in the initiated state
func NewTransaction(identityID uuid.UUID, amount decimal.Decimal, clientIdentifier, paymentReference string, grantSeconds int64) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	clientIdentifier = strings.TrimSpace(clientIdentifier)
	if clientIdentifier == "" {
		return nil, ErrInvalidClientIdentifier
	}
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, ErrInvalidPaymentReference
	}
	if grantSeconds <= 0 {
		return nil, ErrInvalidGrantDuration
	}
	now := time.Now()
	return &Transaction{
		ID:               uuid.New(),
		IdentityID:       identityID,
		Amount:           amount,
		ClientIdentifier: clientIdentifier,
		PaymentReference: paymentReference,
		Status:           TransactionStatusInitiated,
		GrantSeconds:     grantSeconds,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// GrantDuration returns the requested grant duration
func (t *Transaction) GrantDuration() time.Duration {
	return time.Duration(t.GrantSeconds) * time.Second
}

// ApplyStatus moves the transaction forward in its lifecycle.
// Transitions are monotonic: once a notification resolved the transaction it
// can never return to initiated. Re-applying the current status is a no-op,
// which keeps duplicate webhook deliveries harmless.
func (t *Transaction) ApplyStatus(status TransactionStatus) error {
	if !status.IsValid() {
		return shared.ErrInvalidInput
	}
	if status == t.Status {
		return nil
	}
	if status == TransactionStatusInitiated {
		return ErrStatusRegression
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}
