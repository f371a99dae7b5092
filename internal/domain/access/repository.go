package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordTransactionInput carries everything needed to record a pending
// transaction at payment-creation time.
type RecordTransactionInput struct {
	// TaxID is the stable personal identifier used to deduplicate identities
	TaxID string
	// Email is the payer's contact address, upserted idempotently
	Email string
	// Amount is the monetary amount of the payment
	Amount decimal.Decimal
	// ClientIdentifier is the MAC or IP to admit once the payment is approved
	ClientIdentifier string
	// PaymentReference is the provider-assigned payment id
	PaymentReference string
	// GrantSeconds is the requested access window in whole seconds
	GrantSeconds int64
}

// TransactionLedger records transaction lifecycle state keyed by payment
// reference. Identity lookup-or-create, email upsert and transaction insert
// happen in one storage transaction, so a failure midway leaves nothing behind.
type TransactionLedger interface {
	// RecordTransaction persists a new transaction in the initiated state
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (uuid.UUID, error)

	// UpdateStatus moves the transaction matched by payment reference forward.
	// Re-applying the same status is a no-op; returns shared.ErrNotFound when
	// no transaction matches.
	UpdateStatus(ctx context.Context, paymentReference string, status TransactionStatus) error

	// ResolveClientIdentifier returns the network identifier stored for a
	// payment reference, or shared.ErrNotFound. Point lookup on an indexed column.
	ResolveClientIdentifier(ctx context.Context, paymentReference string) (string, error)

	// FindByPaymentReference returns the full transaction for a reference,
	// or shared.ErrNotFound
	FindByPaymentReference(ctx context.Context, paymentReference string) (*Transaction, error)
}

// IdentifierResolver maps a payment reference to the client network identifier
// recorded at transaction creation time. A separate seam so storage schema
// variations (MAC-keyed vs IP-keyed) do not leak into the reconciler.
type IdentifierResolver interface {
	Resolve(ctx context.Context, paymentReference string) (string, error)
}
