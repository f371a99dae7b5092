package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/domain/shared"
)

var (
	// ErrNotificationRejected is returned when a webhook payload fails
	// structural validation and must be answered with a client error
	ErrNotificationRejected = errors.New("notification: rejected")
)

// NotificationResult reports what one webhook delivery caused
type NotificationResult struct {
	// Processed is false when the notification was acknowledged without work
	// (non-payment type, duplicate delivery, or unknown reference)
	Processed bool
	// Duplicate is true when a previous delivery already handled this
	// payment/status pair
	Duplicate bool
	// PaymentID is the provider payment reference, empty for non-payment types
	PaymentID string
	// Status is the authoritative status fetched from the gateway
	Status payment.Status
	// Admitted is true when the client identifier was bound on the device
	Admitted bool
}

// NotificationService reconciles inbound payment-provider webhooks.
// The webhook is a hint: the authoritative status is always fetched from the
// gateway before the ledger is touched. On approval the stored client
// identifier is admitted on the network device for the transaction's grant
// window.
type NotificationService struct {
	gateway    payment.Gateway
	ledger     access.TransactionLedger
	resolver   access.IdentifierResolver
	admission  *AdmissionService
	scheduler  *RevocationScheduler
	dedupStore shared.IdempotencyStore
	dedupTTL   time.Duration
	logger     *zap.Logger
}

// NotificationServiceConfig holds configuration for the notification service
type NotificationServiceConfig struct {
	Gateway    payment.Gateway
	Ledger     access.TransactionLedger
	Resolver   access.IdentifierResolver
	Admission  *AdmissionService
	Scheduler  *RevocationScheduler
	DedupStore shared.IdempotencyStore
	DedupTTL   time.Duration
	Logger     *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(cfg NotificationServiceConfig) *NotificationService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dedupTTL := cfg.DedupTTL
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &NotificationService{
		gateway:    cfg.Gateway,
		ledger:     cfg.Ledger,
		resolver:   cfg.Resolver,
		admission:  cfg.Admission,
		scheduler:  cfg.Scheduler,
		dedupStore: cfg.DedupStore,
		dedupTTL:   dedupTTL,
		logger:     logger,
	}
}

// ProcessNotification handles one raw webhook delivery.
// Structural failures return ErrNotificationRejected. Gateway and ledger
// failures are returned so the provider retries the delivery. Device failures
// after a successful ledger update do not fail the notification; the provider
// must not retry a payment that was fully recorded.
func (s *NotificationService) ProcessNotification(ctx context.Context, payload []byte) (*NotificationResult, error) {
	notification, err := access.ParsePaymentNotification(payload)
	if err != nil {
		s.logger.Warn("Webhook payload failed validation", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNotificationRejected, err)
	}

	if !notification.IsPayment() {
		s.logger.Info("Ignoring non-payment notification",
			zap.String("type", notification.Type),
			zap.String("action", notification.Action))
		return &NotificationResult{Processed: false}, nil
	}

	paymentID := notification.PaymentID()
	s.logger.Info("Payment notification received",
		zap.String("payment_id", paymentID),
		zap.String("action", notification.Action))

	authoritative, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("Failed to fetch payment from gateway",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	result := &NotificationResult{
		PaymentID: paymentID,
		Status:    authoritative.Status,
	}

	// Dedup is keyed by payment and status so a later, different status for
	// the same payment still gets processed. The key is marked only after the
	// ledger update succeeded, so a failed delivery stays retryable; the small
	// window between check and mark is harmless because both the status update
	// and the admission are idempotent.
	dedupKey := fmt.Sprintf("%s:%s", paymentID, authoritative.Status)
	processed, err := s.dedupStore.IsProcessed(ctx, dedupKey)
	if err != nil {
		s.logger.Error("Dedup store unavailable",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, fmt.Errorf("dedup check for %s: %w", paymentID, err)
	}
	if processed {
		s.logger.Info("Duplicate notification skipped",
			zap.String("payment_id", paymentID),
			zap.String("status", string(authoritative.Status)))
		result.Duplicate = true
		return result, nil
	}

	if err := s.applyStatus(ctx, paymentID, authoritative.Status, result); err != nil {
		return nil, err
	}

	if _, err := s.dedupStore.MarkProcessed(ctx, dedupKey, s.dedupTTL); err != nil {
		s.logger.Warn("Failed to mark notification processed",
			zap.String("payment_id", paymentID),
			zap.Error(err))
	}

	return result, nil
}

// applyStatus updates the ledger and, on approval, admits the identifier
func (s *NotificationService) applyStatus(ctx context.Context, paymentID string, status payment.Status, result *NotificationResult) error {
	ledgerStatus := status.ToLedgerStatus()

	err := s.ledger.UpdateStatus(ctx, paymentID, ledgerStatus)
	if errors.Is(err, shared.ErrNotFound) {
		// A notification for a payment this system never recorded. Acknowledge
		// it; retrying will never make the transaction appear.
		s.logger.Warn("No transaction recorded for payment",
			zap.String("payment_id", paymentID),
			zap.String("status", string(status)))
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to update transaction status",
			zap.String("payment_id", paymentID),
			zap.String("status", string(ledgerStatus)),
			zap.Error(err))
		return fmt.Errorf("update status for %s: %w", paymentID, err)
	}

	result.Processed = true
	s.logger.Info("Transaction status updated",
		zap.String("payment_id", paymentID),
		zap.String("status", string(ledgerStatus)))

	if ledgerStatus != access.TransactionStatusApproved {
		return nil
	}
	return s.admitForPayment(ctx, paymentID, result)
}

// admitForPayment binds the identifier recorded for the payment. Device
// failures are logged, not returned: the ledger already reflects the approved
// payment and a webhook retry cannot fix a down router.
func (s *NotificationService) admitForPayment(ctx context.Context, paymentID string, result *NotificationResult) error {
	transaction, err := s.ledger.FindByPaymentReference(ctx, paymentID)
	if err != nil {
		s.logger.Error("Failed to load transaction for admission",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil
	}

	identifier, err := s.resolver.Resolve(ctx, paymentID)
	if err != nil {
		s.logger.Error("No client identifier resolved for approved payment",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil
	}

	duration := transaction.GrantDuration()
	if err := s.admission.Admit(ctx, identifier, duration); err != nil {
		s.logger.Error("Failed to admit client identifier",
			zap.String("payment_id", paymentID),
			zap.String("client_identifier", identifier),
			zap.Error(err))
		return nil
	}
	result.Admitted = true

	if err := s.scheduler.Schedule(ctx, identifier, duration); err != nil {
		s.logger.Warn("Failed to schedule revocation",
			zap.String("client_identifier", identifier),
			zap.Error(err))
	}

	s.logger.Info("Access granted",
		zap.String("payment_id", paymentID),
		zap.String("client_identifier", identifier),
		zap.Duration("duration", duration))
	return nil
}
