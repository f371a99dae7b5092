package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/domain/shared"
)

// =============================================================================
// Mocks
// =============================================================================

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, req *payment.CreatePaymentRequest) (*payment.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockGateway) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockGateway) SearchPaymentMethods(ctx context.Context, bin string) ([]payment.PaymentMethod, error) {
	args := m.Called(ctx, bin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PaymentMethod), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) RecordTransaction(ctx context.Context, input access.RecordTransactionInput) (uuid.UUID, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedger) UpdateStatus(ctx context.Context, paymentReference string, status access.TransactionStatus) error {
	args := m.Called(ctx, paymentReference, status)
	return args.Error(0)
}

func (m *MockLedger) ResolveClientIdentifier(ctx context.Context, paymentReference string) (string, error) {
	args := m.Called(ctx, paymentReference)
	return args.String(0), args.Error(1)
}

func (m *MockLedger) FindByPaymentReference(ctx context.Context, paymentReference string) (*access.Transaction, error) {
	args := m.Called(ctx, paymentReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Transaction), args.Error(1)
}

func (m *MockLedger) Resolve(ctx context.Context, paymentReference string) (string, error) {
	return m.ResolveClientIdentifier(ctx, paymentReference)
}

type MockDevice struct {
	mock.Mock
}

func (m *MockDevice) Admit(ctx context.Context, identifier string, duration time.Duration) error {
	args := m.Called(ctx, identifier, duration)
	return args.Error(0)
}

func (m *MockDevice) Revoke(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func (m *MockDevice) ScheduleRevocation(ctx context.Context, identifier string, after time.Duration) error {
	args := m.Called(ctx, identifier, after)
	return args.Error(0)
}

func (m *MockDevice) SupportsScheduling() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// =============================================================================
// Fixtures
// =============================================================================

type notificationFixture struct {
	gateway *MockGateway
	ledger  *MockLedger
	device  *MockDevice
	dedup   *MockDedupStore
	service *NotificationService
}

func newNotificationFixture() *notificationFixture {
	gateway := new(MockGateway)
	ledger := new(MockLedger)
	device := new(MockDevice)
	dedup := new(MockDedupStore)

	admission := NewAdmissionService(AdmissionServiceConfig{
		Device:      device,
		Attempts:    1,
		Backoff:     time.Millisecond,
		CallTimeout: time.Second,
	})
	scheduler := NewRevocationScheduler(device, nil)

	service := NewNotificationService(NotificationServiceConfig{
		Gateway:    gateway,
		Ledger:     ledger,
		Resolver:   ledger,
		Admission:  admission,
		Scheduler:  scheduler,
		DedupStore: dedup,
		DedupTTL:   time.Hour,
	})

	return &notificationFixture{
		gateway: gateway,
		ledger:  ledger,
		device:  device,
		dedup:   dedup,
		service: service,
	}
}

func approvedTransaction(reference, identifier string, grantSeconds int64) *access.Transaction {
	tx, _ := access.NewTransaction(uuid.New(), decimal.NewFromFloat(9.90), identifier, reference, grantSeconds)
	return tx
}

const webhookPayload = `{"action":"payment.updated","type":"payment","data":{"id":"12345"}}`

// =============================================================================
// Tests
// =============================================================================

func TestNotificationService_ProcessNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("approved payment admits identifier for grant window", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusApproved).Return(nil)
		f.ledger.On("FindByPaymentReference", mock.Anything, "12345").
			Return(approvedTransaction("12345", "AA:BB:CC:DD:EE:FF", 3600), nil)
		f.ledger.On("ResolveClientIdentifier", mock.Anything, "12345").Return("AA:BB:CC:DD:EE:FF", nil)
		f.device.On("Admit", mock.Anything, "AA:BB:CC:DD:EE:FF", time.Hour).Return(nil)
		f.device.On("SupportsScheduling").Return(true)
		f.device.On("ScheduleRevocation", mock.Anything, "AA:BB:CC:DD:EE:FF", time.Hour).Return(nil)
		f.dedup.On("MarkProcessed", mock.Anything, "12345:approved", time.Hour).Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)

		assert.True(t, result.Processed)
		assert.True(t, result.Admitted)
		assert.False(t, result.Duplicate)
		assert.Equal(t, payment.StatusApproved, result.Status)
		f.device.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
		f.dedup.AssertExpectations(t)
	})

	t.Run("rejected payment updates ledger without touching device", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusRejected}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:rejected").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusRejected).Return(nil)
		f.dedup.On("MarkProcessed", mock.Anything, "12345:rejected", time.Hour).Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)

		assert.True(t, result.Processed)
		assert.False(t, result.Admitted)
		f.device.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pending status maps onto pending ledger state", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusInProcess}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:in_process").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusPending).Return(nil)
		f.dedup.On("MarkProcessed", mock.Anything, "12345:in_process", time.Hour).Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)
		assert.True(t, result.Processed)
	})

	t.Run("duplicate delivery is acknowledged with no side effects", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)

		assert.True(t, result.Duplicate)
		assert.False(t, result.Processed)
		f.ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		f.device.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("structurally invalid payload is rejected", func(t *testing.T) {
		f := newNotificationFixture()

		_, err := f.service.ProcessNotification(ctx, []byte(`{"type":"payment"}`))
		assert.ErrorIs(t, err, ErrNotificationRejected)
		f.gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
	})

	t.Run("non-payment type is acknowledged and ignored", func(t *testing.T) {
		f := newNotificationFixture()

		result, err := f.service.ProcessNotification(ctx,
			[]byte(`{"action":"test.created","type":"plan","data":{"id":"99"}}`))
		require.NoError(t, err)

		assert.False(t, result.Processed)
		f.gateway.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
	})

	t.Run("gateway failure is surfaced for provider retry", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(nil, payment.ErrGatewayUnavailable)

		_, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("unknown payment reference is acknowledged", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusApproved).
			Return(shared.ErrNotFound)
		f.dedup.On("MarkProcessed", mock.Anything, "12345:approved", time.Hour).Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)

		assert.False(t, result.Processed)
		f.device.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ledger failure is surfaced for provider retry", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusApproved).
			Return(errors.New("connection reset"))

		_, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		assert.Error(t, err)
		f.dedup.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("device failure still acknowledges the notification", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").Return(false, nil)
		f.ledger.On("UpdateStatus", mock.Anything, "12345", access.TransactionStatusApproved).Return(nil)
		f.ledger.On("FindByPaymentReference", mock.Anything, "12345").
			Return(approvedTransaction("12345", "AA:BB:CC:DD:EE:FF", 3600), nil)
		f.ledger.On("ResolveClientIdentifier", mock.Anything, "12345").Return("AA:BB:CC:DD:EE:FF", nil)
		f.device.On("Admit", mock.Anything, "AA:BB:CC:DD:EE:FF", time.Hour).
			Return(access.ErrDeviceUnreachable)
		f.dedup.On("MarkProcessed", mock.Anything, "12345:approved", time.Hour).Return(true, nil)

		result, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		require.NoError(t, err)

		assert.True(t, result.Processed)
		assert.False(t, result.Admitted)
	})

	t.Run("dedup store failure is surfaced for provider retry", func(t *testing.T) {
		f := newNotificationFixture()

		f.gateway.On("GetPayment", mock.Anything, "12345").
			Return(&payment.Payment{ID: "12345", Status: payment.StatusApproved}, nil)
		f.dedup.On("IsProcessed", mock.Anything, "12345:approved").
			Return(false, errors.New("redis down"))

		_, err := f.service.ProcessNotification(ctx, []byte(webhookPayload))
		assert.Error(t, err)
	})
}
