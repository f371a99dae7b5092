package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/netpass/backend/internal/domain/access"
	"github.com/netpass/backend/internal/domain/payment"
	"github.com/netpass/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockGateway is a mock payment gateway
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

// MockLedger is a mock transaction ledger that also resolves identifiers
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

func (m *MockLedger) Resolve(ctx context.Context, paymentReference string) (string, error) {
	return m.ResolveClientIdentifier(ctx, paymentReference)
}

func (m *MockLedger) FindByPaymentReference(ctx context.Context, paymentReference string) (*access.Transaction, error) {
	args := m.Called(ctx, paymentReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Transaction), args.Error(1)
}

// MockDevice is a mock network admission device
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

// MockDedupStore is a mock idempotency store
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
