package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netpass/backend/internal/domain/access"
)

// AdmissionService wraps the network device port with bounded retries.
// A transient device failure must not translate into a lost access grant,
// so each command is retried with a fixed backoff and a per-call timeout.
type AdmissionService struct {
	device      access.NetworkAdmissionDevice
	attempts    int
	backoff     time.Duration
	callTimeout time.Duration
	logger      *zap.Logger
}

// AdmissionServiceConfig holds configuration for the admission service
type AdmissionServiceConfig struct {
	Device      access.NetworkAdmissionDevice
	Attempts    int
	Backoff     time.Duration
	CallTimeout time.Duration
	Logger      *zap.Logger
}

// NewAdmissionService creates a new AdmissionService
func NewAdmissionService(cfg AdmissionServiceConfig) *AdmissionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &AdmissionService{
		device:      cfg.Device,
		attempts:    attempts,
		backoff:     backoff,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Admit binds the identifier on the device for the given duration
func (s *AdmissionService) Admit(ctx context.Context, identifier string, duration time.Duration) error {
	err := s.withRetry(ctx, "admit", identifier, func(callCtx context.Context) error {
		return s.device.Admit(callCtx, identifier, duration)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Client identifier admitted",
		zap.String("client_identifier", identifier),
		zap.Duration("duration", duration))
	return nil
}

// Revoke removes the device binding for the identifier
func (s *AdmissionService) Revoke(ctx context.Context, identifier string) error {
	err := s.withRetry(ctx, "revoke", identifier, func(callCtx context.Context) error {
		return s.device.Revoke(callCtx, identifier)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Client identifier revoked",
		zap.String("client_identifier", identifier))
	return nil
}

// ScheduleRevocation arranges a device-side revoke after the delay
func (s *AdmissionService) ScheduleRevocation(ctx context.Context, identifier string, after time.Duration) error {
	if !s.device.SupportsScheduling() {
		return access.ErrSchedulingUnsupported
	}
	return s.withRetry(ctx, "schedule revocation", identifier, func(callCtx context.Context) error {
		return s.device.ScheduleRevocation(callCtx, identifier, after)
	})
}

// SupportsScheduling reports whether the underlying device schedules natively
func (s *AdmissionService) SupportsScheduling() bool {
	return s.device.SupportsScheduling()
}

// withRetry runs one device command under a per-call timeout, retrying
// transient failures. Commands the device actively refused are not retried.
func (s *AdmissionService) withRetry(ctx context.Context, op, identifier string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if errors.Is(err, access.ErrDeviceRejected) {
			return err
		}
		lastErr = err

		s.logger.Warn("Device command failed",
			zap.String("operation", op),
			zap.String("client_identifier", identifier),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.attempts),
			zap.Error(err))

		if attempt < s.attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", access.ErrDeviceUnreachable, ctx.Err())
			case <-time.After(s.backoff):
			}
		}
	}
	return fmt.Errorf("%w: after %d attempts: %v", access.ErrDeviceUnreachable, s.attempts, lastErr)
}

// Ensure AdmissionService keeps the device port contract
var _ access.NetworkAdmissionDevice = (*AdmissionService)(nil)
