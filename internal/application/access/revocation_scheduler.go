package access

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netpass/backend/internal/domain/access"
)

// RevocationScheduler arranges the removal of a device binding once its grant
// window ends. The binding's device-native timeout is the primary expiry
// mechanism; this scheduler is a second line that also cleans up when the
// device timeout was not honored. Device-side scheduling is preferred because
// it survives restarts of this process; the in-process timer is the fallback.
type RevocationScheduler struct {
	device access.NetworkAdmissionDevice
	logger *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
	closed bool
}

// NewRevocationScheduler creates a new RevocationScheduler
func NewRevocationScheduler(device access.NetworkAdmissionDevice, logger *zap.Logger) *RevocationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationScheduler{
		device: device,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arranges revocation of the identifier after the delay.
// Rescheduling an identifier replaces its pending revocation.
func (s *RevocationScheduler) Schedule(ctx context.Context, identifier string, after time.Duration) error {
	if s.device.SupportsScheduling() {
		if err := s.device.ScheduleRevocation(ctx, identifier, after); err == nil {
			s.logger.Info("Revocation scheduled on device",
				zap.String("client_identifier", identifier),
				zap.Duration("after", after))
			return nil
		} else {
			s.logger.Warn("Device-side scheduling failed, falling back to in-process timer",
				zap.String("client_identifier", identifier),
				zap.Error(err))
		}
	}

	s.scheduleLocal(identifier, after)
	return nil
}

// scheduleLocal arms an in-process timer for the identifier
func (s *RevocationScheduler) scheduleLocal(identifier string, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if existing, ok := s.timers[identifier]; ok {
		if existing.Stop() {
			s.wg.Done()
		}
	}

	s.wg.Add(1)
	s.timers[identifier] = time.AfterFunc(after, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.timers, identifier)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.device.Revoke(ctx, identifier); err != nil {
			s.logger.Error("Timed revocation failed",
				zap.String("client_identifier", identifier),
				zap.Error(err))
			return
		}
		s.logger.Info("Client identifier revoked by timer",
			zap.String("client_identifier", identifier))
	})

	s.logger.Info("Revocation timer armed",
		zap.String("client_identifier", identifier),
		zap.Duration("after", after))
}

// Cancel drops a pending in-process revocation for the identifier
func (s *RevocationScheduler) Cancel(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[identifier]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, identifier)
	}
}

// Close stops all pending timers. Fired timers are waited for.
func (s *RevocationScheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	for identifier, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, identifier)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Pending returns the number of armed in-process timers
func (s *RevocationScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
