package access

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRevocationScheduler_Schedule(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers device-side scheduling", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(true)
		device.On("ScheduleRevocation", mock.Anything, "AA:BB:CC:DD:EE:FF", time.Hour).Return(nil)

		scheduler := NewRevocationScheduler(device, nil)
		defer scheduler.Close()

		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		assert.Equal(t, 0, scheduler.Pending())
		device.AssertExpectations(t)
	})

	t.Run("falls back to timer when device scheduling fails", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(true)
		device.On("ScheduleRevocation", mock.Anything, "AA:BB:CC:DD:EE:FF", time.Hour).
			Return(errors.New("scheduler full"))

		scheduler := NewRevocationScheduler(device, nil)
		defer scheduler.Close()

		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		assert.Equal(t, 1, scheduler.Pending())
	})

	t.Run("timer revokes after the delay", func(t *testing.T) {
		var revoked atomic.Bool
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(false)
		device.On("Revoke", mock.Anything, "AA:BB:CC:DD:EE:FF").
			Run(func(args mock.Arguments) { revoked.Store(true) }).
			Return(nil)

		scheduler := NewRevocationScheduler(device, nil)
		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", 10*time.Millisecond))

		assert.Eventually(t, revoked.Load, time.Second, 5*time.Millisecond)
		scheduler.Close()
		assert.Equal(t, 0, scheduler.Pending())
	})

	t.Run("rescheduling replaces the pending timer", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(false)

		scheduler := NewRevocationScheduler(device, nil)
		defer scheduler.Close()

		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		assert.Equal(t, 1, scheduler.Pending())
	})

	t.Run("close returns promptly after a reschedule", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(false)

		scheduler := NewRevocationScheduler(device, nil)

		// A replaced timer never fires its callback; Close must not wait
		// for it.
		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))

		done := make(chan error, 1)
		go func() {
			done <- scheduler.Close()
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("Close did not return after rescheduling an identifier")
		}
		assert.Equal(t, 0, scheduler.Pending())
	})
}

func TestRevocationScheduler_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel drops the pending revocation", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(false)

		scheduler := NewRevocationScheduler(device, nil)
		defer scheduler.Close()

		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		scheduler.Cancel("AA:BB:CC:DD:EE:FF")
		assert.Equal(t, 0, scheduler.Pending())
		device.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}

func TestRevocationScheduler_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("close stops pending timers and refuses new ones", func(t *testing.T) {
		device := new(MockDevice)
		device.On("SupportsScheduling").Return(false)

		scheduler := NewRevocationScheduler(device, nil)
		require.NoError(t, scheduler.Schedule(ctx, "AA:BB:CC:DD:EE:FF", time.Hour))
		require.NoError(t, scheduler.Close())

		assert.Equal(t, 0, scheduler.Pending())
		require.NoError(t, scheduler.Schedule(ctx, "11:22:33:44:55:66", time.Hour))
		assert.Equal(t, 0, scheduler.Pending())
		device.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}
