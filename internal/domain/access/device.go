package access

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDeviceUnreachable is returned when the network device cannot be reached
	// after all retry attempts
	ErrDeviceUnreachable = errors.New("admission: network device unreachable")
	// ErrDeviceRejected is returned when the device refuses a command
	ErrDeviceRejected = errors.New("admission: network device rejected command")
	// ErrSchedulingUnsupported is returned when delayed revocation is requested
	// on a device without a scheduler capability
	ErrSchedulingUnsupported = errors.New("admission: device does not support scheduled revocation")
)

// AdmissionGrant is the ephemeral device-side binding that allows traffic from
// a client identifier until it expires. It lives on the device, not in the
// ledger; at most one active grant exists per identifier.
type AdmissionGrant struct {
	ClientIdentifier string
	ExpiresAt        time.Time
}

// NetworkAdmissionDevice is the port to the router that enforces access.
// Implementations must make Admit idempotent: admitting an identifier that is
// already bound replaces the binding's expiry instead of stacking a duplicate.
// The binding itself carries a device-native timeout whenever the device
// supports one, so expiry is enforced even if this process dies.
type NetworkAdmissionDevice interface {
	// Admit binds the identifier as allowed for the given duration
	Admit(ctx context.Context, identifier string, duration time.Duration) error

	// Revoke removes the binding. Revoking an identifier that is not bound
	// is treated as success.
	Revoke(ctx context.Context, identifier string) error

	// ScheduleRevocation arranges a device-side revoke after the given delay.
	// Returns ErrSchedulingUnsupported when SupportsScheduling is false.
	ScheduleRevocation(ctx context.Context, identifier string, after time.Duration) error

	// SupportsScheduling reports whether the device has a native delayed-task
	// capability that survives restarts of this process
	SupportsScheduling() bool
}
