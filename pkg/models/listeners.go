package models

import (
	"context"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
)

// RequestSink receives read and write events from the radio. Calls arrive from the
// radio stack's own goroutines with no ordering relative to control calls.
type RequestSink interface {
	DispatchRead(ReadRequest) ReadResult
	DispatchWrite(WriteRequest) WriteResult
}

// RadioAdapter is the platform driver the gatt server runs on.
type RadioAdapter interface {
	InitializeRadio(ctx context.Context, sink RequestSink) error
	ApplyServiceTable(ctx context.Context, table ServiceTable) error
	StartAdvertising(ctx context.Context, opts AdvertisingOptions) error
	StopAdvertising(ctx context.Context) error
	// SendNotification returns after the central acknowledged (indications) or the
	// packet was queued (notifications). It returns ErrNotSubscribed if nobody listens.
	SendNotification(ctx context.Context, uuid util.UUID, payload []byte) error
}

// SubscriptionReporter is optionally implemented by radio adapters that track CCCD state.
type SubscriptionReporter interface {
	Subscribed(uuid util.UUID) bool
}

// PermissionGate confirms the process may use the radio and that it is powered.
type PermissionGate interface {
	CheckAndRequestPermissions(ctx context.Context) (PermissionResult, error)
	IsRadioEnabled(ctx context.Context) (bool, error)
	RequestRadioActivation(ctx context.Context) error
}
