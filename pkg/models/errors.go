package models

import "github.com/pkg/errors"

// Registration and lifecycle errors are returned to the caller. Match them with
// errors.Cause(err) == ErrX since most are wrapped with context.
var (
	// ErrDuplicateUUID means a service or characteristic uuid is already registered
	ErrDuplicateUUID = errors.New("duplicate uuid")
	// ErrEmptyRegistry means there is nothing (or an empty service) to advertise
	ErrEmptyRegistry = errors.New("registry has no advertisable services")
	// ErrPermissionDenied means the permission gate refused access to the radio
	ErrPermissionDenied = errors.New("bluetooth permission denied")
	// ErrRadioDisabled means the radio is off and activation was declined
	ErrRadioDisabled = errors.New("bluetooth radio disabled")
	// ErrRadioUnavailable means there is no usable radio. It is fatal and never retried.
	ErrRadioUnavailable = errors.New("bluetooth radio unavailable")
	// ErrAdvertisingTimeout means the radio did not confirm advertising in time
	ErrAdvertisingTimeout = errors.New("advertising start timed out")
	// ErrNotifyNotSupported means the characteristic declares neither Notify nor Indicate
	ErrNotifyNotSupported = errors.New("characteristic does not support notify or indicate")
	// ErrPayloadTruncated is a warning: some advertised service uuids did not fit
	ErrPayloadTruncated = errors.New("advertising payload truncated")

	// ErrNotInitialized means Initialize has not succeeded yet
	ErrNotInitialized = errors.New("gatt server not initialized")
	// ErrRegistryLocked means services cannot change while advertising is active
	ErrRegistryLocked = errors.New("registry is locked while advertising")
	// ErrInvalidState means the operation is not allowed in the current server state
	ErrInvalidState = errors.New("invalid server state")
	// ErrAdvertisingCancelled means a stop cancelled an in-flight start
	ErrAdvertisingCancelled = errors.New("advertising start cancelled")
	// ErrNilUUID means a service or characteristic was declared with the nil uuid
	ErrNilUUID = errors.New("nil uuid")
	// ErrInvalidCharacteristic means a characteristic declares no properties
	ErrInvalidCharacteristic = errors.New("characteristic has no properties")
	// ErrUnknownCharacteristic means no registered characteristic has the uuid
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
	// ErrNotSubscribed is returned by radio adapters when no central listens to a characteristic
	ErrNotSubscribed = errors.New("no central subscribed")
)
