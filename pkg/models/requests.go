package models

import "github.com/Krajiyah/ble-peripheral/pkg/util"

// ReadRequest is a read of a characteristic value delivered by the radio.
// ServiceUUID is filled in by the dispatcher from the registry.
type ReadRequest struct {
	ServiceUUID        util.UUID
	CharacteristicUUID util.UUID
	Offset             uint
}

// ReadResult answers a ReadRequest. Success false is mapped by the radio to a protocol error.
type ReadResult struct {
	Success bool
	Payload []byte
}

// WriteRequest is a write to a characteristic delivered by the radio.
type WriteRequest struct {
	ServiceUUID        util.UUID
	CharacteristicUUID util.UUID
	Payload            []byte
	WithoutResponse    bool
}

// WriteResult answers a WriteRequest. When Notify is set a notification for that
// characteristic is emitted after the write, carrying NotifyPayload or, if nil,
// the written payload.
type WriteResult struct {
	Success       bool
	Notify        *util.UUID
	NotifyPayload []byte
}

// ReadFailed is the response for unknown or unreadable characteristics.
func ReadFailed() ReadResult { return ReadResult{Success: false, Payload: []byte{}} }

// WriteFailed is the response for unknown or unwritable characteristics.
func WriteFailed() WriteResult { return WriteResult{Success: false} }

// SliceFrom returns payload starting at offset, or an empty slice when offset is past the end.
func SliceFrom(payload []byte, offset uint) []byte {
	if offset >= uint(len(payload)) {
		return []byte{}
	}
	return payload[offset:]
}

// AdvertisingOptions is what gets broadcast. An empty ServiceUUIDs list advertises
// every registered service in registration order.
type AdvertisingOptions struct {
	LocalName    string
	ServiceUUIDs []util.UUID
}

// AdvertisingResult reports which service uuids made it into the advertising payload.
// Warning wraps ErrPayloadTruncated when some were dropped; it is never fatal.
type AdvertisingResult struct {
	Advertised []util.UUID
	Dropped    []util.UUID
	Warning    error
}

// Truncated reports whether any service uuid was dropped.
func (r AdvertisingResult) Truncated() bool { return len(r.Dropped) > 0 }

// NotifyStatus is the outcome of handing a payload to the notification emitter
type NotifyStatus int

const (
	// NotifyNoSubscribers means nobody listens; the payload was discarded without error
	NotifyNoSubscribers NotifyStatus = iota
	// NotifyQueued means the payload is pending delivery
	NotifyQueued
	// NotifyCoalesced means the payload replaced an older pending one
	NotifyCoalesced
)

func (s NotifyStatus) String() string {
	switch s {
	case NotifyQueued:
		return "Queued"
	case NotifyCoalesced:
		return "Coalesced"
	}
	return "NoSubscribers"
}

// PermissionResult is the answer of a PermissionGate
type PermissionResult int

const (
	// PermissionGranted means the process may use the radio
	PermissionGranted PermissionResult = iota
	// PermissionDenied means the user or system refused
	PermissionDenied
)

func (r PermissionResult) String() string {
	if r == PermissionGranted {
		return "Granted"
	}
	return "Denied"
}
